package catalog

import (
	"context"
	stderrors "errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/garlicdevs/csv-cleaner/pkg/config"
)

// GCSBlobStore writes artifacts to a Google Cloud Storage bucket.
type GCSBlobStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
	prefix string
}

// NewGCSBlobStore uses cfg.CredentialsFile when set and application default
// credentials otherwise.
func NewGCSBlobStore(ctx context.Context, cfg config.BlobConfig) (*GCSBlobStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, storageError(err, "failed to create GCS client")
	}
	return &GCSBlobStore{
		client: client,
		bucket: client.Bucket(cfg.Bucket),
		name:   cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (g *GCSBlobStore) objectName(key string) string {
	if g.prefix == "" {
		return key
	}
	return g.prefix + "/" + key
}

func (g *GCSBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	w := g.bucket.Object(g.objectName(key)).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return storageError(err, "failed to upload artifact")
	}
	if err := w.Close(); err != nil {
		return storageError(err, "failed to finalize artifact")
	}
	return nil
}

func (g *GCSBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := g.bucket.Object(g.objectName(key)).NewReader(ctx)
	if stderrors.Is(err, storage.ErrObjectNotExist) {
		return nil, notFound("artifact", key)
	}
	if err != nil {
		return nil, storageError(err, "failed to download artifact")
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, storageError(err, "failed to read artifact")
	}
	return data, nil
}

func (g *GCSBlobStore) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(g.objectName(key)).Delete(ctx)
	if err != nil && !stderrors.Is(err, storage.ErrObjectNotExist) {
		return storageError(err, "failed to delete artifact")
	}
	return nil
}

func (g *GCSBlobStore) URL(key string) string {
	return "gs://" + g.name + "/" + g.objectName(key)
}

func (g *GCSBlobStore) Close() error { return g.client.Close() }
