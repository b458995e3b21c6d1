// Package catalog persists inference results. A MetadataStore keeps one
// Dataset record per dataset name (create-or-replace) and a BlobStore keeps
// the converted artifacts those records point at.
//
// Backends are selected by config.CatalogConfig:
//
//	metadata: memory, fs, postgres, sqlite, mysql, sqlserver, mongo
//	blobs:    memory, fs, s3, gcs
package catalog

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/garlicdevs/csv-cleaner/pkg/config"
	"github.com/garlicdevs/csv-cleaner/pkg/errors"
	"github.com/garlicdevs/csv-cleaner/pkg/models"
)

// MetadataStore persists Dataset records keyed by name.
type MetadataStore interface {
	// Put creates or replaces the record named ds.Name
	Put(ctx context.Context, ds *models.Dataset) error
	// Get returns the record or a not_found error
	Get(ctx context.Context, name string) (*models.Dataset, error)
	// List returns every record ordered by name
	List(ctx context.Context) ([]*models.Dataset, error)
	Close() error
}

// BlobStore persists artifact bytes.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns the object or a not_found error
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes the object; a missing key is not an error
	Delete(ctx context.Context, key string) error
	// URL returns a locator clients can download key from
	URL(key string) string
	Close() error
}

// Catalog bundles the two stores of a deployment.
type Catalog struct {
	Metadata MetadataStore
	Blobs    BlobStore
}

// Close closes both stores.
func (c *Catalog) Close() error {
	var errs []string
	if err := c.Metadata.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.Blobs.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return errors.New(errors.ErrorTypeStorage, strings.Join(errs, "; "))
	}
	return nil
}

// Open connects the metadata and blob stores named in cfg.
func Open(ctx context.Context, cfg config.CatalogConfig, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	meta, err := openMetadata(ctx, cfg)
	if err != nil {
		return nil, err
	}
	blobs, err := openBlobs(ctx, cfg.Blob)
	if err != nil {
		_ = meta.Close()
		return nil, err
	}
	logger.Debug("catalog opened",
		zap.String("metadata_backend", cfg.Backend),
		zap.String("blob_backend", cfg.Blob.Backend))
	return &Catalog{Metadata: meta, Blobs: blobs}, nil
}

func openMetadata(ctx context.Context, cfg config.CatalogConfig) (MetadataStore, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "fs":
		return NewFileStore(cfg.Dir)
	case "postgres":
		return NewPostgresStore(ctx, cfg.DSN)
	case "sqlite", "mysql", "sqlserver":
		return NewSQLStore(ctx, cfg.Backend, cfg.DSN)
	case "mongo":
		return NewMongoStore(ctx, cfg.DSN, cfg.Database)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown catalog backend %q", cfg.Backend)
	}
}

func openBlobs(ctx context.Context, cfg config.BlobConfig) (BlobStore, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryBlobStore(), nil
	case "fs":
		return NewFileBlobStore(cfg.Dir)
	case "s3":
		return NewS3BlobStore(ctx, cfg)
	case "gcs":
		return NewGCSBlobStore(ctx, cfg)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown blob backend %q", cfg.Backend)
	}
}

// ArtifactKey is the blob key of the artifact a run produced for dataset.
// Distinct dataset names always give distinct keys, and each run writes
// under its own id so a replacement never touches the stored artifact.
func ArtifactKey(dataset, runID, artifact string) string {
	return "datasets/" + keySegment(dataset) + "/" + keySegment(runID) + "/" + artifact
}

// keySegment escapes name into a single path segment. Dot-only names are
// escaped too so they cannot climb out of the datasets prefix.
func keySegment(name string) string {
	seg := url.PathEscape(name)
	if strings.Trim(seg, ".") == "" {
		seg = strings.ReplaceAll(seg, ".", "%2E")
	}
	return seg
}

func notFound(what, name string) error {
	return errors.Newf(errors.ErrorTypeNotFound, "%s not found", what).
		WithDetail("name", name)
}

func storageError(err error, op string) error {
	return errors.Wrap(err, errors.ErrorTypeStorage, op)
}

func sortByName(out []*models.Dataset) {
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
}
