package catalog

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/garlicdevs/csv-cleaner/pkg/json"
	"github.com/garlicdevs/csv-cleaner/pkg/models"
)

const datasetExt = ".json"

// FileStore keeps one JSON document per dataset under a directory.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, storageError(err, "failed to create catalog directory")
	}
	return &FileStore{dir: dir}, nil
}

// path escapes name so any dataset name maps to a single file.
func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, url.PathEscape(name)+datasetExt)
}

// Put writes to a temporary file and renames it over the old record.
func (s *FileStore) Put(_ context.Context, ds *models.Dataset) error {
	buf := json.GetBuffer()
	defer json.PutBuffer(buf)
	if err := json.MarshalToWriter(buf, ds, true); err != nil {
		return storageError(err, "failed to encode dataset")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(s.dir, ".dataset-*.tmp")
	if err != nil {
		return storageError(err, "failed to create dataset file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // already renamed on success

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return storageError(err, "failed to write dataset file")
	}
	if err := tmp.Close(); err != nil {
		return storageError(err, "failed to write dataset file")
	}
	if err := os.Rename(tmp.Name(), s.path(ds.Name)); err != nil {
		return storageError(err, "failed to replace dataset file")
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, name string) (*models.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(s.path(name), name)
}

func (s *FileStore) read(path, name string) (*models.Dataset, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is built from an escaped name
	if os.IsNotExist(err) {
		return nil, notFound("dataset", name)
	}
	if err != nil {
		return nil, storageError(err, "failed to read dataset file")
	}
	ds := &models.Dataset{}
	if err := json.DecodeStrict(bytes.NewReader(data), ds); err != nil {
		return nil, storageError(err, "failed to decode dataset file")
	}
	return ds, nil
}

func (s *FileStore) List(_ context.Context) ([]*models.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, storageError(err, "failed to list catalog directory")
	}
	out := make([]*models.Dataset, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != datasetExt {
			continue
		}
		name, err := url.PathUnescape(strings.TrimSuffix(e.Name(), datasetExt))
		if err != nil {
			continue
		}
		ds, err := s.read(filepath.Join(s.dir, e.Name()), name)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	sortByName(out)
	return out, nil
}

func (s *FileStore) Close() error { return nil }

// FileBlobStore keeps artifacts as files under a directory.
type FileBlobStore struct {
	dir string
}

// NewFileBlobStore creates dir if needed.
func NewFileBlobStore(dir string) (*FileBlobStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, storageError(err, "failed to resolve artifact directory")
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, storageError(err, "failed to create artifact directory")
	}
	return &FileBlobStore{dir: abs}, nil
}

func (s *FileBlobStore) path(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

func (s *FileBlobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return storageError(err, "failed to create artifact directory")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return storageError(err, "failed to write artifact")
	}
	return nil
}

func (s *FileBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, notFound("artifact", key)
	}
	if err != nil {
		return nil, storageError(err, "failed to read artifact")
	}
	return data, nil
}

func (s *FileBlobStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return storageError(err, "failed to delete artifact")
	}
	return nil
}

func (s *FileBlobStore) URL(key string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(s.path(key))}).String()
}

func (s *FileBlobStore) Close() error { return nil }
