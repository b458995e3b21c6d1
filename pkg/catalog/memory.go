package catalog

import (
	"context"
	"sync"

	"github.com/garlicdevs/csv-cleaner/pkg/models"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]*models.Dataset
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{datasets: make(map[string]*models.Dataset)}
}

func (s *MemoryStore) Put(_ context.Context, ds *models.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[ds.Name] = ds.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (*models.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[name]
	if !ok {
		return nil, notFound("dataset", name)
	}
	return ds.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*models.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds.Clone())
	}
	sortByName(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// MemoryBlobStore keeps artifacts in process memory.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryBlobStore creates an empty blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, notFound("artifact", key)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryBlobStore) URL(key string) string { return "memory://" + key }

func (s *MemoryBlobStore) Close() error { return nil }
