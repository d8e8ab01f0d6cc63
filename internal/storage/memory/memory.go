// Package memory provides an in-process KV used by tests and the memory
// backend.
package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"room8/internal/storage"
)

type Store struct {
	mu   sync.Mutex
	docs map[string][]byte
}

var _ storage.KV = (*Store)(nil)

func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// NewFromFiles seeds the store with <key>.json files found in base.
// Missing files are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	for _, key := range storage.AllKeys() {
		data, err := os.ReadFile(filepath.Join(base, key+".json"))
		if err != nil {
			continue
		}
		s.docs[key] = data
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (s *Store) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte(nil), data...)
	return nil
}

func (s *Store) PutMany(_ context.Context, docs map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, data := range docs {
		s.docs[key] = append([]byte(nil), data...)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}

func (s *Store) Close() error { return nil }

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
