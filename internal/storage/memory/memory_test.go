package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"room8/internal/storage"
)

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, ok, err := s.Get(ctx, storage.KeyChores); ok || err != nil {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := s.PutMany(ctx, map[string][]byte{
		storage.KeyChores:      []byte(`[]`),
		storage.KeyCompletions: []byte(`[{"id":"x"}]`),
	}); err != nil {
		t.Fatalf("PutMany: %v", err)
	}
	data, ok, err := s.Get(ctx, storage.KeyCompletions)
	if err != nil || !ok || string(data) != `[{"id":"x"}]` {
		t.Fatalf("unexpected get: %q ok=%v err=%v", data, ok, err)
	}

	// Returned slices are copies.
	data[0] = 'X'
	again, _, _ := s.Get(ctx, storage.KeyCompletions)
	if again[0] != '[' {
		t.Fatal("store leaked its internal buffer")
	}

	if err := s.Delete(ctx, storage.KeyChores); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	if s.Len() != 0 {
		t.Fatalf("expected empty store when no seed files exist")
	}

	seed := `[{"id":"r1","name":"Ana","color":"Blue","joinDate":"2025-01-01T00:00:00Z","isActive":true}]`
	if err := os.WriteFile(filepath.Join(dir, storage.KeyRoommates+".json"), []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s = NewFromFiles(dir)
	data, ok, _ := s.Get(context.Background(), storage.KeyRoommates)
	if !ok || string(data) != seed {
		t.Fatalf("seed not loaded: %q", data)
	}
}
