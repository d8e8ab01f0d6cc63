// Package storage persists the household collections as JSON documents in a
// key-value store. Each collection lives under its own fixed key.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
)

// Collection keys.
const (
	KeyRoommates     = "room8_roommates"
	KeyChores        = "room8_chores"
	KeyCompletions   = "room8_completions"
	KeyExpenses      = "room8_expenses"
	KeyFridgeItems   = "fridgeItems"
	KeyCalendarItems = "room8_calendar_items"
)

// AllKeys lists every collection key.
func AllKeys() []string {
	return []string{KeyRoommates, KeyChores, KeyCompletions, KeyExpenses, KeyFridgeItems, KeyCalendarItems}
}

// IsKey reports whether key names a collection.
func IsKey(key string) bool {
	return slices.Contains(AllKeys(), key)
}

// KV is a key-value store of opaque documents.
type KV interface {
	// Get returns the document stored under key; ok is false when absent.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Put(ctx context.Context, key string, data []byte) error
	// PutMany writes all documents or none.
	PutMany(ctx context.Context, docs map[string][]byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LoadCollection decodes the collection stored under key. An absent,
// unreadable or malformed document yields an empty collection.
func LoadCollection[T any](ctx context.Context, kv KV, key string) []T {
	items, err := ReadCollection[T](ctx, kv, key)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read collection, starting empty", "key", key, "error", err)
		return []T{}
	}
	return items
}

// ReadCollection is LoadCollection for writers: a failed read is returned
// so the caller never overwrites data it could not see. Absent and
// malformed documents still decode as empty.
func ReadCollection[T any](ctx context.Context, kv KV, key string) ([]T, error) {
	data, _, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return DecodeCollection[T](ctx, key, data), nil
}

type validator interface {
	Validate() error
}

// DecodeCollection decodes a stored document. An empty or malformed
// document yields an empty collection. Records whose Validate method fails
// are logged and skipped.
func DecodeCollection[T any](ctx context.Context, key string, data []byte) []T {
	if len(data) == 0 {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		slog.WarnContext(ctx, "Malformed collection, starting empty", "key", key, "error", err)
		return []T{}
	}
	out := items[:0]
	for i, item := range items {
		if v, ok := any(item).(validator); ok {
			if err := v.Validate(); err != nil {
				slog.WarnContext(ctx, "Skipping invalid stored record", "key", key, "index", i, "error", err)
				continue
			}
		}
		out = append(out, item)
	}
	if out == nil {
		return []T{}
	}
	return out
}

// EncodeCollection serializes items for storage.
func EncodeCollection[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return data, nil
}

// SaveCollection encodes and stores items under key.
func SaveCollection[T any](ctx context.Context, kv KV, key string, items []T) error {
	data, err := EncodeCollection(items)
	if err != nil {
		return err
	}
	if err := kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
