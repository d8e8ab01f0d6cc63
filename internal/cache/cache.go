// Package cache holds short-lived caches of derived household views, such
// as balances and the chore timeline. Keys embed the household revision, so
// a write naturally makes older entries unreachable until they expire.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

var _ Cache[int] = (*LRUCache[int])(nil)

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps expired entries from registered caches.
type Manager struct {
	mu       sync.Mutex
	caches   []Cleaner
	started  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewManager() *Manager {
	return &Manager{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanAll(); n > 0 {
				slog.Debug("Expired cache entries removed", "count", n)
			}
		case <-m.stop:
			return
		}
	}
}

// CleanAll sweeps every registered cache once.
func (m *Manager) CleanAll() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the cleanup routine started by StartCleanup. It is safe to call
// more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		close(m.stop)
		if started {
			<-m.done
		}
	})
}
