// Package services holds the household application shell: the canonical
// collections, their persistence, and dispatch to collaborators.
package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"room8/internal/core"
	"room8/internal/log"
	"room8/internal/metrics"
	"room8/internal/schedule"
	"room8/internal/storage"
)

// Household owns roommates, chores, completions, expenses, fridge items and
// calendar items. Reads are served from an in-memory snapshot. Every write
// re-reads the collections it touches, applies the change to a copy,
// persists all touched collections in one PutMany and only then publishes
// the copy, so a failed write leaves the snapshot untouched.
type Household struct {
	kv      storage.KV
	sched   *schedule.Scheduler
	syncer  ChoreSyncer
	metrics *metrics.Metrics
	logger  *log.Logger
	now     func() time.Time

	mu       sync.RWMutex
	state    snapshot
	revision uint64
	// digests fingerprints the stored document each collection was last
	// read from or written as.
	digests map[string][sha256.Size]byte
}

type snapshot struct {
	roommates     []core.Participant
	chores        []core.Chore
	completions   []core.ChoreCompletion
	expenses      []core.Expense
	fridge        []core.FridgeItem
	calendarItems []core.CalendarItem
}

// Option configures a Household.
type Option func(*Household)

func WithSyncer(s ChoreSyncer) Option {
	return func(h *Household) { h.syncer = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Household) { h.metrics = m }
}

func WithLogger(l *log.Logger) Option {
	return func(h *Household) { h.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Household) { h.now = now }
}

func NewHousehold(kv storage.KV, sched *schedule.Scheduler, opts ...Option) *Household {
	h := &Household{
		kv:      kv,
		sched:   sched,
		syncer:  NopSyncer{},
		logger:  log.New(log.Config{Component: log.ComponentHousehold, Handler: slog.Default().Handler()}),
		now:     time.Now,
		state:   emptySnapshot(),
		digests: make(map[string][sha256.Size]byte),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithComponent(log.ComponentHousehold)
	return h
}

func emptySnapshot() snapshot {
	return snapshot{
		roommates:     []core.Participant{},
		chores:        []core.Chore{},
		completions:   []core.ChoreCompletion{},
		expenses:      []core.Expense{},
		fridge:        []core.FridgeItem{},
		calendarItems: []core.CalendarItem{},
	}
}

// Load replaces the snapshot with what the store holds. Unreadable
// collections load as empty.
func (h *Household) Load(ctx context.Context) {
	next := emptySnapshot()
	digests := make(map[string][sha256.Size]byte, len(storage.AllKeys()))
	for _, key := range storage.AllKeys() {
		data, _, err := h.kv.Get(ctx, key)
		if err != nil {
			h.logger.WarnContext(ctx, "Failed to read collection, starting empty", "key", key, log.FieldError, err)
			continue
		}
		next.decode(ctx, key, data)
		digests[key] = sha256.Sum256(data)
	}

	h.mu.Lock()
	h.state = next
	h.digests = digests
	h.revision++
	h.mu.Unlock()

	h.logger.InfoContext(ctx, "Household loaded",
		"roommates", len(next.roommates),
		"chores", len(next.chores),
		"expenses", len(next.expenses))
}

// Scheduler returns the chore scheduler in use.
func (h *Household) Scheduler() *schedule.Scheduler {
	return h.sched
}

// Now returns the household clock's current time.
func (h *Household) Now() time.Time {
	return h.now()
}

// Revision increases on every successful write.
func (h *Household) Revision() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.revision
}

// write runs fn against a fresh copy of the named collections and persists
// them atomically before publishing the copy.
func (h *Household) write(ctx context.Context, keys []string, fn func(*snapshot) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Re-read what fn touches so writes made by other processes sharing the
	// store are not clobbered. Decoding yields new slices, which also keeps
	// fn's in-place edits off the published snapshot.
	stored, err := h.fetch(ctx, keys)
	if err != nil {
		return err
	}
	next := h.state
	for key, data := range stored {
		next.decode(ctx, key, data)
	}
	if err := fn(&next); err != nil {
		return err
	}

	docs := make(map[string][]byte, len(keys))
	for _, key := range keys {
		data, err := next.encode(key)
		if err != nil {
			return err
		}
		docs[key] = data
	}
	if err := h.kv.PutMany(ctx, docs); err != nil {
		return fmt.Errorf("persist %v: %w", keys, err)
	}

	h.state = next
	for key, data := range docs {
		h.digests[key] = sha256.Sum256(data)
	}
	h.revision++
	return nil
}

// fetch reads the raw documents stored under keys. Absent documents are nil.
func (h *Household) fetch(ctx context.Context, keys []string) (map[string][]byte, error) {
	docs := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if !storage.IsKey(key) {
			return nil, fmt.Errorf("unknown collection %q", key)
		}
		data, _, err := h.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		docs[key] = data
	}
	return docs, nil
}

// Reload refreshes the snapshot from the store, picking up writes made by
// other processes such as event ids or completions. Only collections whose
// stored document changed are decoded, and the revision moves only when one
// did. Unlike Load it fails on read errors.
func (h *Household) Reload(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	stored, err := h.fetch(ctx, storage.AllKeys())
	if err != nil {
		return err
	}
	next := h.state
	var changed []string
	for key, data := range stored {
		sum := sha256.Sum256(data)
		if prev, ok := h.digests[key]; ok && prev == sum {
			continue
		}
		next.decode(ctx, key, data)
		h.digests[key] = sum
		changed = append(changed, key)
	}
	if len(changed) == 0 {
		return nil
	}

	h.state = next
	h.revision++
	h.logger.DebugContext(ctx, "Household reloaded", "collections", changed)
	return nil
}

// Watch reloads the household every interval until ctx is done, so reads
// see writes made by other processes sharing the store.
func (h *Household) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.Reload(ctx); err != nil {
				h.logger.WarnContext(ctx, "Household reload failed", log.FieldError, err)
			}
		}
	}
}

// decode replaces the collection stored under key with data.
func (s *snapshot) decode(ctx context.Context, key string, data []byte) {
	switch key {
	case storage.KeyRoommates:
		s.roommates = storage.DecodeCollection[core.Participant](ctx, key, data)
	case storage.KeyChores:
		s.chores = storage.DecodeCollection[core.Chore](ctx, key, data)
	case storage.KeyCompletions:
		s.completions = storage.DecodeCollection[core.ChoreCompletion](ctx, key, data)
	case storage.KeyExpenses:
		s.expenses = storage.DecodeCollection[core.Expense](ctx, key, data)
	case storage.KeyFridgeItems:
		s.fridge = storage.DecodeCollection[core.FridgeItem](ctx, key, data)
	case storage.KeyCalendarItems:
		s.calendarItems = storage.DecodeCollection[core.CalendarItem](ctx, key, data)
	}
}

func (s *snapshot) encode(key string) ([]byte, error) {
	switch key {
	case storage.KeyRoommates:
		return storage.EncodeCollection(s.roommates)
	case storage.KeyChores:
		return storage.EncodeCollection(s.chores)
	case storage.KeyCompletions:
		return storage.EncodeCollection(s.completions)
	case storage.KeyExpenses:
		return storage.EncodeCollection(s.expenses)
	case storage.KeyFridgeItems:
		return storage.EncodeCollection(s.fridge)
	case storage.KeyCalendarItems:
		return storage.EncodeCollection(s.calendarItems)
	default:
		return nil, fmt.Errorf("unknown collection %q", key)
	}
}

// ClearAll deletes every collection from the store and empties the snapshot.
func (h *Household) ClearAll(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, key := range storage.AllKeys() {
		if err := h.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	h.state = emptySnapshot()
	for _, key := range storage.AllKeys() {
		h.digests[key] = sha256.Sum256(nil)
	}
	h.revision++
	h.logger.WarnContext(ctx, "All household data cleared")
	return nil
}

func (s *snapshot) roommate(id string) (core.Participant, bool) {
	i := slices.IndexFunc(s.roommates, func(p core.Participant) bool { return p.ID == id })
	if i < 0 {
		return core.Participant{}, false
	}
	return s.roommates[i], true
}

func (s *snapshot) choreIndex(id string) int {
	return slices.IndexFunc(s.chores, func(c core.Chore) bool { return c.ID == id })
}

func (s *snapshot) requireRoommates(ids ...string) error {
	for _, id := range ids {
		if _, ok := s.roommate(id); !ok {
			return fmt.Errorf("%w: %s", core.ErrUnknownParticipant, id)
		}
	}
	return nil
}
