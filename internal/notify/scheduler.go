package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"room8/internal/core"
	"room8/internal/schedule"
)

// Scheduler keeps one in-process timer per chore and hands fired reminders
// to a Sink.
type Scheduler struct {
	sched *schedule.Scheduler
	lead  time.Duration
	sink  Sink
	now   func() time.Time

	mu     sync.Mutex
	timers map[string]pending
	gen    uint64
	closed bool
}

type pending struct {
	timer *time.Timer
	gen   uint64
}

var _ Notifier = (*Scheduler)(nil)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(sched *schedule.Scheduler, lead time.Duration, sink Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		sched:  sched,
		lead:   lead,
		sink:   sink,
		now:    time.Now,
		timers: make(map[string]pending),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule arms a timer at NextDue minus the lead. As-needed chores and
// chores already past due are not scheduled; any pending timer is dropped.
func (s *Scheduler) Schedule(ctx context.Context, c core.Chore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked(c.ID)
	if s.closed {
		return nil
	}

	due, ok := s.sched.NextDue(c)
	if !ok {
		return nil
	}
	now := s.now()
	if !due.After(now) {
		return nil
	}

	delay := max(due.Add(-s.lead).Sub(now), 0)
	reminder := Reminder{
		Kind:       KindUpcoming,
		ChoreID:    c.ID,
		ChoreName:  c.Name,
		AssignedTo: c.AssignedTo,
		DueAt:      due,
	}

	s.gen++
	gen := s.gen
	timer := time.AfterFunc(delay, func() {
		s.fire(context.WithoutCancel(ctx), gen, reminder)
	})
	s.timers[c.ID] = pending{timer: timer, gen: gen}

	slog.DebugContext(ctx, "Reminder scheduled", "chore_id", c.ID, "fire_in", delay)
	return nil
}

// Cancel drops the pending reminder for choreID, if any.
func (s *Scheduler) Cancel(_ context.Context, choreID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(choreID)
	return nil
}

// Pending reports how many reminders are armed.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending reminder; later Schedule calls are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.timers {
		s.stopLocked(id)
	}
	s.closed = true
}

func (s *Scheduler) stopLocked(choreID string) {
	if p, ok := s.timers[choreID]; ok {
		p.timer.Stop()
		delete(s.timers, choreID)
	}
}

func (s *Scheduler) fire(ctx context.Context, gen uint64, r Reminder) {
	s.mu.Lock()
	// A reschedule may have replaced this timer after it fired.
	if p, ok := s.timers[r.ChoreID]; !ok || p.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, r.ChoreID)
	s.mu.Unlock()

	r.FiredAt = s.now()
	if err := s.sink.Deliver(ctx, r); err != nil {
		slog.ErrorContext(ctx, "Failed to deliver reminder", "chore_id", r.ChoreID, "error", err)
	}
}
