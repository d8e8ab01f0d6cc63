package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"room8/internal/amqp"
	"room8/internal/core"
)

// ChoreSyncer mirrors chore changes to the calendar and reminder
// collaborators.
type ChoreSyncer interface {
	// SyncChore creates or updates everything derived from the chore.
	SyncChore(ctx context.Context, choreID string) error
	// RemoveChore tears down what was derived from a deleted chore.
	RemoveChore(ctx context.Context, choreID, eventID string) error
}

// NopSyncer drops every request.
type NopSyncer struct{}

func (NopSyncer) SyncChore(context.Context, string) error           { return nil }
func (NopSyncer) RemoveChore(context.Context, string, string) error { return nil }

// ChorePublisher is the slice of the AMQP client the syncer needs.
type ChorePublisher interface {
	PublishChoreSync(ctx context.Context, choreID string, action amqp.SyncAction, eventID string) error
}

// AMQPSyncer hands sync requests to the worker over the broker.
type AMQPSyncer struct {
	pub ChorePublisher
}

func NewAMQPSyncer(pub ChorePublisher) *AMQPSyncer {
	return &AMQPSyncer{pub: pub}
}

func (s *AMQPSyncer) SyncChore(ctx context.Context, choreID string) error {
	return s.pub.PublishChoreSync(ctx, choreID, amqp.ActionUpsert, "")
}

func (s *AMQPSyncer) RemoveChore(ctx context.Context, choreID, eventID string) error {
	return s.pub.PublishChoreSync(ctx, choreID, amqp.ActionDelete, eventID)
}

// DirectSyncer runs another syncer in the background, detached from the
// caller's cancellation and bounded by a timeout.
type DirectSyncer struct {
	target  ChoreSyncer
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDirectSyncer(target ChoreSyncer, timeout time.Duration) *DirectSyncer {
	return &DirectSyncer{target: target, timeout: timeout}
}

func (d *DirectSyncer) SyncChore(ctx context.Context, choreID string) error {
	d.run(ctx, "upsert", choreID, func(ctx context.Context) error {
		return d.target.SyncChore(ctx, choreID)
	})
	return nil
}

func (d *DirectSyncer) RemoveChore(ctx context.Context, choreID, eventID string) error {
	d.run(ctx, "delete", choreID, func(ctx context.Context) error {
		return d.target.RemoveChore(ctx, choreID, eventID)
	})
	return nil
}

func (d *DirectSyncer) run(ctx context.Context, action, choreID string, fn func(context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			slog.ErrorContext(ctx, "Background chore sync failed", "action", action, "chore_id", choreID, "error", err)
		}
	}()
}

// Wait blocks until every background sync has finished.
func (d *DirectSyncer) Wait() {
	d.wg.Wait()
}

// SetSyncer replaces the chore syncer. It lets a syncer that reads from the
// household be wired after construction.
func (h *Household) SetSyncer(s ChoreSyncer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.syncer = s
}

func (h *Household) currentSyncer() ChoreSyncer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.syncer
}

// syncChore dispatches an upsert. Failures are logged and counted, never
// returned: the chore change is already persisted.
func (h *Household) syncChore(ctx context.Context, c core.Chore) {
	err := h.currentSyncer().SyncChore(ctx, c.ID)
	h.metrics.ObserveSync("dispatch_upsert", err)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to dispatch chore sync", "chore_id", c.ID, "error", err)
	}
}

func (h *Household) removeChore(ctx context.Context, c core.Chore) {
	err := h.currentSyncer().RemoveChore(ctx, c.ID, c.CalendarEventID)
	h.metrics.ObserveSync("dispatch_delete", err)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to dispatch chore removal", "chore_id", c.ID, "error", err)
	}
}
