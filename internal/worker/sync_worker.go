package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"room8/internal/amqp"
	"room8/internal/calendar"
	"room8/internal/core"
	"room8/internal/metrics"
	"room8/internal/notify"
	"room8/internal/services"
)

// SyncWorker mirrors chores onto the remote calendar and the reminder
// scheduler. Either collaborator may be nil, in which case it is skipped.
type SyncWorker struct {
	household   *services.Household
	calendar    calendar.Service
	notifier    notify.Notifier
	metrics     *metrics.Metrics
	concurrency int
}

var _ services.ChoreSyncer = (*SyncWorker)(nil)

func NewSyncWorker(household *services.Household, cal calendar.Service, notifier notify.Notifier, m *metrics.Metrics, concurrency int) *SyncWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SyncWorker{
		household:   household,
		calendar:    cal,
		notifier:    notifier,
		metrics:     m,
		concurrency: concurrency,
	}
}

// HandleChoreSync processes a single chore sync message from AMQP. The
// household is reloaded first since the message was produced by another
// process.
func (w *SyncWorker) HandleChoreSync(ctx context.Context, msg *amqp.ChoreSyncMessage) error {
	slog.InfoContext(ctx, "Processing chore sync message",
		"chore_id", msg.ChoreID,
		"action", msg.Action)

	if err := w.household.Reload(ctx); err != nil {
		return fmt.Errorf("reload household: %w", err)
	}

	switch msg.Action {
	case amqp.ActionUpsert:
		return w.SyncChore(ctx, msg.ChoreID)
	case amqp.ActionDelete:
		return w.RemoveChore(ctx, msg.ChoreID, msg.EventID)
	default:
		return fmt.Errorf("unknown sync action %q", msg.Action)
	}
}

// errChoreDeleted reports a chore deleted while its event was being created.
var errChoreDeleted = errors.New("chore deleted during sync")

// SyncChore creates or updates the chore's calendar event, stores the
// event id and re-arms its reminder. A chore that no longer exists is
// skipped.
func (w *SyncWorker) SyncChore(ctx context.Context, choreID string) error {
	chore, ok := w.household.Chore(choreID)
	if !ok {
		slog.WarnContext(ctx, "Chore vanished before sync, skipping", "chore_id", choreID)
		return nil
	}

	err := w.upsertEvent(ctx, chore)
	if errors.Is(err, errChoreDeleted) {
		w.metrics.ObserveSync("upsert", nil)
		return nil
	}
	w.metrics.ObserveSync("upsert", err)
	if err != nil {
		return err
	}

	if w.notifier != nil {
		if err := w.notifier.Schedule(ctx, chore); err != nil {
			slog.ErrorContext(ctx, "Failed to schedule reminder", "chore_id", choreID, "error", err)
		}
	}
	return nil
}

func (w *SyncWorker) upsertEvent(ctx context.Context, chore core.Chore) error {
	if w.calendar == nil {
		return nil
	}

	var assignee *core.Participant
	if chore.IsAssigned() {
		if p, ok := w.household.Roommate(chore.AssignedTo); ok {
			assignee = &p
		}
	}
	event := calendar.FromChore(chore, assignee)

	if chore.CalendarEventID != "" {
		err := w.calendar.UpdateEvent(ctx, chore.CalendarEventID, event)
		if err == nil {
			slog.InfoContext(ctx, "Calendar event updated",
				"chore_id", chore.ID,
				"event_id", chore.CalendarEventID)
			return nil
		}
		if !errors.Is(err, calendar.ErrEventNotFound) {
			return fmt.Errorf("update calendar event: %w", err)
		}
		slog.WarnContext(ctx, "Calendar event missing remotely, recreating",
			"chore_id", chore.ID,
			"event_id", chore.CalendarEventID)
	}

	id, err := w.calendar.CreateEvent(ctx, event)
	if err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	if err := w.household.SetCalendarEventID(ctx, chore.ID, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Deleted while the event was being created; its removal
			// carried no event id.
			slog.WarnContext(ctx, "Chore deleted during sync, removing new event",
				"chore_id", chore.ID,
				"event_id", id)
			if err := w.calendar.DeleteEvent(ctx, id); err != nil && !errors.Is(err, calendar.ErrEventNotFound) {
				return fmt.Errorf("delete orphaned calendar event: %w", err)
			}
			return errChoreDeleted
		}
		// The event exists but is not linked; the next reconcile creates
		// another one.
		return fmt.Errorf("store calendar event id: %w", err)
	}

	slog.InfoContext(ctx, "Calendar event created",
		"chore_id", chore.ID,
		"event_id", id)
	return nil
}

// RemoveChore deletes the chore's calendar event and cancels its reminder.
// An event already gone remotely counts as removed.
func (w *SyncWorker) RemoveChore(ctx context.Context, choreID, eventID string) error {
	if w.notifier != nil {
		if err := w.notifier.Cancel(ctx, choreID); err != nil {
			slog.ErrorContext(ctx, "Failed to cancel reminder", "chore_id", choreID, "error", err)
		}
	}

	if w.calendar == nil || eventID == "" {
		return nil
	}

	err := w.calendar.DeleteEvent(ctx, eventID)
	if errors.Is(err, calendar.ErrEventNotFound) {
		err = nil
	}
	w.metrics.ObserveSync("delete", err)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}

	slog.InfoContext(ctx, "Calendar event deleted",
		"chore_id", choreID,
		"event_id", eventID)
	return nil
}

// Reconcile is the backup path for lost messages: it creates events for
// every chore lacking one and re-arms every reminder. It returns how many
// events were created; per-chore failures are joined into the error.
func (w *SyncWorker) Reconcile(ctx context.Context) (int, error) {
	if err := w.household.Reload(ctx); err != nil {
		return 0, fmt.Errorf("reload household: %w", err)
	}

	chores := w.household.Chores()

	var (
		created atomic.Int32
		mu      sync.Mutex
		errs    []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, chore := range chores {
		if chore.CalendarEventID != "" || w.calendar == nil {
			if w.notifier != nil {
				if err := w.notifier.Schedule(ctx, chore); err != nil {
					slog.ErrorContext(ctx, "Failed to schedule reminder", "chore_id", chore.ID, "error", err)
				}
			}
			continue
		}

		g.Go(func() error {
			if err := w.SyncChore(gctx, chore.ID); err != nil {
				slog.ErrorContext(gctx, "Failed to reconcile chore", "chore_id", chore.ID, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("chore %s: %w", chore.ID, err))
				mu.Unlock()
				return nil
			}
			created.Add(1)
			return nil
		})
	}

	_ = g.Wait()

	slog.InfoContext(ctx, "Calendar reconciliation completed",
		"total", len(chores),
		"created", created.Load(),
		"errors", len(errs))

	return int(created.Load()), errors.Join(errs...)
}
