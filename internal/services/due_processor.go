package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"room8/internal/core"
	"room8/internal/metrics"
	"room8/internal/notify"
	"room8/internal/schedule"
)

// DueProcessor emits one reminder per chore per day for chores that are
// overdue or due today.
type DueProcessor struct {
	household *Household
	sink      notify.Sink
	metrics   *metrics.Metrics

	// sent maps chore id to the day (YYYY-MM-DD) it was last reminded.
	sent map[string]string
}

func NewDueProcessor(household *Household, sink notify.Sink, m *metrics.Metrics) *DueProcessor {
	return &DueProcessor{
		household: household,
		sink:      sink,
		metrics:   m,
		sent:      make(map[string]string),
	}
}

// ProcessDueChores reloads the household and delivers reminders for chores
// not yet reminded on now's day. It returns how many were delivered.
// Delivery failures are logged and retried on the next run.
func (p *DueProcessor) ProcessDueChores(ctx context.Context, now time.Time) (int, error) {
	if p.household == nil || p.sink == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	if err := p.household.Reload(ctx); err != nil {
		return 0, fmt.Errorf("reload household: %w", err)
	}

	sched := p.household.Scheduler()
	today := sched.StartOfDay(now).Format(time.DateOnly)
	chores := p.household.Chores()

	p.prune(chores, today)

	delivered, checked := 0, 0
	for _, c := range chores {
		kind := dueKind(sched, c, now)
		if kind == "" {
			continue
		}
		checked++
		if p.sent[c.ID] == today {
			continue
		}

		r := notify.Reminder{
			Kind:       kind,
			ChoreID:    c.ID,
			ChoreName:  c.Name,
			AssignedTo: c.AssignedTo,
			DueAt:      dueAt(sched, c),
			FiredAt:    now,
		}
		err := p.sink.Deliver(ctx, r)
		p.metrics.ObserveReminder(kind, err)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to deliver chore reminder",
				"chore_id", c.ID,
				"kind", kind,
				"error", err)
			continue
		}

		p.sent[c.ID] = today
		delivered++
	}

	slog.InfoContext(ctx, "Due chore processing complete",
		"delivered", delivered,
		"due", checked,
		"total_checked", len(chores))
	return delivered, nil
}

// prune forgets deleted chores and earlier days.
func (p *DueProcessor) prune(chores []core.Chore, today string) {
	live := make(map[string]struct{}, len(chores))
	for _, c := range chores {
		live[c.ID] = struct{}{}
	}
	for id, day := range p.sent {
		if _, ok := live[id]; !ok || day != today {
			delete(p.sent, id)
		}
	}
}

// dueKind classifies c at now; overdue wins over due today.
func dueKind(sched *schedule.Scheduler, c core.Chore, now time.Time) string {
	switch {
	case sched.IsOverdue(c, now):
		return notify.KindOverdue
	case sched.IsDueToday(c, now):
		return notify.KindDueToday
	default:
		return ""
	}
}

func dueAt(sched *schedule.Scheduler, c core.Chore) time.Time {
	if next, ok := sched.NextDue(c); ok {
		return next
	}
	return c.CreatedDate.Add(schedule.NeverCompletedGrace)
}
