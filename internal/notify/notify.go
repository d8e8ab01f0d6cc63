// Package notify schedules reminders ahead of a chore's next due time.
package notify

import (
	"context"
	"log/slog"
	"time"

	"room8/internal/core"
	"room8/internal/log"
)

// Notifier is the reminder port.
type Notifier interface {
	// Schedule arms (or re-arms) the reminder for c.
	Schedule(ctx context.Context, c core.Chore) error
	Cancel(ctx context.Context, choreID string) error
}

// Reminder kinds.
const (
	KindUpcoming = "upcoming"
	KindDueToday = "due_today"
	KindOverdue  = "overdue"
)

// Reminder is a fired notification.
type Reminder struct {
	Kind       string    `json:"kind"`
	ChoreID    string    `json:"chore_id"`
	ChoreName  string    `json:"chore_name"`
	AssignedTo string    `json:"assigned_to,omitempty"`
	DueAt      time.Time `json:"due_at"`
	FiredAt    time.Time `json:"fired_at"`
}

// Sink delivers fired reminders.
type Sink interface {
	Deliver(ctx context.Context, r Reminder) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Reminder) error

func (f SinkFunc) Deliver(ctx context.Context, r Reminder) error {
	return f(ctx, r)
}

// LogSink writes reminders to the log.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) Deliver(ctx context.Context, r Reminder) error {
	logger := s.Logger
	if logger == nil {
		logger = &log.Logger{Logger: slog.Default()}
	}
	logger.WithComponent(log.ComponentNotify).InfoContext(ctx, "Chore reminder",
		"kind", r.Kind,
		log.FieldChoreID, r.ChoreID,
		log.FieldChoreName, r.ChoreName,
		log.FieldParticipantID, r.AssignedTo,
		"due_at", r.DueAt,
	)
	return nil
}

// Nop ignores every call.
type Nop struct{}

func (Nop) Schedule(context.Context, core.Chore) error { return nil }
func (Nop) Cancel(context.Context, string) error       { return nil }
