// Package calendar projects chores onto a remote calendar.
package calendar

import (
	"context"
	"errors"
)

// ErrEventNotFound is returned when an event id is unknown to the calendar.
var ErrEventNotFound = errors.New("calendar event not found")

// Service is the remote calendar port. Implementations do not retry.
type Service interface {
	// CreateEvent stores a new event and returns its remote id.
	CreateEvent(ctx context.Context, e Event) (string, error)
	UpdateEvent(ctx context.Context, id string, e Event) error
	DeleteEvent(ctx context.Context, id string) error
}
