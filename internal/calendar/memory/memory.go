// Package memory is an in-process calendar used by tests and by
// deployments without a remote calendar.
package memory

import (
	"context"
	"fmt"
	"sync"

	"room8/internal/calendar"
)

// Store records events in a map. Ids follow room8_<choreID>, with a
// counter suffix when a chore already has an event.
type Store struct {
	mu     sync.Mutex
	events map[string]calendar.Event
	seq    int
	fail   error
}

var _ calendar.Service = (*Store)(nil)

func New() *Store {
	return &Store{events: make(map[string]calendar.Event)}
}

// FailWith makes every later call return err; nil restores normal behavior.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *Store) CreateEvent(ctx context.Context, e calendar.Event) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}

	id := "room8_" + e.ChoreID
	if _, exists := s.events[id]; exists || e.ChoreID == "" {
		s.seq++
		id = fmt.Sprintf("%s_%d", id, s.seq)
	}
	s.events[id] = clone(e)
	return id, nil
}

func (s *Store) UpdateEvent(ctx context.Context, id string, e calendar.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("update %s: %w", id, calendar.ErrEventNotFound)
	}
	s.events[id] = clone(e)
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, calendar.ErrEventNotFound)
	}
	delete(s.events, id)
	return nil
}

// Event returns the stored event for id.
func (s *Store) Event(id string) (calendar.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	return clone(e), ok
}

// Len reports how many events are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func clone(e calendar.Event) calendar.Event {
	if e.Attendees != nil {
		e.Attendees = append([]string(nil), e.Attendees...)
	}
	return e
}
