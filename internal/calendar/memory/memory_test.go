package memory

import (
	"context"
	"errors"
	"testing"

	"room8/internal/calendar"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.CreateEvent(ctx, calendar.Event{Title: "Trash", ChoreID: "c1", Attendees: []string{"a@example.com"}})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if id != "room8_c1" {
		t.Errorf("id = %s, want room8_c1", id)
	}

	if err := s.UpdateEvent(ctx, id, calendar.Event{Title: "Trash & recycling", ChoreID: "c1"}); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	got, ok := s.Event(id)
	if !ok || got.Title != "Trash & recycling" {
		t.Errorf("Event() = %+v, %v", got, ok)
	}

	if err := s.DeleteEvent(ctx, id); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after delete", s.Len())
	}
}

func TestStoreUnknownIDs(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.UpdateEvent(ctx, "nope", calendar.Event{}); !errors.Is(err, calendar.ErrEventNotFound) {
		t.Errorf("UpdateEvent err = %v", err)
	}
	if err := s.DeleteEvent(ctx, "nope"); !errors.Is(err, calendar.ErrEventNotFound) {
		t.Errorf("DeleteEvent err = %v", err)
	}
}

func TestStoreDuplicateChoreGetsDistinctID(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, _ := s.CreateEvent(ctx, calendar.Event{ChoreID: "c1"})
	second, _ := s.CreateEvent(ctx, calendar.Event{ChoreID: "c1"})
	if first == second {
		t.Fatalf("both events got id %s", first)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestStoreFailWith(t *testing.T) {
	boom := errors.New("calendar down")
	s := New()
	s.FailWith(boom)

	if _, err := s.CreateEvent(context.Background(), calendar.Event{ChoreID: "c1"}); !errors.Is(err, boom) {
		t.Errorf("CreateEvent err = %v, want %v", err, boom)
	}

	s.FailWith(nil)
	if _, err := s.CreateEvent(context.Background(), calendar.Event{ChoreID: "c1"}); err != nil {
		t.Errorf("CreateEvent after reset: %v", err)
	}
}

func TestStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().CreateEvent(ctx, calendar.Event{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
