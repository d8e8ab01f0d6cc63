package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"room8/internal/core"
	"room8/internal/log"
	"room8/internal/schedule"
	"room8/internal/storage"
)

func (h *Household) Chores() []core.Chore {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.state.chores)
}

func (h *Household) Chore(id string) (core.Chore, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	i := h.state.choreIndex(id)
	if i < 0 {
		return core.Chore{}, false
	}
	return h.state.chores[i], true
}

func (h *Household) AddChore(ctx context.Context, in core.ChoreInput) (core.Chore, error) {
	c, err := core.NewChore(in, h.now())
	if err != nil {
		return core.Chore{}, fmt.Errorf("add chore: %w", err)
	}

	err = h.write(ctx, []string{storage.KeyChores}, func(s *snapshot) error {
		if c.AssignedTo != "" {
			if err := s.requireRoommates(c.AssignedTo); err != nil {
				return err
			}
		}
		s.chores = append(s.chores, c)
		return nil
	})
	if err != nil {
		return core.Chore{}, fmt.Errorf("add chore: %w", err)
	}

	h.logger.InfoContext(ctx, "Chore added", "chore_id", c.ID, "chore_name", c.Name, "frequency", c.Frequency)
	h.syncChore(ctx, c)
	return c, nil
}

// UpdateChore replaces the caller-editable fields. Creation time, completion
// state and the calendar link are kept.
func (h *Household) UpdateChore(ctx context.Context, id string, in core.ChoreInput) (core.Chore, error) {
	var updated core.Chore

	err := h.write(ctx, []string{storage.KeyChores}, func(s *snapshot) error {
		i := s.choreIndex(id)
		if i < 0 {
			return fmt.Errorf("chore %s: %w", id, core.ErrNotFound)
		}
		c := s.chores[i]
		c.Name = strings.TrimSpace(in.Name)
		c.Description = strings.TrimSpace(in.Description)
		c.Frequency = in.Frequency
		c.EstimatedMinutes = cmp.Or(in.EstimatedMinutes, core.DefaultEstimatedMinutes)
		c.Priority = cmp.Or(in.Priority, core.PriorityMedium)
		c.AssignedTo = strings.TrimSpace(in.AssignedTo)
		c.ScheduledDate = in.ScheduledDate
		if err := c.Validate(); err != nil {
			return err
		}
		if c.AssignedTo != "" {
			if err := s.requireRoommates(c.AssignedTo); err != nil {
				return err
			}
		}
		s.chores[i] = c
		updated = c
		return nil
	})
	if err != nil {
		return core.Chore{}, fmt.Errorf("update chore: %w", err)
	}

	h.syncChore(ctx, updated)
	return updated, nil
}

// DeleteChore removes the chore. Its completion history is kept.
func (h *Household) DeleteChore(ctx context.Context, id string) error {
	var removed core.Chore

	err := h.write(ctx, []string{storage.KeyChores}, func(s *snapshot) error {
		i := s.choreIndex(id)
		if i < 0 {
			return fmt.Errorf("chore %s: %w", id, core.ErrNotFound)
		}
		removed = s.chores[i]
		s.chores = slices.Delete(s.chores, i, i+1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}

	h.logger.InfoContext(ctx, "Chore deleted", "chore_id", id)
	h.removeChore(ctx, removed)
	return nil
}

// AssignChore sets the assignee; an empty participantID unassigns.
func (h *Household) AssignChore(ctx context.Context, choreID, participantID string) (core.Chore, error) {
	participantID = strings.TrimSpace(participantID)
	var updated core.Chore

	err := h.write(ctx, []string{storage.KeyChores}, func(s *snapshot) error {
		i := s.choreIndex(choreID)
		if i < 0 {
			return fmt.Errorf("chore %s: %w", choreID, core.ErrNotFound)
		}
		if participantID != "" {
			if err := s.requireRoommates(participantID); err != nil {
				return err
			}
		}
		s.chores[i].AssignedTo = participantID
		updated = s.chores[i]
		return nil
	})
	if err != nil {
		return core.Chore{}, fmt.Errorf("assign chore: %w", err)
	}

	h.syncChore(ctx, updated)
	return updated, nil
}

// CompleteChore records a completion by participant `by` and advances the
// chore's last completion date. Both collections are written in one
// transaction.
func (h *Household) CompleteChore(ctx context.Context, choreID, by, notes string) (core.Chore, core.ChoreCompletion, error) {
	var (
		updated    core.Chore
		completion core.ChoreCompletion
	)
	now := h.now()

	err := h.write(ctx, []string{storage.KeyChores, storage.KeyCompletions}, func(s *snapshot) error {
		i := s.choreIndex(choreID)
		if i < 0 {
			return fmt.Errorf("chore %s: %w", choreID, core.ErrNotFound)
		}
		if err := s.requireRoommates(by); err != nil {
			return err
		}
		updated, completion = h.sched.CompleteChore(s.chores[i], by, strings.TrimSpace(notes), now)
		s.chores[i] = updated
		s.completions = append(s.completions, completion)
		return nil
	})
	if err != nil {
		return core.Chore{}, core.ChoreCompletion{}, fmt.Errorf("complete chore: %w", err)
	}

	h.metrics.ChoreCompleted()
	log.NewStructuredLogger(h.logger).LogChoreCompleted(ctx, updated.ID, updated.Name, string(updated.Frequency), by)
	h.syncChore(ctx, updated)
	return updated, completion, nil
}

// Completions returns the chore's completion history, newest first.
func (h *Household) Completions(choreID string) []core.ChoreCompletion {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []core.ChoreCompletion
	for _, c := range h.state.completions {
		if c.ChoreID == choreID {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b core.ChoreCompletion) int {
		return b.CompletedDate.Compare(a.CompletedDate)
	})
	return out
}

// SetCalendarEventID links a chore to its remote event. It does not trigger
// another sync.
func (h *Household) SetCalendarEventID(ctx context.Context, choreID, eventID string) error {
	err := h.write(ctx, []string{storage.KeyChores}, func(s *snapshot) error {
		i := s.choreIndex(choreID)
		if i < 0 {
			return fmt.Errorf("chore %s: %w", choreID, core.ErrNotFound)
		}
		s.chores[i].CalendarEventID = eventID
		return nil
	})
	if err != nil {
		return fmt.Errorf("set calendar event: %w", err)
	}
	return nil
}

func (h *Household) OverdueChores() []core.Chore {
	return h.sched.Overdue(h.Chores(), h.now())
}

func (h *Household) DueTodayChores() []core.Chore {
	return h.sched.DueToday(h.Chores(), h.now())
}

// ChoresOn returns the chores occurring on date's calendar day.
func (h *Household) ChoresOn(date time.Time) []core.Chore {
	return h.sched.OnDate(h.Chores(), date)
}

func (h *Household) ChoresAssignedTo(participantID string) []core.Chore {
	return schedule.AssignedTo(h.Chores(), participantID)
}

// Timeline covers today plus the next days (default 7 when days <= 0).
func (h *Household) Timeline(days int) []schedule.Day {
	return h.sched.Timeline(h.Chores(), h.now(), days)
}
