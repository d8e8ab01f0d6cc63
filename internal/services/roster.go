package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"room8/internal/core"
	"room8/internal/storage"
)

// RoommateUpdate carries optional changes to a participant's display fields.
type RoommateUpdate struct {
	Name     *string
	Email    *string
	Color    *string
	IsActive *bool
}

func (h *Household) Roommates() []core.Participant {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.state.roommates)
}

func (h *Household) Roommate(id string) (core.Participant, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state.roommate(id)
}

func (h *Household) AddRoommate(ctx context.Context, name, email, color string) (core.Participant, error) {
	p, err := core.NewParticipant(name, email, color, h.now())
	if err != nil {
		return core.Participant{}, fmt.Errorf("add roommate: %w", err)
	}

	err = h.write(ctx, []string{storage.KeyRoommates}, func(s *snapshot) error {
		s.roommates = append(s.roommates, p)
		return nil
	})
	if err != nil {
		return core.Participant{}, fmt.Errorf("add roommate: %w", err)
	}

	h.logger.InfoContext(ctx, "Roommate added", "participant_id", p.ID, "name", p.Name)
	return p, nil
}

func (h *Household) UpdateRoommate(ctx context.Context, id string, u RoommateUpdate) (core.Participant, error) {
	var updated core.Participant
	var assigned []core.Chore

	err := h.write(ctx, []string{storage.KeyRoommates}, func(s *snapshot) error {
		i := slices.IndexFunc(s.roommates, func(p core.Participant) bool { return p.ID == id })
		if i < 0 {
			return fmt.Errorf("roommate %s: %w", id, core.ErrNotFound)
		}
		p := s.roommates[i]
		if u.Name != nil {
			p.Name = strings.TrimSpace(*u.Name)
		}
		if u.Email != nil {
			p.Email = strings.TrimSpace(*u.Email)
		}
		if u.Color != nil {
			p.Color = strings.TrimSpace(*u.Color)
			if p.Color == "" {
				p.Color = core.DefaultRoommateColor
			}
		}
		if u.IsActive != nil {
			p.IsActive = *u.IsActive
		}
		if err := p.Validate(); err != nil {
			return err
		}
		s.roommates[i] = p
		updated = p
		assigned = choresAssignedTo(s.chores, id)
		return nil
	})
	if err != nil {
		return core.Participant{}, fmt.Errorf("update roommate: %w", err)
	}

	// Names and emails appear on calendar events.
	for _, c := range assigned {
		h.syncChore(ctx, c)
	}
	return updated, nil
}

// RemoveRoommate drops the participant and clears every chore assignment
// pointing at them. Expenses keep their ids; balances fall back to the id
// as the display name.
func (h *Household) RemoveRoommate(ctx context.Context, id string) error {
	var unassigned []core.Chore

	err := h.write(ctx, []string{storage.KeyRoommates, storage.KeyChores}, func(s *snapshot) error {
		before := len(s.roommates)
		s.roommates = slices.DeleteFunc(s.roommates, func(p core.Participant) bool { return p.ID == id })
		if len(s.roommates) == before {
			return fmt.Errorf("roommate %s: %w", id, core.ErrNotFound)
		}
		for i := range s.chores {
			if s.chores[i].AssignedTo == id {
				s.chores[i].AssignedTo = ""
				unassigned = append(unassigned, s.chores[i])
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove roommate: %w", err)
	}

	h.logger.InfoContext(ctx, "Roommate removed", "participant_id", id, "unassigned_chores", len(unassigned))
	for _, c := range unassigned {
		h.syncChore(ctx, c)
	}
	return nil
}

func choresAssignedTo(chores []core.Chore, id string) []core.Chore {
	var out []core.Chore
	for _, c := range chores {
		if c.AssignedTo == id {
			out = append(out, c)
		}
	}
	return out
}
