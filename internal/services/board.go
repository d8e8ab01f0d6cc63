package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"room8/internal/core"
	"room8/internal/storage"
)

func (h *Household) FridgeItems() []core.FridgeItem {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.state.fridge)
}

func (h *Household) AddTextNote(ctx context.Context, text, author string, color core.StickyColor) (core.FridgeItem, error) {
	item, err := core.NewTextNote(text, author, color, h.now())
	if err != nil {
		return core.FridgeItem{}, fmt.Errorf("add note: %w", err)
	}
	if err := h.addFridgeItem(ctx, item); err != nil {
		return core.FridgeItem{}, err
	}
	return item, nil
}

func (h *Household) AddSticker(ctx context.Context, emoji string) (core.FridgeItem, error) {
	item, err := core.NewSticker(emoji, h.now())
	if err != nil {
		return core.FridgeItem{}, fmt.Errorf("add sticker: %w", err)
	}
	if err := h.addFridgeItem(ctx, item); err != nil {
		return core.FridgeItem{}, err
	}
	return item, nil
}

func (h *Household) addFridgeItem(ctx context.Context, item core.FridgeItem) error {
	err := h.write(ctx, []string{storage.KeyFridgeItems}, func(s *snapshot) error {
		s.fridge = append(s.fridge, item)
		return nil
	})
	if err != nil {
		return fmt.Errorf("add fridge item: %w", err)
	}
	return nil
}

func (h *Household) MoveFridgeItem(ctx context.Context, id string, pos core.Position) (core.FridgeItem, error) {
	if err := pos.Validate(); err != nil {
		return core.FridgeItem{}, fmt.Errorf("move fridge item: %w", err)
	}

	var moved core.FridgeItem
	err := h.write(ctx, []string{storage.KeyFridgeItems}, func(s *snapshot) error {
		i := slices.IndexFunc(s.fridge, func(it core.FridgeItem) bool { return it.ID == id })
		if i < 0 {
			return fmt.Errorf("fridge item %s: %w", id, core.ErrNotFound)
		}
		s.fridge[i].Position = pos
		moved = s.fridge[i]
		return nil
	})
	if err != nil {
		return core.FridgeItem{}, fmt.Errorf("move fridge item: %w", err)
	}
	return moved, nil
}

func (h *Household) DeleteFridgeItem(ctx context.Context, id string) error {
	err := h.write(ctx, []string{storage.KeyFridgeItems}, func(s *snapshot) error {
		before := len(s.fridge)
		s.fridge = slices.DeleteFunc(s.fridge, func(it core.FridgeItem) bool { return it.ID == id })
		if len(s.fridge) == before {
			return fmt.Errorf("fridge item %s: %w", id, core.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete fridge item: %w", err)
	}
	return nil
}

// CalendarItems returns the household calendar sorted by date.
func (h *Household) CalendarItems() []core.CalendarItem {
	h.mu.RLock()
	out := slices.Clone(h.state.calendarItems)
	h.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b core.CalendarItem) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

func (h *Household) AddCalendarItem(ctx context.Context, title string, typ core.CalendarItemType, date time.Time, notes string, amount *decimal.Decimal) (core.CalendarItem, error) {
	item, err := core.NewCalendarItem(title, typ, date, notes, amount)
	if err != nil {
		return core.CalendarItem{}, fmt.Errorf("add calendar item: %w", err)
	}

	err = h.write(ctx, []string{storage.KeyCalendarItems}, func(s *snapshot) error {
		s.calendarItems = append(s.calendarItems, item)
		return nil
	})
	if err != nil {
		return core.CalendarItem{}, fmt.Errorf("add calendar item: %w", err)
	}
	return item, nil
}

func (h *Household) DeleteCalendarItem(ctx context.Context, id string) error {
	err := h.write(ctx, []string{storage.KeyCalendarItems}, func(s *snapshot) error {
		before := len(s.calendarItems)
		s.calendarItems = slices.DeleteFunc(s.calendarItems, func(it core.CalendarItem) bool { return it.ID == id })
		if len(s.calendarItems) == before {
			return fmt.Errorf("calendar item %s: %w", id, core.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete calendar item: %w", err)
	}
	return nil
}
