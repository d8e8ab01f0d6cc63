package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"room8/internal/core"
	"room8/internal/ledger"
	"room8/internal/log"
	"room8/internal/storage"
)

// ExpenseInput carries the caller-supplied fields of an expense. A zero
// Date means now.
type ExpenseInput struct {
	Title      string
	Amount     decimal.Decimal
	Category   core.Category
	PaidBy     string
	SplitAmong []string
	Date       time.Time
	Notes      string
}

// Expenses returns the expense log, newest first.
func (h *Household) Expenses() []core.Expense {
	h.mu.RLock()
	out := slices.Clone(h.state.expenses)
	h.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b core.Expense) int {
		return b.Date.Compare(a.Date)
	})
	return out
}

func (h *Household) Expense(id string) (core.Expense, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	i := slices.IndexFunc(h.state.expenses, func(e core.Expense) bool { return e.ID == id })
	if i < 0 {
		return core.Expense{}, false
	}
	return h.state.expenses[i], true
}

// AddExpense validates the expense, checks the payer and every split
// member against the roster, and appends it to the log.
func (h *Household) AddExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	date := in.Date
	if date.IsZero() {
		date = h.now()
	}
	e, err := core.NewExpense(in.Title, in.Amount, in.Category, in.PaidBy, in.SplitAmong, date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}
	e.Notes = strings.TrimSpace(in.Notes)

	err = h.write(ctx, []string{storage.KeyExpenses}, func(s *snapshot) error {
		if err := s.requireRoommates(e.PaidBy); err != nil {
			return err
		}
		if err := s.requireRoommates(e.SplitAmong...); err != nil {
			return err
		}
		s.expenses = append(s.expenses, e)
		return nil
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}

	h.metrics.ExpenseRecorded()
	log.NewStructuredLogger(h.logger).LogExpenseCreated(ctx,
		e.ID, e.Title, e.Amount.StringFixed(core.MinorUnitPlaces), string(e.Category), e.PaidBy)
	return e, nil
}

func (h *Household) DeleteExpense(ctx context.Context, id string) error {
	err := h.write(ctx, []string{storage.KeyExpenses}, func(s *snapshot) error {
		before := len(s.expenses)
		s.expenses = slices.DeleteFunc(s.expenses, func(e core.Expense) bool { return e.ID == id })
		if len(s.expenses) == before {
			return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// Balances computes every involved participant's standing, marking
// currentID.
func (h *Household) Balances(currentID string) []ledger.Balance {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return ledger.ComputeBalances(h.state.expenses, h.state.roommates, currentID)
}

func (h *Household) TotalsByCategory() map[core.Category]decimal.Decimal {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return ledger.ComputeTotalsByCategory(h.state.expenses)
}

func (h *Household) TotalExpenses() decimal.Decimal {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return ledger.ComputeTotalExpenses(h.state.expenses)
}
