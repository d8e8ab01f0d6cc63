package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"room8/internal/core"
	"room8/internal/ledger"
	"room8/internal/log"
	"room8/internal/services"
)

type expenseRequest struct {
	Title      string      `json:"title"`
	Amount     amountField `json:"amount"`
	Category   string      `json:"category"`
	PaidBy     string      `json:"paidBy"`
	SplitAmong []string    `json:"splitAmong"`
	Date       *string     `json:"date"`
	Notes      string      `json:"notes"`
}

type balancesView struct {
	Balances    []ledger.Balance    `json:"balances"`
	Settlements []ledger.Settlement `json:"settlements"`
	Total       decimal.Decimal     `json:"total"`
}

type totalsView struct {
	Categories []ledger.CategoryTotal `json:"categories"`
	Total      decimal.Decimal        `json:"total"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(nonNil(s.household.Expenses())).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, ok := s.household.Expense(id)
	if !ok {
		writeError(w, r, fmt.Errorf("expense %s: %w", id, core.ErrNotFound), log.OpRead)
		return
	}
	NewJSONResponse().Data(e).Write(w)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}

	amount, err := req.Amount.Decimal()
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	date, err := optionalTimestamp("date", req.Date, s.household.Scheduler().Location())
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}

	in := services.ExpenseInput{
		Title:      sanitizeInput(req.Title),
		Amount:     amount,
		Category:   category,
		PaidBy:     sanitizeInput(req.PaidBy),
		SplitAmong: sanitizeAll(req.SplitAmong),
		Notes:      sanitizeInput(req.Notes),
	}
	if date != nil {
		in.Date = *date
	}

	e, err := s.household.AddExpense(r.Context(), in)
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	Created(e).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.household.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, log.OpDelete)
		return
	}
	NoContent().Write(w)
}

// handleBalances marks ?current=<roommate id> in the result and suggests
// the transfers that settle every balance.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	current := strings.TrimSpace(r.URL.Query().Get("current"))
	key := s.revisionKey(current)
	if view, ok := s.balancesCache.Get(key); ok {
		NewJSONResponse().Data(view).Write(w)
		return
	}

	balances := s.household.Balances(current)
	view := balancesView{
		Balances:    nonNil(balances),
		Settlements: nonNil(ledger.SuggestSettlements(balances)),
		Total:       s.household.TotalExpenses(),
	}
	s.balancesCache.Set(key, view)
	NewJSONResponse().Data(view).Write(w)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	key := s.revisionKey()
	if view, ok := s.totalsCache.Get(key); ok {
		NewJSONResponse().Data(view).Write(w)
		return
	}

	view := totalsView{
		Categories: nonNil(ledger.SortedCategoryTotals(s.household.TotalsByCategory())),
		Total:      s.household.TotalExpenses(),
	}
	s.totalsCache.Set(key, view)
	NewJSONResponse().Data(view).Write(w)
}
