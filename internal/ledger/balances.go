// Package ledger derives balances and totals from the shared expense log.
//
// Nothing here is stored: every value is recomputed from the expenses
// passed in, and inputs are never modified.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"room8/internal/core"
)

// Balance is one participant's net position across all expenses.
// Net is positive when the others owe them money.
type Balance struct {
	ParticipantID string          `json:"participantId"`
	Name          string          `json:"name"`
	TotalPaid     decimal.Decimal `json:"totalPaid"`
	TotalShare    decimal.Decimal `json:"totalShare"`
	Net           decimal.Decimal `json:"net"`
	IsCurrent     bool            `json:"isCurrent"`
}

// Settlement is a single transfer that moves From's debt to To.
type Settlement struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// ComputeBalances returns one entry per participant appearing in any
// expense, as payer or split member. Entries are ordered by descending
// absolute net balance, then by name and id. The nets always sum to zero.
func ComputeBalances(expenses []core.Expense, participants []core.Participant, currentParticipantID string) []Balance {
	names := make(map[string]string, len(participants))
	for _, p := range participants {
		names[p.ID] = p.Name
	}

	byID := make(map[string]*Balance)
	entry := func(id string) *Balance {
		b, ok := byID[id]
		if !ok {
			name, known := names[id]
			if !known {
				name = id
			}
			b = &Balance{
				ParticipantID: id,
				Name:          name,
				TotalPaid:     decimal.Zero,
				TotalShare:    decimal.Zero,
				IsCurrent:     id == currentParticipantID,
			}
			byID[id] = b
		}
		return b
	}

	for _, e := range expenses {
		payer := entry(e.PaidBy)
		payer.TotalPaid = payer.TotalPaid.Add(e.Amount)
		for id, share := range e.Shares() {
			b := entry(id)
			b.TotalShare = b.TotalShare.Add(share)
		}
	}

	out := make([]Balance, 0, len(byID))
	for _, b := range byID {
		b.Net = b.TotalPaid.Sub(b.TotalShare)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Net.Abs().Cmp(out[j].Net.Abs()); c != 0 {
			return c > 0
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out
}

// SuggestSettlements pairs the largest debtor with the largest creditor
// until every balance is zero. Amounts are exact, so the transfers cancel
// the balances without residue.
func SuggestSettlements(balances []Balance) []Settlement {
	type position struct {
		id     string
		amount decimal.Decimal
	}
	var debtors, creditors []position
	for _, b := range balances {
		switch b.Net.Sign() {
		case -1:
			debtors = append(debtors, position{b.ParticipantID, b.Net.Neg()})
		case 1:
			creditors = append(creditors, position{b.ParticipantID, b.Net})
		}
	}
	byAmount := func(ps []position) {
		sort.SliceStable(ps, func(i, j int) bool {
			if c := ps[i].amount.Cmp(ps[j].amount); c != 0 {
				return c > 0
			}
			return ps[i].id < ps[j].id
		})
	}
	byAmount(debtors)
	byAmount(creditors)

	var out []Settlement
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amt := decimal.Min(debtors[i].amount, creditors[j].amount)
		out = append(out, Settlement{From: debtors[i].id, To: creditors[j].id, Amount: amt})

		debtors[i].amount = debtors[i].amount.Sub(amt)
		creditors[j].amount = creditors[j].amount.Sub(amt)
		if debtors[i].amount.IsZero() {
			i++
		}
		if creditors[j].amount.IsZero() {
			j++
		}
	}
	return out
}
