package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"room8/internal/core"
)

// CategoryTotal is an amount aggregated by expense category.
type CategoryTotal struct {
	Category core.Category   `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// ComputeTotalsByCategory sums full expense amounts per category.
// Categories without expenses are omitted.
func ComputeTotalsByCategory(expenses []core.Expense) map[core.Category]decimal.Decimal {
	totals := make(map[core.Category]decimal.Decimal)
	for _, e := range expenses {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	return totals
}

// ComputeTotalExpenses returns the sum of all amounts, zero when empty.
func ComputeTotalExpenses(expenses []core.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// SortedCategoryTotals orders totals by amount descending, then category.
func SortedCategoryTotals(totals map[core.Category]decimal.Decimal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(totals))
	for c, amt := range totals {
		out = append(out, CategoryTotal{Category: c, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}
