package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"room8/internal/cli"
	"room8/internal/ledger"
)

var hundred = decimal.NewFromInt(100)

func newBalancesCmd(open opener) *cobra.Command {
	var current string
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Net balance per roommate and the transfers that settle them",
		Args:  cobra.NoArgs,
		RunE: open(func(_ context.Context, a *app, _ []string) error {
			balances := a.household.Balances(current)
			a.println(cli.RenderTitle("BALANCES"))
			if len(balances) == 0 {
				a.println(cli.RenderMuted("No expenses recorded."))
				return nil
			}

			rows := make([][]string, 0, len(balances))
			for _, b := range balances {
				name := b.Name
				if b.IsCurrent {
					name += " (you)"
				}
				rows = append(rows, []string{
					name,
					cli.FormatMoney(b.TotalPaid),
					cli.FormatMoney(b.TotalShare),
					cli.FormatNet(b.Net),
				})
			}
			fmt.Fprint(a.out, cli.RenderTable(cli.Table{
				Headers: []string{"Roommate", "Paid", "Share", "Net"},
				Rows:    rows,
			}))

			settlements := ledger.SuggestSettlements(balances)
			if len(settlements) == 0 {
				a.println(cli.RenderMuted("Everyone is settled up."))
				return nil
			}
			names := make(map[string]string, len(balances))
			for _, b := range balances {
				names[b.ParticipantID] = b.Name
			}
			srows := make([][]string, 0, len(settlements))
			for _, s := range settlements {
				srows = append(srows, []string{names[s.From], names[s.To], cli.FormatMoney(s.Amount)})
			}
			fmt.Fprint(a.out, cli.RenderTable(cli.Table{
				Title:   "Suggested transfers",
				Headers: []string{"From", "To", "Amount"},
				Rows:    srows,
			}))
			return nil
		}),
	}
	cmd.Flags().StringVar(&current, "current", "", "Roommate id to mark as you")
	return cmd
}

func newTotalsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Spending by category",
		Args:  cobra.NoArgs,
		RunE: open(func(_ context.Context, a *app, _ []string) error {
			totals := ledger.SortedCategoryTotals(a.household.TotalsByCategory())
			a.println(cli.RenderTitle("SPENDING BY CATEGORY"))
			if len(totals) == 0 {
				a.println(cli.RenderMuted("No expenses recorded."))
				return nil
			}

			grand := a.household.TotalExpenses()
			rows := make([][]string, 0, len(totals)+2)
			for _, t := range totals {
				share := t.Amount.Div(grand).Mul(hundred).StringFixed(1) + "%"
				rows = append(rows, []string{titleCase(string(t.Category)), cli.FormatMoney(t.Amount), share})
			}
			rows = append(rows, []string{cli.SeparatorRow})
			rows = append(rows, []string{"TOTAL", cli.FormatMoney(grand), ""})
			fmt.Fprint(a.out, cli.RenderTable(cli.Table{
				Headers: []string{"Category", "Amount", "Share"},
				Rows:    rows,
			}))
			return nil
		}),
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
