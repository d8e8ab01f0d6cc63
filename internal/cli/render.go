package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"room8/internal/core"
)

// Theme colors
var (
	ColorBorder = lipgloss.Color("#575653")
	ColorText   = lipgloss.Color("#FFFCF0")
	ColorAccent = lipgloss.Color("#3AA99F")
	ColorGreen  = lipgloss.Color("#879A39")
	ColorRed    = lipgloss.Color("#D14D41")
	ColorMuted  = lipgloss.Color("#6F6E69")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorBorder)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	creditStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	debitStyle = lipgloss.NewStyle().
			Foreground(ColorRed)
)

// SeparatorRow splits a table body, e.g. before a total row.
const SeparatorRow = "---"

// Table is a bordered text table. The first column is left aligned, the
// rest are right aligned unless LeftAlign says otherwise.
type Table struct {
	Title     string
	Headers   []string
	Rows      [][]string
	LeftAlign bool
}

func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(48).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderMuted renders a hint line such as "No chores."
func RenderMuted(s string) string {
	return "  " + mutedStyle.Render(s)
}

// RenderTable renders t with rounded box-drawing borders.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = max(widths[i], lipgloss.Width(h))
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}
	line := func(cells []string, style lipgloss.Style, left bool) {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(style.Render(" " + pad(cell, widths[i], left || i == 0) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		line(t.Headers, headerStyle, true)
		rule("├", "┼", "┤")
	}
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == SeparatorRow {
			rule("├", "┼", "┤")
			continue
		}
		line(row, valueStyle, t.LeftAlign)
	}
	rule("╰", "┴", "╯")
	return b.String()
}

// pad fills s to width display cells.
func pad(s string, width int, left bool) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if left {
		return s + strings.Repeat(" ", gap)
	}
	return strings.Repeat(" ", gap) + s
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(d decimal.Decimal) string {
	return core.FormatAmount(d)
}

// FormatNet colors a balance: green when owed money, red when owing.
func FormatNet(d decimal.Decimal) string {
	switch d.Sign() {
	case 1:
		return creditStyle.Render("+" + FormatMoney(d))
	case -1:
		return debitStyle.Render(FormatMoney(d))
	default:
		return FormatMoney(d)
	}
}

// FormatMinutes renders a chore duration, e.g. 90 -> "1h 30m".
func FormatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	if m%60 == 0 {
		return fmt.Sprintf("%dh", m/60)
	}
	return fmt.Sprintf("%dh %dm", m/60, m%60)
}
