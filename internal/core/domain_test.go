package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var day0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestExpenseValidate(t *testing.T) {
	good, err := NewExpense("Pizza", amount("30"), Groceries, "a", []string{"a", "b", "c"}, day0)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if good.ID == "" {
		t.Fatal("expected generated id")
	}

	cases := []struct {
		name  string
		title string
		amt   string
		cat   Category
		payer string
		split []string
		want  error
	}{
		{"empty title", "  ", "1", Rent, "a", []string{"a"}, ErrEmptyTitle},
		{"zero amount", "x", "0", Rent, "a", []string{"a"}, ErrInvalidAmount},
		{"negative amount", "x", "-4", Rent, "a", []string{"a"}, ErrInvalidAmount},
		{"bad category", "x", "1", Category("fun"), "a", []string{"a"}, ErrInvalidCategory},
		{"no payer", "x", "1", Rent, "", []string{"a"}, ErrEmptyPayer},
		{"empty split", "x", "1", Rent, "a", nil, ErrEmptySplit},
		{"duplicate split", "x", "1", Rent, "a", []string{"a", "a"}, ErrDuplicateSplit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewExpense(tc.title, amount(tc.amt), tc.cat, tc.payer, tc.split, day0)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestExpenseShares(t *testing.T) {
	tests := []struct {
		name  string
		total string
		payer string
		split []string
		want  map[string]string
	}{
		{
			name:  "even split",
			total: "30",
			payer: "a",
			split: []string{"a", "b", "c"},
			want:  map[string]string{"a": "10", "b": "10", "c": "10"},
		},
		{
			name:  "remainder to payer",
			total: "10",
			payer: "c",
			split: []string{"a", "b", "c"},
			want:  map[string]string{"a": "3.33", "b": "3.33", "c": "3.34"},
		},
		{
			name:  "half cent goes to payer",
			total: "0.07",
			payer: "a",
			split: []string{"a", "b"},
			want:  map[string]string{"a": "0.04", "b": "0.03"},
		},
		{
			name:  "tiny amount across many members",
			total: "0.10",
			payer: "p",
			split: []string{"p", "a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"},
			want: map[string]string{
				"p": "0.10", "a": "0", "b": "0", "c": "0", "d": "0", "e": "0",
				"f": "0", "g": "0", "h": "0", "i": "0", "j": "0", "k": "0",
			},
		},
		{
			name:  "payer outside split",
			total: "10",
			payer: "z",
			split: []string{"a", "b", "c"},
			want:  map[string]string{"a": "3.34", "b": "3.33", "c": "3.33"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Expense{Amount: amount(tt.total), PaidBy: tt.payer, SplitAmong: tt.split}
			shares := e.Shares()
			sum := decimal.Zero
			for id, want := range tt.want {
				if !shares[id].Equal(amount(want)) {
					t.Errorf("share[%s] = %s, want %s", id, shares[id], want)
				}
				sum = sum.Add(shares[id])
			}
			if !sum.Equal(e.Amount) {
				t.Errorf("shares sum to %s, want %s", sum, e.Amount)
			}
		})
	}
}

func TestFrequencyPeriodDays(t *testing.T) {
	cases := map[Frequency]int{Daily: 1, Weekly: 7, Biweekly: 14, Monthly: 30}
	for f, want := range cases {
		got, ok := f.PeriodDays()
		if !ok || got != want {
			t.Fatalf("%s: got (%d,%v), want %d", f, got, ok, want)
		}
	}
	if _, ok := AsNeeded.PeriodDays(); ok {
		t.Fatal("as-needed must have no period")
	}
}

func TestFrequencyPeriodDaysPanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Frequency("hourly").PeriodDays()
}

func TestNewChoreDefaults(t *testing.T) {
	c, err := NewChore(ChoreInput{Name: " Dishes ", Frequency: Daily}, day0)
	if err != nil {
		t.Fatalf("NewChore: %v", err)
	}
	if c.Name != "Dishes" || c.Priority != PriorityMedium || c.EstimatedMinutes != DefaultEstimatedMinutes {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if !c.EffectiveScheduledDate().Equal(day0) {
		t.Fatalf("scheduled date should default to creation date")
	}

	if _, err := NewChore(ChoreInput{Name: "x", Frequency: "yearly"}, day0); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("got %v, want ErrInvalidFrequency", err)
	}
	if _, err := NewChore(ChoreInput{Name: "x", Frequency: Daily, EstimatedMinutes: -5}, day0); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("got %v, want ErrInvalidDuration", err)
	}
}

func TestNewParticipant(t *testing.T) {
	p, err := NewParticipant("  Sam ", "sam@example.com", "", day0)
	if err != nil {
		t.Fatalf("NewParticipant: %v", err)
	}
	if p.Name != "Sam" || p.Color != DefaultRoommateColor || !p.IsActive {
		t.Fatalf("unexpected participant: %+v", p)
	}
	if _, err := NewParticipant(" ", "", "", day0); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("got %v, want ErrEmptyName", err)
	}
}
