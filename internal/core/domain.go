package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense categories.
const (
	Groceries Category = "groceries"
	Utilities Category = "utilities"
	Rent      Category = "rent"
	Internet  Category = "internet"
	Cleaning  Category = "cleaning"
	Household Category = "household"
	Other     Category = "other"
)

// Chore frequencies.
const (
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
	AsNeeded Frequency = "as-needed"
)

// Chore priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

const (
	DefaultRoommateColor    = "Blue"
	DefaultEstimatedMinutes = 30
	maxTitleLength          = 200
)

type (
	Category  string
	Frequency string
	Priority  string

	// Participant is a member of the household roster.
	Participant struct {
		ID       string    `json:"id"`
		Name     string    `json:"name"`
		Email    string    `json:"email,omitempty"`
		Color    string    `json:"color"`
		JoinDate time.Time `json:"joinDate"`
		IsActive bool      `json:"isActive"`
	}

	// Expense is a shared cost paid by one participant and split evenly
	// among SplitAmong.
	Expense struct {
		ID         string          `json:"id"`
		Title      string          `json:"title"`
		Amount     decimal.Decimal `json:"amount"`
		Category   Category        `json:"category"`
		PaidBy     string          `json:"paidBy"`
		SplitAmong []string        `json:"splitAmong"`
		Date       time.Time       `json:"date"`
		Notes      string          `json:"notes,omitempty"`
	}

	Chore struct {
		ID                string     `json:"id"`
		Name              string     `json:"name"`
		Description       string     `json:"description"`
		Frequency         Frequency  `json:"frequency"`
		EstimatedMinutes  int        `json:"estimatedMinutes"`
		Priority          Priority   `json:"priority"`
		AssignedTo        string     `json:"assignedTo,omitempty"`
		CreatedDate       time.Time  `json:"createdDate"`
		LastCompletedDate *time.Time `json:"lastCompletedDate,omitempty"`
		ScheduledDate     *time.Time `json:"scheduledDate,omitempty"`
		CalendarEventID   string     `json:"calendarEventId,omitempty"`
	}

	// ChoreCompletion is an entry of the append-only completion log.
	ChoreCompletion struct {
		ID            string    `json:"id"`
		ChoreID       string    `json:"choreId"`
		CompletedBy   string    `json:"completedBy"`
		CompletedDate time.Time `json:"completedDate"`
		Notes         string    `json:"notes,omitempty"`
	}
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyTitle         = errors.New("empty title")
	ErrTitleTooLong       = errors.New("title too long (max 200 characters)")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptySplit         = errors.New("expense must be split among at least one participant")
	ErrDuplicateSplit     = errors.New("duplicate participant in split")
	ErrEmptyPayer         = errors.New("empty payer")
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidDuration    = errors.New("estimated minutes must be positive")
)

// Categories returns every expense category in display order.
func Categories() []Category {
	return []Category{Groceries, Utilities, Rent, Internet, Cleaning, Household, Other}
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

func (c Category) IsValid() bool {
	switch c {
	case Groceries, Utilities, Rent, Internet, Cleaning, Household, Other:
		return true
	default:
		return false
	}
}

func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

func (f Frequency) IsValid() bool {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, AsNeeded:
		return true
	default:
		return false
	}
}

// PeriodDays reports the recurrence period in days. As-needed chores have
// no period. An unknown frequency is a programming error and panics.
func (f Frequency) PeriodDays() (int, bool) {
	switch f {
	case Daily:
		return 1, true
	case Weekly:
		return 7, true
	case Biweekly:
		return 14, true
	case Monthly:
		return 30, true
	case AsNeeded:
		return 0, false
	default:
		panic(fmt.Sprintf("core: unknown frequency %q", string(f)))
	}
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Label returns the capitalized priority name used in event descriptions.
func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityUrgent:
		return "Urgent"
	default:
		return string(p)
	}
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// NewParticipant builds an active roster member joining at now.
func NewParticipant(name, email, color string, now time.Time) (Participant, error) {
	p := Participant{
		ID:       NewID(),
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Color:    strings.TrimSpace(color),
		JoinDate: now,
		IsActive: true,
	}
	if p.Color == "" {
		p.Color = DefaultRoommateColor
	}
	if err := p.Validate(); err != nil {
		return Participant{}, err
	}
	return p, nil
}

func (p Participant) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// NewExpense validates the inputs and rounds amount to the minor unit.
func NewExpense(title string, amount decimal.Decimal, category Category, paidBy string, splitAmong []string, date time.Time) (Expense, error) {
	e := Expense{
		ID:         NewID(),
		Title:      strings.TrimSpace(title),
		Amount:     RoundMinor(amount),
		Category:   category,
		PaidBy:     strings.TrimSpace(paidBy),
		SplitAmong: append([]string(nil), splitAmong...),
		Date:       date,
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > maxTitleLength {
		return ErrTitleTooLong
	}
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if !e.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, string(e.Category))
	}
	if strings.TrimSpace(e.PaidBy) == "" {
		return ErrEmptyPayer
	}
	if len(e.SplitAmong) == 0 {
		return ErrEmptySplit
	}
	seen := make(map[string]struct{}, len(e.SplitAmong))
	for _, id := range e.SplitAmong {
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSplit, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Shares returns each split member's portion of the expense. The per-person
// amount is rounded down to the minor unit and the residual, between zero and
// n-1 minor units, goes to the payer (or to the first split member when the
// payer is not splitting), so the shares always add up to Amount exactly and
// none is negative.
func (e Expense) Shares() map[string]decimal.Decimal {
	n := len(e.SplitAmong)
	shares := make(map[string]decimal.Decimal, n)
	if n == 0 {
		return shares
	}

	base := e.Amount.Div(decimal.NewFromInt(int64(n))).RoundDown(MinorUnitPlaces)
	for _, id := range e.SplitAmong {
		shares[id] = base
	}

	residual := e.Amount.Sub(base.Mul(decimal.NewFromInt(int64(n))))
	if residual.IsZero() {
		return shares
	}
	absorber := e.SplitAmong[0]
	if _, ok := shares[e.PaidBy]; ok {
		absorber = e.PaidBy
	}
	shares[absorber] = shares[absorber].Add(residual)
	return shares
}

// Involves reports whether id paid for or shares the expense.
func (e Expense) Involves(id string) bool {
	if e.PaidBy == id {
		return true
	}
	for _, s := range e.SplitAmong {
		if s == id {
			return true
		}
	}
	return false
}

// ChoreInput carries the caller-supplied fields of a chore.
type ChoreInput struct {
	Name             string
	Description      string
	Frequency        Frequency
	EstimatedMinutes int
	Priority         Priority
	AssignedTo       string
	ScheduledDate    *time.Time
}

// NewChore builds a never-completed chore created at now.
func NewChore(in ChoreInput, now time.Time) (Chore, error) {
	c := Chore{
		ID:               NewID(),
		Name:             strings.TrimSpace(in.Name),
		Description:      strings.TrimSpace(in.Description),
		Frequency:        in.Frequency,
		EstimatedMinutes: in.EstimatedMinutes,
		Priority:         in.Priority,
		AssignedTo:       strings.TrimSpace(in.AssignedTo),
		CreatedDate:      now,
		ScheduledDate:    in.ScheduledDate,
	}
	if c.EstimatedMinutes == 0 {
		c.EstimatedMinutes = DefaultEstimatedMinutes
	}
	if c.Priority == "" {
		c.Priority = PriorityMedium
	}
	if err := c.Validate(); err != nil {
		return Chore{}, err
	}
	return c, nil
}

func (c Chore) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Frequency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, string(c.Frequency))
	}
	if !c.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, string(c.Priority))
	}
	if c.EstimatedMinutes <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// EffectiveScheduledDate is the scheduled date, or the creation date when
// the chore was never explicitly scheduled.
func (c Chore) EffectiveScheduledDate() time.Time {
	if c.ScheduledDate != nil {
		return *c.ScheduledDate
	}
	return c.CreatedDate
}

// LastActivity returns the last completion or, failing that, the creation time.
func (c Chore) LastActivity() time.Time {
	if c.LastCompletedDate != nil {
		return *c.LastCompletedDate
	}
	return c.CreatedDate
}

func (c Chore) IsAssigned() bool {
	return c.AssignedTo != ""
}
