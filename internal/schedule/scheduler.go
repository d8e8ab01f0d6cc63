// Package schedule implements chore recurrence: due and overdue status,
// occurrence on calendar days, and completion.
//
// Each frequency maps to a fixed period in days (see core.Frequency.PeriodDays).
// Calendar-day comparisons happen in the Scheduler's location.
package schedule

import (
	"time"

	"room8/internal/core"
)

// NeverCompletedGrace is how long a chore that was never completed may
// exist before it counts as overdue. It applies to every frequency.
const NeverCompletedGrace = 24 * time.Hour

const day = 24 * time.Hour

// Scheduler evaluates chores against a clock in a fixed timezone.
type Scheduler struct {
	loc *time.Location
}

// New returns a Scheduler for loc; nil means time.Local.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{loc: loc}
}

// Location returns the evaluation timezone.
func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// IsOverdue reports whether the chore should have been done by now.
func (s *Scheduler) IsOverdue(c core.Chore, now time.Time) bool {
	if c.LastCompletedDate == nil {
		return now.Sub(c.CreatedDate) > NeverCompletedGrace
	}
	period, ok := c.Frequency.PeriodDays()
	if !ok {
		return false
	}
	return now.Sub(*c.LastCompletedDate) > time.Duration(period)*day
}

// NextDue is the last completion (or creation) plus one period.
// As-needed chores have no next due time.
func (s *Scheduler) NextDue(c core.Chore) (time.Time, bool) {
	period, ok := c.Frequency.PeriodDays()
	if !ok {
		return time.Time{}, false
	}
	return c.LastActivity().Add(time.Duration(period) * day), true
}

// IsDueToday reports whether the next due time falls on now's calendar day.
func (s *Scheduler) IsDueToday(c core.Chore, now time.Time) bool {
	next, ok := s.NextDue(c)
	if !ok {
		return false
	}
	return s.SameDay(next, now)
}

// OccursOn reports whether an instance of the chore is scheduled on date's
// calendar day. Days before the scheduled date never match.
func (s *Scheduler) OccursOn(c core.Chore, date time.Time) bool {
	scheduled := c.EffectiveScheduledDate()
	if s.SameDay(scheduled, date) {
		return true
	}
	period, ok := c.Frequency.PeriodDays()
	if !ok {
		return false
	}
	diff := s.DaysBetween(scheduled, date)
	if diff < 0 {
		return false
	}
	return diff%period == 0
}

// CompleteChore records a completion at now. The returned chore is a copy
// whose LastCompletedDate equals the completion's timestamp; the input is
// left untouched. Callers must persist both values together.
func (s *Scheduler) CompleteChore(c core.Chore, by, notes string, now time.Time) (core.Chore, core.ChoreCompletion) {
	completion := core.ChoreCompletion{
		ID:            core.NewID(),
		ChoreID:       c.ID,
		CompletedBy:   by,
		CompletedDate: now,
		Notes:         notes,
	}
	updated := c
	completed := now
	updated.LastCompletedDate = &completed
	return updated, completion
}

// SameDay reports whether a and b fall on the same calendar day.
func (s *Scheduler) SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(s.loc).Date()
	by, bm, bd := b.In(s.loc).Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the number of calendar days from a to b, negative
// when b is earlier. Daylight-saving shifts do not affect the count.
func (s *Scheduler) DaysBetween(a, b time.Time) int {
	ay, am, ad := a.In(s.loc).Date()
	by, bm, bd := b.In(s.loc).Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / day)
}

// StartOfDay returns midnight of t's calendar day.
func (s *Scheduler) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}
