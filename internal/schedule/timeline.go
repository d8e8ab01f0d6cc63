package schedule

import (
	"time"

	"room8/internal/core"
)

// DefaultTimelineDays is how many days after today a timeline covers.
const DefaultTimelineDays = 7

// Day groups the chores that occur on one calendar day.
type Day struct {
	Date   time.Time    `json:"date"`
	Chores []core.Chore `json:"chores"`
}

// Timeline returns today plus the following days, each with the chores
// occurring on it. days <= 0 uses DefaultTimelineDays.
func (s *Scheduler) Timeline(chores []core.Chore, from time.Time, days int) []Day {
	if days <= 0 {
		days = DefaultTimelineDays
	}
	start := s.StartOfDay(from)
	out := make([]Day, 0, days+1)
	for i := 0; i <= days; i++ {
		date := start.AddDate(0, 0, i)
		out = append(out, Day{Date: date, Chores: s.OnDate(chores, date)})
	}
	return out
}

// OnDate returns the chores that occur on date.
func (s *Scheduler) OnDate(chores []core.Chore, date time.Time) []core.Chore {
	return filter(chores, func(c core.Chore) bool { return s.OccursOn(c, date) })
}

// Overdue returns the chores overdue at now.
func (s *Scheduler) Overdue(chores []core.Chore, now time.Time) []core.Chore {
	return filter(chores, func(c core.Chore) bool { return s.IsOverdue(c, now) })
}

// DueToday returns the chores due on now's calendar day.
func (s *Scheduler) DueToday(chores []core.Chore, now time.Time) []core.Chore {
	return filter(chores, func(c core.Chore) bool { return s.IsDueToday(c, now) })
}

// AssignedTo returns the chores assigned to participantID.
func AssignedTo(chores []core.Chore, participantID string) []core.Chore {
	return filter(chores, func(c core.Chore) bool { return c.AssignedTo == participantID })
}

func filter(chores []core.Chore, keep func(core.Chore) bool) []core.Chore {
	out := make([]core.Chore, 0)
	for _, c := range chores {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
