package calendar

import (
	"fmt"
	"strings"
	"time"

	"room8/internal/core"
)

// Recurrence frequencies understood by the remote calendar.
type Recurrence string

const (
	RecurNone    Recurrence = ""
	RecurDaily   Recurrence = "DAILY"
	RecurWeekly  Recurrence = "WEEKLY"
	RecurMonthly Recurrence = "MONTHLY"
)

// DefaultReminderMinutes is the popup lead attached to every chore event.
const DefaultReminderMinutes = 15

// ChoreIDProperty is the private extended property linking an event back to
// its chore.
const ChoreIDProperty = "room8ChoreId"

// Event is the calendar-side view of a chore.
type Event struct {
	Title           string
	Description     string
	Start           time.Time
	End             time.Time
	Recurrence      Recurrence
	Attendees       []string
	ReminderMinutes int
	ChoreID         string
}

// FromChore projects c onto an event. assignee may be nil.
func FromChore(c core.Chore, assignee *core.Participant) Event {
	start := c.CreatedDate
	if c.LastCompletedDate != nil {
		start = *c.LastCompletedDate
	}

	e := Event{
		Title:           c.Name,
		Description:     describe(c, assignee),
		Start:           start,
		End:             start.Add(time.Duration(c.EstimatedMinutes) * time.Minute),
		Recurrence:      recurrenceFor(c.Frequency),
		ReminderMinutes: DefaultReminderMinutes,
		ChoreID:         c.ID,
	}
	if assignee != nil && assignee.Email != "" {
		e.Attendees = []string{assignee.Email}
	}
	return e
}

func describe(c core.Chore, assignee *core.Participant) string {
	var b strings.Builder
	if c.Description != "" {
		b.WriteString(c.Description)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Priority: %s\nEstimated Time: %d minutes\n", c.Priority.Label(), c.EstimatedMinutes)
	if assignee != nil {
		fmt.Fprintf(&b, "Assigned to: %s", assignee.Name)
	}
	return b.String()
}

// Biweekly has no direct RRULE frequency here and maps to WEEKLY.
func recurrenceFor(f core.Frequency) Recurrence {
	switch f {
	case core.Daily:
		return RecurDaily
	case core.Weekly, core.Biweekly:
		return RecurWeekly
	case core.Monthly:
		return RecurMonthly
	default:
		return RecurNone
	}
}

// RRule renders the recurrence as an RFC 5545 rule, or "" for one-off events.
func (e Event) RRule() string {
	if e.Recurrence == RecurNone {
		return ""
	}
	return "RRULE:FREQ=" + string(e.Recurrence)
}
