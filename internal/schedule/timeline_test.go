package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room8/internal/core"
)

func TestTimeline(t *testing.T) {
	s := New(time.UTC)
	daily := chore(core.Daily)
	daily.ID = "daily"
	weekly := chore(core.Weekly)
	weekly.ID = "weekly"
	once := chore(core.AsNeeded)
	once.ID = "once"

	days := s.Timeline([]core.Chore{daily, weekly, once}, day0.Add(3*time.Hour), 0)

	require.Len(t, days, DefaultTimelineDays+1)
	assert.True(t, days[0].Date.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Len(t, days[0].Chores, 3, "all chores occur on their scheduled day")
	assert.Len(t, days[1].Chores, 1)
	assert.Equal(t, "daily", days[1].Chores[0].ID)
	assert.Len(t, days[7].Chores, 2, "weekly recurs a week later")
}

func TestFilters(t *testing.T) {
	s := New(time.UTC)
	a := chore(core.Daily)
	a.ID, a.AssignedTo = "a", "p1"
	b := completedAt(chore(core.Weekly), day0)
	b.ID, b.AssignedTo = "b", "p2"

	now := day0.Add(30 * time.Hour)

	overdue := s.Overdue([]core.Chore{a, b}, now)
	require.Len(t, overdue, 1)
	assert.Equal(t, "a", overdue[0].ID)

	due := s.DueToday([]core.Chore{a, b}, now)
	require.Len(t, due, 1)
	assert.Equal(t, "a", due[0].ID)

	mine := AssignedTo([]core.Chore{a, b}, "p2")
	require.Len(t, mine, 1)
	assert.Equal(t, "b", mine[0].ID)

	assert.Empty(t, AssignedTo(nil, "p1"))
}
