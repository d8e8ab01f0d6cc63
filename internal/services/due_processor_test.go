package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room8/internal/core"
	"room8/internal/notify"
	"room8/internal/storage/memory"
)

type recordingSink struct {
	got  []notify.Reminder
	fail error
}

func (s *recordingSink) Deliver(_ context.Context, r notify.Reminder) error {
	if s.fail != nil {
		return s.fail
	}
	s.got = append(s.got, r)
	return nil
}

func TestProcessDueChores(t *testing.T) {
	h := newHousehold(t, memory.New())
	ctx := context.Background()
	alex := addRoommates(t, h, "Alex")[0]

	daily, err := h.AddChore(ctx, core.ChoreInput{Name: "Dishes", Frequency: core.Daily, AssignedTo: alex.ID})
	require.NoError(t, err)
	weekly, err := h.AddChore(ctx, core.ChoreInput{Name: "Vacuum", Frequency: core.Weekly})
	require.NoError(t, err)
	_, _, err = h.CompleteChore(ctx, weekly.ID, alex.ID, "")
	require.NoError(t, err)

	sink := &recordingSink{}
	p := NewDueProcessor(h, sink, nil)

	// 16th 08:00: the daily chore is due at 09:00 and inside its grace period.
	now := clock.Add(23 * time.Hour)
	n, err := p.ProcessDueChores(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, sink.got, 1)
	assert.Equal(t, daily.ID, sink.got[0].ChoreID)
	assert.Equal(t, alex.ID, sink.got[0].AssignedTo)
	assert.Equal(t, notify.KindDueToday, sink.got[0].Kind)
	assert.True(t, sink.got[0].DueAt.Equal(clock.Add(24*time.Hour)))

	n, err = p.ProcessDueChores(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "one reminder per chore per day")

	n, err = p.ProcessDueChores(ctx, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "reminded again the next day")
	assert.Equal(t, notify.KindOverdue, sink.got[1].Kind)
}

func TestProcessDueChoresRetriesFailedDelivery(t *testing.T) {
	h := newHousehold(t, memory.New())
	ctx := context.Background()
	_, err := h.AddChore(ctx, core.ChoreInput{Name: "Dishes", Frequency: core.Daily})
	require.NoError(t, err)

	sink := &recordingSink{fail: errors.New("broker down")}
	p := NewDueProcessor(h, sink, nil)
	now := clock.Add(30 * time.Hour)

	n, err := p.ProcessDueChores(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	sink.fail = nil
	n, err = p.ProcessDueChores(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProcessDueChoresSeesOtherWriters(t *testing.T) {
	kv := memory.New()
	ctx := context.Background()
	worker := newHousehold(t, kv)
	server := newHousehold(t, kv)

	_, err := server.AddChore(ctx, core.ChoreInput{Name: "Dishes", Frequency: core.Daily})
	require.NoError(t, err)

	sink := &recordingSink{}
	n, err := NewDueProcessor(worker, sink, nil).ProcessDueChores(ctx, clock.Add(30*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProcessDueChoresSkipsAsNeeded(t *testing.T) {
	h := newHousehold(t, memory.New())
	ctx := context.Background()
	c, err := h.AddChore(ctx, core.ChoreInput{Name: "Defrost freezer", Frequency: core.AsNeeded})
	require.NoError(t, err)
	alex := addRoommates(t, h, "Alex")[0]
	_, _, err = h.CompleteChore(ctx, c.ID, alex.ID, "")
	require.NoError(t, err)

	sink := &recordingSink{}
	n, err := NewDueProcessor(h, sink, nil).ProcessDueChores(ctx, clock.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessDueChoresRequiresSink(t *testing.T) {
	_, err := NewDueProcessor(newHousehold(t, memory.New()), nil, nil).ProcessDueChores(context.Background(), clock)
	assert.Error(t, err)
}
