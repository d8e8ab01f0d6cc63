package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"room8/internal/amqp"
	"room8/internal/core"
	"room8/internal/storage/memory"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishChoreSync(ctx context.Context, choreID string, action amqp.SyncAction, eventID string) error {
	return m.Called(ctx, choreID, action, eventID).Error(0)
}

func TestAMQPSyncer(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishChoreSync", mock.Anything, "c1", amqp.ActionUpsert, "").Return(nil).Once()
	pub.On("PublishChoreSync", mock.Anything, "c1", amqp.ActionDelete, "evt1").Return(errors.New("broker down")).Once()

	s := NewAMQPSyncer(pub)
	require.NoError(t, s.SyncChore(context.Background(), "c1"))
	assert.Error(t, s.RemoveChore(context.Background(), "c1", "evt1"))
	pub.AssertExpectations(t)
}

func TestDeleteChoreDispatchesRemovalWithEventID(t *testing.T) {
	syncer := new(mockSyncer)
	syncer.On("SyncChore", mock.Anything, mock.Anything).Return(nil)
	syncer.On("RemoveChore", mock.Anything, mock.Anything, "evt1").Return(nil).Once()

	h := newHousehold(t, memory.New(), WithSyncer(syncer))
	ctx := context.Background()
	c, err := h.AddChore(ctx, core.ChoreInput{Name: "Trash", Frequency: core.Weekly})
	require.NoError(t, err)
	require.NoError(t, h.SetCalendarEventID(ctx, c.ID, "evt1"))

	require.NoError(t, h.DeleteChore(ctx, c.ID))

	syncer.AssertCalled(t, "RemoveChore", mock.Anything, c.ID, "evt1")
	syncer.AssertNumberOfCalls(t, "SyncChore", 1)
	_, ok := h.Chore(c.ID)
	assert.False(t, ok)
}

func TestSyncFailureDoesNotFailWrite(t *testing.T) {
	syncer := new(mockSyncer)
	syncer.On("SyncChore", mock.Anything, mock.Anything).Return(errors.New("calendar unavailable"))

	h := newHousehold(t, memory.New(), WithSyncer(syncer))
	c, err := h.AddChore(context.Background(), core.ChoreInput{Name: "Trash", Frequency: core.Weekly})
	require.NoError(t, err)

	_, ok := h.Chore(c.ID)
	assert.True(t, ok)
	syncer.AssertExpectations(t)
}

func TestFailedWriteDoesNotDispatch(t *testing.T) {
	syncer := new(mockSyncer)
	h := newHousehold(t, failingKV{KV: memory.New(), err: errors.New("read only")}, WithSyncer(syncer))

	_, err := h.AddChore(context.Background(), core.ChoreInput{Name: "Trash", Frequency: core.Weekly})
	require.Error(t, err)
	syncer.AssertNotCalled(t, "SyncChore", mock.Anything, mock.Anything)
}

// blockingSyncer records calls and waits for its context or release.
type blockingSyncer struct {
	calls    atomic.Int32
	release  chan struct{}
	deadline atomic.Bool
}

func (b *blockingSyncer) SyncChore(ctx context.Context, _ string) error {
	b.calls.Add(1)
	if _, ok := ctx.Deadline(); ok {
		b.deadline.Store(true)
	}
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *blockingSyncer) RemoveChore(ctx context.Context, choreID, _ string) error {
	return b.SyncChore(ctx, choreID)
}

func TestDirectSyncerRunsDetached(t *testing.T) {
	target := &blockingSyncer{release: make(chan struct{})}
	d := NewDirectSyncer(target, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.SyncChore(ctx, "c1"))
	require.NoError(t, d.RemoveChore(ctx, "c2", "evt"))
	cancel()

	close(target.release)
	d.Wait()

	assert.EqualValues(t, 2, target.calls.Load())
	assert.True(t, target.deadline.Load(), "background syncs are bounded by a timeout")
}

func TestDirectSyncerTimesOut(t *testing.T) {
	target := &blockingSyncer{release: make(chan struct{})}
	d := NewDirectSyncer(target, 10*time.Millisecond)

	require.NoError(t, d.SyncChore(context.Background(), "c1"))
	d.Wait()
	assert.EqualValues(t, 1, target.calls.Load())
}

func TestSetSyncerReplacesSyncer(t *testing.T) {
	first, second := new(mockSyncer), new(mockSyncer)
	second.On("SyncChore", mock.Anything, mock.Anything).Return(nil).Once()

	h := newHousehold(t, memory.New(), WithSyncer(first))
	h.SetSyncer(second)

	_, err := h.AddChore(context.Background(), core.ChoreInput{Name: "Trash", Frequency: core.Weekly})
	require.NoError(t, err)
	first.AssertNotCalled(t, "SyncChore", mock.Anything, mock.Anything)
	second.AssertExpectations(t)
}
