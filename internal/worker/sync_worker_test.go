package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room8/internal/amqp"
	"room8/internal/calendar"
	calmemory "room8/internal/calendar/memory"
	"room8/internal/core"
	"room8/internal/schedule"
	"room8/internal/services"
	"room8/internal/storage"
	"room8/internal/storage/memory"
)

var now = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu        sync.Mutex
	scheduled map[string]int
	cancelled []string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{scheduled: make(map[string]int)}
}

func (n *recordingNotifier) Schedule(_ context.Context, c core.Chore) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scheduled[c.ID]++
	return nil
}

func (n *recordingNotifier) Cancel(_ context.Context, choreID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, choreID)
	return nil
}

func newHousehold(kv storage.KV) *services.Household {
	h := services.NewHousehold(kv, schedule.New(time.UTC), services.WithClock(func() time.Time { return now }))
	h.Load(context.Background())
	return h
}

type fixture struct {
	kv       *memory.Store
	h        *services.Household
	cal      *calmemory.Store
	notifier *recordingNotifier
	worker   *SyncWorker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := memory.New()
	f := &fixture{
		kv:       kv,
		h:        newHousehold(kv),
		cal:      calmemory.New(),
		notifier: newRecordingNotifier(),
	}
	f.worker = NewSyncWorker(f.h, f.cal, f.notifier, nil, 2)
	return f
}

func (f *fixture) addChore(t *testing.T, in core.ChoreInput) core.Chore {
	t.Helper()
	c, err := f.h.AddChore(context.Background(), in)
	require.NoError(t, err)
	return c
}

func TestSyncChoreCreatesThenUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alex, err := f.h.AddRoommate(ctx, "Alex", "alex@example.com", "")
	require.NoError(t, err)
	c := f.addChore(t, core.ChoreInput{Name: "Trash", Frequency: core.Weekly, AssignedTo: alex.ID})

	require.NoError(t, f.worker.SyncChore(ctx, c.ID))

	synced, _ := f.h.Chore(c.ID)
	require.NotEmpty(t, synced.CalendarEventID)
	event, ok := f.cal.Event(synced.CalendarEventID)
	require.True(t, ok)
	assert.Equal(t, "Trash", event.Title)
	assert.Equal(t, []string{"alex@example.com"}, event.Attendees)
	assert.Equal(t, c.ID, event.ChoreID)

	_, err = f.h.UpdateChore(ctx, c.ID, core.ChoreInput{Name: "Trash & recycling", Frequency: core.Weekly})
	require.NoError(t, err)
	require.NoError(t, f.worker.SyncChore(ctx, c.ID))

	again, _ := f.h.Chore(c.ID)
	assert.Equal(t, synced.CalendarEventID, again.CalendarEventID, "update keeps the event")
	event, _ = f.cal.Event(again.CalendarEventID)
	assert.Equal(t, "Trash & recycling", event.Title)
	assert.Empty(t, event.Attendees)
	assert.Equal(t, 1, f.cal.Len())
	assert.Equal(t, 2, f.notifier.scheduled[c.ID])
}

func TestSyncChoreRecreatesMissingEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addChore(t, core.ChoreInput{Name: "Trash", Frequency: core.Weekly})
	require.NoError(t, f.h.SetCalendarEventID(ctx, c.ID, "deleted-by-hand"))

	require.NoError(t, f.worker.SyncChore(ctx, c.ID))

	got, _ := f.h.Chore(c.ID)
	assert.NotEqual(t, "deleted-by-hand", got.CalendarEventID)
	_, ok := f.cal.Event(got.CalendarEventID)
	assert.True(t, ok)
}

func TestSyncChoreCalendarFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addChore(t, core.ChoreInput{Name: "Trash", Frequency: core.Weekly})
	f.cal.FailWith(errors.New("quota exceeded"))

	err := f.worker.SyncChore(ctx, c.ID)
	require.Error(t, err)

	got, _ := f.h.Chore(c.ID)
	assert.Empty(t, got.CalendarEventID)
	assert.Zero(t, f.notifier.scheduled[c.ID])
}

func TestSyncChoreSkipsVanishedChore(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.worker.SyncChore(context.Background(), "gone"))
	assert.Zero(t, f.cal.Len())
}

func TestSyncChoreWithoutCalendar(t *testing.T) {
	f := newFixture(t)
	w := NewSyncWorker(f.h, nil, f.notifier, nil, 0)
	c := f.addChore(t, core.ChoreInput{Name: "Trash", Frequency: core.Weekly})

	require.NoError(t, w.SyncChore(context.Background(), c.ID))
	assert.Equal(t, 1, f.notifier.scheduled[c.ID])
}

func TestRemoveChore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addChore(t, core.ChoreInput{Name: "Trash", Frequency: core.Weekly})
	require.NoError(t, f.worker.SyncChore(ctx, c.ID))
	synced, _ := f.h.Chore(c.ID)

	require.NoError(t, f.worker.RemoveChore(ctx, c.ID, synced.CalendarEventID))
	assert.Zero(t, f.cal.Len())
	assert.Equal(t, []string{c.ID}, f.notifier.cancelled)

	// Already gone remotely.
	assert.NoError(t, f.worker.RemoveChore(ctx, c.ID, synced.CalendarEventID))
	// Never synced.
	assert.NoError(t, f.worker.RemoveChore(ctx, c.ID, ""))

	f.cal.FailWith(errors.New("boom"))
	assert.Error(t, f.worker.RemoveChore(ctx, c.ID, "evt"))
}

func TestHandleChoreSyncReadsOtherProcessWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The server runs its own household over the same store.
	server := newHousehold(f.kv)
	c, err := server.AddChore(ctx, core.ChoreInput{Name: "Dishes", Frequency: core.Daily})
	require.NoError(t, err)

	require.NoError(t, f.worker.HandleChoreSync(ctx, amqp.NewChoreSyncMessage(c.ID, amqp.ActionUpsert, "")))

	require.NoError(t, server.Reload(ctx))
	got, _ := server.Chore(c.ID)
	require.NotEmpty(t, got.CalendarEventID, "event id is written back to the shared store")

	require.NoError(t, server.DeleteChore(ctx, c.ID))
	require.NoError(t, f.worker.HandleChoreSync(ctx, amqp.NewChoreSyncMessage(c.ID, amqp.ActionDelete, got.CalendarEventID)))
	assert.Zero(t, f.cal.Len())
}

func TestHandleChoreSyncRejectsUnknownAction(t *testing.T) {
	f := newFixture(t)
	err := f.worker.HandleChoreSync(context.Background(), &amqp.ChoreSyncMessage{ChoreID: "c1", Action: "archive"})
	assert.Error(t, err)
}

func TestReconcile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	linked := f.addChore(t, core.ChoreInput{Name: "Trash", Frequency: core.Weekly})
	require.NoError(t, f.worker.SyncChore(ctx, linked.ID))
	for _, name := range []string{"Dishes", "Vacuum", "Laundry"} {
		f.addChore(t, core.ChoreInput{Name: name, Frequency: core.Daily})
	}

	created, err := f.worker.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.Equal(t, 4, f.cal.Len())

	for _, c := range f.h.Chores() {
		assert.NotEmpty(t, c.CalendarEventID, c.Name)
		assert.GreaterOrEqual(t, f.notifier.scheduled[c.ID], 1, c.Name)
	}

	created, err = f.worker.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, created, "nothing left to create")
}

func TestReconcileJoinsFailures(t *testing.T) {
	f := newFixture(t)
	f.addChore(t, core.ChoreInput{Name: "Dishes", Frequency: core.Daily})
	f.addChore(t, core.ChoreInput{Name: "Vacuum", Frequency: core.Weekly})
	f.cal.FailWith(errors.New("quota exceeded"))

	created, err := f.worker.Reconcile(context.Background())
	require.Error(t, err)
	assert.Zero(t, created)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestDirectSyncerEndToEnd(t *testing.T) {
	f := newFixture(t)
	direct := services.NewDirectSyncer(f.worker, time.Second)
	f.h.SetSyncer(direct)
	ctx := context.Background()

	c := f.addChore(t, core.ChoreInput{Name: "Trash", Frequency: core.Weekly})
	direct.Wait()

	got, _ := f.h.Chore(c.ID)
	require.NotEmpty(t, got.CalendarEventID)

	require.NoError(t, f.h.DeleteChore(ctx, c.ID))
	direct.Wait()
	assert.Zero(t, f.cal.Len())
	assert.Equal(t, []string{c.ID}, f.notifier.cancelled)
}

// racingCalendar runs afterCreate once an event exists remotely but before
// the worker links it to the chore.
type racingCalendar struct {
	*calmemory.Store
	afterCreate func()
}

func (c *racingCalendar) CreateEvent(ctx context.Context, e calendar.Event) (string, error) {
	id, err := c.Store.CreateEvent(ctx, e)
	if err == nil && c.afterCreate != nil {
		c.afterCreate()
	}
	return id, err
}

func TestSyncChoreDeletedMidCreateLeavesNoEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addChore(t, core.ChoreInput{Name: "Dishes", Frequency: core.Daily})

	cal := &racingCalendar{Store: f.cal}
	cal.afterCreate = func() {
		require.NoError(t, f.h.DeleteChore(ctx, c.ID))
	}
	w := NewSyncWorker(f.h, cal, f.notifier, nil, 1)

	require.NoError(t, w.SyncChore(ctx, c.ID))
	assert.Zero(t, f.cal.Len(), "the event created for the deleted chore is removed")
	assert.Zero(t, f.notifier.scheduled[c.ID], "no reminder for a deleted chore")
}
