package runtime_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/coldchain/internal/runtime"
	"github.com/aretw0/coldchain/internal/testutils"
	"github.com/aretw0/coldchain/pkg/adapters/memory"
	"github.com/aretw0/coldchain/pkg/broadcast"
	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine *runtime.Engine
	clock  *testutils.Clock
	hub    *broadcast.Hub
	lc     *domain.Lifecycle
}

func newFixture(t *testing.T, opts ...runtime.EngineOption) *fixture {
	t.Helper()
	ids := make([]string, 0, len(testutils.Stations))
	for _, s := range testutils.Stations {
		ids = append(ids, s.ID)
	}
	lc, err := domain.NewLifecycle(ids)
	require.NoError(t, err)

	clock := testutils.NewClock(testutils.Epoch)
	hub := broadcast.NewHub(broadcast.WithBufferSize(512))
	store := memory.NewStore(testutils.Stations, memory.DefaultLimits)
	opts = append([]runtime.EngineOption{runtime.WithClock(clock.Now)}, opts...)

	return &fixture{
		engine: runtime.NewEngine(store, lc, hub, opts...),
		clock:  clock,
		hub:    hub,
		lc:     lc,
	}
}

func (f *fixture) move(t *testing.T, item, station string) {
	t.Helper()
	ts := f.clock.Advance(time.Second)
	require.NoError(t, f.engine.Ingest(context.Background(), domain.Movement{ItemID: item, Station: station, Timestamp: ts}))
}

// assertCounts checks every station count against the item states.
func (f *fixture) assertCounts(t *testing.T) {
	t.Helper()
	snap := f.engine.Snapshot()
	want := map[string]int{}
	for _, it := range snap.Items {
		assert.True(t, f.lc.IsValidState(it.State), "state %q out of range", it.State)
		want[it.State]++
	}
	for _, st := range snap.Stations {
		assert.Equal(t, want[st.ID], st.ItemCount, "count for %s", st.ID)
	}
}

func TestEngine_FirstMovementCreatesItem(t *testing.T) {
	f := newFixture(t)
	f.move(t, "A1", "S2")

	it, err := f.engine.Item("A1")
	require.NoError(t, err)
	assert.Equal(t, "S2", it.State, "an item may start mid-line")
	assert.Len(t, it.History, 1)
	assert.Empty(t, it.Alerts)
	assert.Equal(t, f.clock.Now(), it.CreatedAt, "created at the time of the first reading")
	assert.Equal(t, testutils.Epoch.Add(time.Second), it.CreatedAt)
}

func TestEngine_RecordReturnsVerdict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, verdict, err := f.engine.Record(ctx, domain.Movement{ItemID: "A1", Station: "S1"})
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionIdempotent, verdict.Decision)
	assert.Equal(t, "S1", item.State)

	item, verdict, err = f.engine.Record(ctx, domain.Movement{ItemID: "A1", Station: "S2"})
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionAdvance, verdict.Decision)
	assert.Equal(t, "S1", verdict.From)
	assert.Equal(t, "S2", item.State)

	item, verdict, err = f.engine.Record(ctx, domain.Movement{ItemID: "A1", Station: "S1"})
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionViolation, verdict.Decision)
	assert.Equal(t, "S2", item.State)
	assert.Len(t, item.Alerts, 1)

	_, _, err = f.engine.Record(ctx, domain.Movement{ItemID: "A1", Station: "S9"})
	assert.ErrorIs(t, err, domain.ErrUnknownStation)
}

func TestEngine_IdempotentRead(t *testing.T) {
	f := newFixture(t)
	f.move(t, "A1", "S1")
	f.move(t, "A1", "S1")

	it, err := f.engine.Item("A1")
	require.NoError(t, err)
	assert.Equal(t, "S1", it.State)
	assert.Len(t, it.History, 2)
	assert.Empty(t, it.Alerts)
	assert.Empty(t, f.engine.Snapshot().Alerts)
}

func TestEngine_InvalidTransitionFromFirstStation(t *testing.T) {
	f := newFixture(t)
	sub := f.engine.Subscribe()
	defer sub.Close()

	f.move(t, "A1", "S1")
	testutils.Drain(t, sub)

	f.move(t, "A1", "S3")

	it, err := f.engine.Item("A1")
	require.NoError(t, err)
	assert.Equal(t, "S1", it.State, "state is preserved on a violation")
	assert.Len(t, it.History, 2, "rejected reading is still recorded")
	require.Len(t, it.Alerts, 1)
	assert.Equal(t, domain.AlertInvalidTransition, it.Alerts[0].Kind)
	assert.Equal(t, "A1", it.Alerts[0].ItemID)
	assert.Equal(t, "S1", it.Alerts[0].From)
	assert.Equal(t, "S3", it.Alerts[0].To)

	snap := f.engine.Snapshot()
	require.Len(t, snap.Alerts, 1)
	assert.Equal(t, it.Alerts[0], snap.Alerts[0])

	msgs := testutils.Drain(t, sub)
	assert.Equal(t, []domain.MessageType{domain.MessageMovement, domain.MessageAlert}, testutils.Types(t, msgs))

	var mv domain.MovementMessage
	testutils.Decode(t, msgs[0], &mv)
	assert.Equal(t, "S1", mv.Event.State, "movement still reports the unchanged state")
	assert.Equal(t, "S3", mv.Event.Station)
	assert.Equal(t, "S1", mv.Item.State)
	assert.Equal(t, "Dispatch", mv.Notification.Station)

	var al domain.AlertMessage
	testutils.Decode(t, msgs[1], &al)
	assert.Equal(t, "S1", al.Alert.From)
	assert.Equal(t, "S3", al.Alert.To)
}

func TestEngine_FullTraversalCompletes(t *testing.T) {
	f := newFixture(t)
	for _, s := range []string{"S1", "S2", "S3"} {
		f.move(t, "A1", s)
		f.assertCounts(t)
	}

	it, err := f.engine.Item("A1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, it.State)
	require.Len(t, it.History, 3)
	for i, s := range []string{"S1", "S2", "S3"} {
		assert.Equal(t, s, it.History[i].Station)
	}
	assert.Empty(t, it.Alerts)

	snap := f.engine.Snapshot()
	for _, st := range snap.Stations {
		assert.Zero(t, st.ItemCount, "completed items are not counted under %s", st.ID)
	}
	assert.Equal(t, 1, snap.Stats.Completed)
}

func TestEngine_EventWindowKeepsNewest100(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 101; i++ {
		f.move(t, fmt.Sprintf("A%03d", i), "S1")
	}

	snap := f.engine.Snapshot()
	require.Len(t, snap.Events, 100)
	for _, ev := range snap.Events {
		assert.NotEqual(t, "A000", ev.ItemID)
	}
	require.Len(t, snap.Notifications, 20)
	assert.Equal(t, "A100", snap.Notifications[0].ItemID, "newest first")
	for _, n := range snap.Notifications {
		var idx int
		_, err := fmt.Sscanf(n.ItemID, "A%03d", &idx)
		require.NoError(t, err)
		assert.Greater(t, idx, 80, "%s should have been evicted", n.ItemID)
	}
	assert.Equal(t, 101, snap.Stats.TotalItems)
	assert.Equal(t, 101, snap.Stations[0].ItemCount)
}

func TestEngine_CountsTrackStates(t *testing.T) {
	f := newFixture(t)
	steps := []struct{ item, station string }{
		{"A", "S1"}, {"B", "S1"}, {"C", "S2"}, {"A", "S2"},
		{"B", "S3"}, {"C", "S3"}, {"A", "S1"}, {"D", "S3"},
	}
	for _, s := range steps {
		f.move(t, s.item, s.station)
		f.assertCounts(t)
	}

	snap := f.engine.Snapshot()
	assert.Equal(t, 1, snap.Stations[0].ItemCount) // B (violation kept it at S1)
	assert.Equal(t, 1, snap.Stations[1].ItemCount) // A
	assert.Equal(t, 1, snap.Stations[2].ItemCount) // D started at S3
	assert.Equal(t, 1, snap.Stats.Completed)       // C
}

func TestEngine_MovementMarksStationOnline(t *testing.T) {
	f := newFixture(t)
	f.move(t, "A1", "S2")

	st := f.engine.Stations()[1]
	assert.Equal(t, domain.StatusOnline, st.Status)
	require.NotNil(t, st.LastReading)
	assert.Equal(t, f.clock.Now(), *st.LastReading)
}

func TestEngine_MissingTimestampUsesClock(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.Ingest(context.Background(), domain.Movement{ItemID: "A1", Station: "S1"}))

	it, err := f.engine.Item("A1")
	require.NoError(t, err)
	assert.Equal(t, testutils.Epoch, it.History[0].Timestamp)
}

func TestEngine_Heartbeat(t *testing.T) {
	f := newFixture(t)
	sub := f.engine.Subscribe()
	defer sub.Close()
	testutils.Drain(t, sub)

	ctx := context.Background()
	require.NoError(t, f.engine.Ingest(ctx, domain.Heartbeat{Station: "S1"}))
	require.NoError(t, f.engine.Ingest(ctx, domain.Heartbeat{Station: "S1"}))

	st := f.engine.Stations()[0]
	assert.Equal(t, domain.StatusOnline, st.Status)
	assert.Empty(t, f.engine.Snapshot().Items, "heartbeats never touch items")

	types := testutils.Types(t, testutils.Drain(t, sub))
	assert.Equal(t, []domain.MessageType{domain.MessageStatus}, types, "only the offline->online edge is announced")
}

func TestEngine_StatusUpdate(t *testing.T) {
	f := newFixture(t)
	sub := f.engine.Subscribe()
	defer sub.Close()
	testutils.Drain(t, sub)

	require.NoError(t, f.engine.Ingest(context.Background(), domain.StatusUpdate{Station: "S2", Status: domain.StatusOnline}))

	msgs := testutils.Drain(t, sub)
	require.Len(t, msgs, 1)
	var st domain.StatusMessage
	testutils.Decode(t, msgs[0], &st)
	assert.Equal(t, domain.MessageStatus, st.Type)
	assert.Equal(t, "S2", st.Station)
	assert.Equal(t, domain.StatusOnline, st.Status)
	assert.Equal(t, domain.StatusOnline, f.engine.Stations()[1].Status)
}

type bogusEvent struct{ domain.Heartbeat }

func TestEngine_Rejections(t *testing.T) {
	var rejected []error
	f := newFixture(t, runtime.WithHooks(domain.TrackerHooks{
		OnRejected: func(_ context.Context, err error) { rejected = append(rejected, err) },
	}))
	ctx := context.Background()

	err := f.engine.Ingest(ctx, domain.Movement{ItemID: "A1", Station: "S9"})
	assert.ErrorIs(t, err, domain.ErrUnknownStation)

	err = f.engine.Ingest(ctx, domain.Movement{Station: "S1"})
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)

	err = f.engine.Ingest(ctx, domain.Heartbeat{Station: "S9"})
	assert.ErrorIs(t, err, domain.ErrUnknownStation)

	err = f.engine.Ingest(ctx, domain.StatusUpdate{Station: "S1", Status: "broken"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	err = f.engine.Ingest(ctx, bogusEvent{})
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)

	err = f.engine.Ingest(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)

	assert.Len(t, rejected, 6)
	snap := f.engine.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Empty(t, snap.Events)
	for _, st := range snap.Stations {
		assert.Equal(t, domain.StatusOffline, st.Status)
	}
}

func TestEngine_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.engine.Ingest(ctx, domain.Movement{ItemID: "A1", Station: "S1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_ItemNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Item("nope")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestEngine_SubscribeSendsSnapshotFirst(t *testing.T) {
	f := newFixture(t)
	f.move(t, "A1", "S1")
	f.move(t, "A1", "S3")

	sub := f.engine.Subscribe()
	defer sub.Close()
	f.move(t, "B1", "S1")

	msgs := testutils.Drain(t, sub)
	require.Len(t, msgs, 2)

	var snap domain.SnapshotMessage
	testutils.Decode(t, msgs[0], &snap)
	assert.Equal(t, domain.MessageSnapshot, snap.Type)
	assert.Len(t, snap.Items, 1)
	assert.Len(t, snap.Stations, 3)
	assert.Len(t, snap.Events, 2)
	assert.Len(t, snap.Alerts, 1)
	assert.Len(t, snap.Notifications, 2)

	assert.Equal(t, domain.MessageMovement, testutils.Types(t, msgs[1:])[0])
}

func TestEngine_Hooks(t *testing.T) {
	var outcomes []domain.MovementOutcome
	var alerts []domain.Alert
	var counts int
	f := newFixture(t, runtime.WithHooks(domain.TrackerHooks{
		OnMovement:  func(_ context.Context, o *domain.MovementOutcome) { outcomes = append(outcomes, *o) },
		OnViolation: func(_ context.Context, a *domain.Alert) { alerts = append(alerts, *a) },
		OnCounts:    func(_ context.Context, s []domain.Station) { counts++ },
	}))

	f.move(t, "A1", "S1")
	f.move(t, "A1", "S3")

	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].Created)
	assert.Equal(t, domain.DecisionIdempotent, outcomes[0].Verdict.Decision)
	assert.Equal(t, domain.DecisionViolation, outcomes[1].Verdict.Decision)
	assert.Len(t, alerts, 1)
	assert.Equal(t, 2, counts)
}
