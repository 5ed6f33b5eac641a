package runtime_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/coldchain/internal/runtime"
	"github.com/aretw0/coldchain/internal/testutils"
	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_SweepMarksOfflineOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.Ingest(ctx, domain.Heartbeat{Station: "S1"}))

	sub := f.engine.Subscribe()
	defer sub.Close()
	testutils.Drain(t, sub)

	f.clock.Advance(30 * time.Second)
	assert.Empty(t, f.engine.Sweep(ctx), "exactly the threshold is not stale")

	f.clock.Advance(time.Second)
	assert.Equal(t, []string{"S1"}, f.engine.Sweep(ctx))
	assert.Equal(t, domain.StatusOffline, f.engine.Stations()[0].Status)

	f.clock.Advance(time.Minute)
	assert.Empty(t, f.engine.Sweep(ctx), "an offline station is left untouched")

	msgs := testutils.Drain(t, sub)
	require.Len(t, msgs, 1)
	var st domain.StatusMessage
	testutils.Decode(t, msgs[0], &st)
	assert.Equal(t, "S1", st.Station)
	assert.Equal(t, domain.StatusOffline, st.Status)
}

func TestEngine_SweepIgnoresSilentStations(t *testing.T) {
	f := newFixture(t)
	f.clock.Advance(time.Hour)
	assert.Empty(t, f.engine.Sweep(context.Background()), "stations that never reported are skipped")
}

func TestEngine_ReadingBringsStationBack(t *testing.T) {
	f := newFixture(t, runtime.WithStalenessThreshold(5*time.Second))
	ctx := context.Background()

	f.move(t, "A1", "S1")
	f.clock.Advance(6 * time.Second)
	require.Equal(t, []string{"S1"}, f.engine.Sweep(ctx))

	f.move(t, "A1", "S2")
	assert.Equal(t, domain.StatusOffline, f.engine.Stations()[0].Status, "S1 stays offline until it reports")
	assert.Equal(t, domain.StatusOnline, f.engine.Stations()[1].Status)

	require.NoError(t, f.engine.Ingest(ctx, domain.Heartbeat{Station: "S1"}))
	f.clock.Advance(6 * time.Second)
	assert.ElementsMatch(t, []string{"S1", "S2"}, f.engine.Sweep(ctx))
}

type countingSweeper struct{ n atomic.Int32 }

func (c *countingSweeper) Sweep(context.Context) []string {
	c.n.Add(1)
	return nil
}

func TestMonitor_StartStop(t *testing.T) {
	sw := &countingSweeper{}
	m := runtime.NewMonitor(sw, 5*time.Millisecond)

	require.NoError(t, m.Start(context.Background()))
	assert.ErrorIs(t, m.Start(context.Background()), runtime.ErrMonitorRunning)
	assert.True(t, m.Running())

	assert.Eventually(t, func() bool { return sw.n.Load() >= 2 }, time.Second, 5*time.Millisecond)

	m.Stop()
	m.Stop()
	assert.False(t, m.Running())

	after := sw.n.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, sw.n.Load(), "no sweeps after Stop")

	require.NoError(t, m.Start(context.Background()), "monitor can be restarted")
	m.Stop()
}

func TestMonitor_StopsWithContext(t *testing.T) {
	sw := &countingSweeper{}
	m := runtime.NewMonitor(sw, 0)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, m.Start(ctx))
	cancel()
	m.Stop()
	assert.Zero(t, sw.n.Load(), "default interval is far longer than the test")
}

func TestMonitor_RestartsAfterContextCancel(t *testing.T) {
	sw := &countingSweeper{}
	m := runtime.NewMonitor(sw, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, m.Start(ctx))
	cancel()
	assert.Eventually(t, func() bool { return !m.Running() }, time.Second, time.Millisecond)

	require.NoError(t, m.Start(context.Background()), "a cancelled monitor can be started again")
	defer m.Stop()
	assert.True(t, m.Running())
	assert.Eventually(t, func() bool { return sw.n.Load() >= 1 }, time.Second, 5*time.Millisecond)
}

func TestMonitor_DrivesEngine(t *testing.T) {
	f := newFixture(t, runtime.WithStalenessThreshold(time.Second))
	ctx := context.Background()
	require.NoError(t, f.engine.Ingest(ctx, domain.Heartbeat{Station: "S3"}))
	f.clock.Advance(2 * time.Second)

	m := runtime.NewMonitor(f.engine, 5*time.Millisecond)
	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	assert.Eventually(t, func() bool {
		return f.engine.Stations()[2].Status == domain.StatusOffline
	}, time.Second, 5*time.Millisecond)
}
