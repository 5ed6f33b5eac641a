package ports

import (
	"testing"
	"time"

	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTrackingStoreContract runs a suite of tests to verify that a TrackingStore implementation
// adheres to the defined interface contract. newStore must return an empty store provisioned
// with the given stations.
func RunTrackingStoreContract(t *testing.T, newStore func(specs []domain.StationSpec) TrackingStore) {
	specs := []domain.StationSpec{
		{ID: "S1", Name: "Receiving"},
		{ID: "S2", Name: "Storage"},
		{ID: "S3", Name: "Dispatch"},
	}
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("Stations are provisioned in order", func(t *testing.T) {
		store := newStore(specs)
		views := store.StationViews()
		require.Len(t, views, 3)
		for i, spec := range specs {
			assert.Equal(t, spec.ID, views[i].ID)
			assert.Equal(t, spec.Name, views[i].Name)
			assert.Equal(t, domain.StatusOffline, views[i].Status)
			assert.Nil(t, views[i].LastReading)
		}

		_, ok := store.Station("S9")
		assert.False(t, ok, "stations are never created on lookup")
	})

	t.Run("GetOrCreateItem is lazy and idempotent", func(t *testing.T) {
		store := newStore(specs)

		_, ok := store.Item("A1")
		assert.False(t, ok)

		it, created := store.GetOrCreateItem("A1", "S2", now)
		require.True(t, created)
		assert.Equal(t, "S2", it.State, "initial state is the first referencing station")
		assert.Equal(t, now, it.CreatedAt)

		again, created := store.GetOrCreateItem("A1", "S1", now.Add(time.Minute))
		assert.False(t, created)
		assert.Same(t, it, again)
		assert.Equal(t, "S2", again.State)
	})

	t.Run("Snapshot is a deep copy", func(t *testing.T) {
		store := newStore(specs)
		it, _ := store.GetOrCreateItem("A1", "S1", now)
		it.Record("S1", now)
		st, _ := store.Station("S1")
		st.Touch(now)

		snap := store.Snapshot(Window{})
		it.Record("S2", now.Add(time.Second))
		st.ItemCount = 42

		assert.Len(t, snap.Items["A1"].History, 1)
		assert.Equal(t, 0, snap.Stations[0].ItemCount)
		assert.Equal(t, domain.StatusOnline, snap.Stations[0].Status)
		assert.Equal(t, 1, snap.Stats.TotalItems)
		assert.Equal(t, 1, snap.Stats.ByState["S1"])
	})

	t.Run("Snapshot windows are newest first", func(t *testing.T) {
		store := newStore(specs)
		for i := 0; i < 5; i++ {
			store.AppendEvent(domain.Event{ItemID: "A1", Station: "S1", State: "S1", Timestamp: now.Add(time.Duration(i) * time.Second)})
			store.AppendNotification(domain.NewNotification("A1", "Receiving", now.Add(time.Duration(i)*time.Second)))
		}
		store.AppendAlert(domain.NewTransitionAlert("A1", "S1", "S3", now))

		snap := store.Snapshot(Window{Events: 2})
		require.Len(t, snap.Events, 2)
		assert.Equal(t, now.Add(4*time.Second), snap.Events[0].Timestamp)
		assert.Equal(t, now.Add(3*time.Second), snap.Events[1].Timestamp)
		assert.Len(t, snap.Notifications, 5)
		assert.Len(t, snap.Alerts, 1)
	})

	t.Run("Alerts returns the newest first", func(t *testing.T) {
		store := newStore(specs)
		store.AppendAlert(domain.NewTransitionAlert("A1", "S1", "S3", now))
		store.AppendAlert(domain.NewTransitionAlert("A2", "S2", "S1", now.Add(time.Second)))

		all := store.Alerts(0)
		require.Len(t, all, 2)
		assert.Equal(t, "A2", all[0].ItemID)

		latest := store.Alerts(1)
		require.Len(t, latest, 1)
		assert.Equal(t, "A2", latest[0].ItemID)
	})
}
