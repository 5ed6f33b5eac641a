package domain_test

import (
	"testing"
	"time"

	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestItem_RecordKeepsHistoryOrdered(t *testing.T) {
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	it := domain.NewItem("A1", "S1", base)

	it.Record("S1", base.Add(time.Minute))
	r := it.Record("S2", base) // reported earlier than the previous reading

	assert.Len(t, it.History, 2)
	assert.Equal(t, base.Add(time.Minute), r.Timestamp)
	assert.False(t, it.History[1].Timestamp.Before(it.History[0].Timestamp))
}

func TestItem_CloneIsIndependent(t *testing.T) {
	now := time.Now()
	it := domain.NewItem("A1", "S1", now)
	it.Record("S1", now)

	c := it.Clone()
	it.Record("S2", now)
	it.Alerts = append(it.Alerts, domain.NewTransitionAlert("A1", "S1", "S3", now))

	assert.Len(t, c.History, 1)
	assert.Empty(t, c.Alerts)
}

func TestStation_TouchAndStale(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	s := domain.NewStation(domain.StationSpec{ID: "S1"})

	assert.Equal(t, "S1", s.Name, "name defaults to id")
	assert.Equal(t, domain.StatusOffline, s.Status)
	assert.False(t, s.IsStale(now, time.Second), "never reported is not stale")

	assert.True(t, s.Touch(now))
	assert.False(t, s.Touch(now))
	assert.Equal(t, domain.StatusOnline, s.Status)

	assert.False(t, s.IsStale(now.Add(30*time.Second), 30*time.Second))
	assert.True(t, s.IsStale(now.Add(31*time.Second), 30*time.Second))

	c := s.Clone()
	s.Touch(now.Add(time.Hour))
	assert.Equal(t, now, *c.LastReading)
}

func TestParseStationStatus(t *testing.T) {
	st, err := domain.ParseStationStatus("offline")
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusOffline, st)

	_, err = domain.ParseStationStatus("maybe")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}
