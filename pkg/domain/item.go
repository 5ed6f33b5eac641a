package domain

import "time"

// Reading is one raw observation of an item at a station.
type Reading struct {
	Station   string    `json:"station"`
	Timestamp time.Time `json:"timestamp"`
}

// Item is a tracked lot and its lifecycle position.
type Item struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	History   []Reading `json:"history"`
	Alerts    []Alert   `json:"alerts"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewItem creates an item whose lifecycle starts at the given station.
func NewItem(id, station string, now time.Time) *Item {
	return &Item{
		ID:        id,
		State:     station,
		History:   []Reading{},
		Alerts:    []Alert{},
		CreatedAt: now,
	}
}

// Record appends a reading to the history.
// Readings reported earlier than the latest entry are clamped to it so
// the history stays ordered in time.
func (it *Item) Record(station string, ts time.Time) Reading {
	if n := len(it.History); n > 0 && ts.Before(it.History[n-1].Timestamp) {
		ts = it.History[n-1].Timestamp
	}
	r := Reading{Station: station, Timestamp: ts}
	it.History = append(it.History, r)
	return r
}

// Completed reports whether the item reached the terminal state.
func (it *Item) Completed() bool {
	return it.State == StateCompleted
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() Item {
	c := *it
	c.History = append([]Reading(nil), it.History...)
	c.Alerts = append([]Alert(nil), it.Alerts...)
	if c.History == nil {
		c.History = []Reading{}
	}
	if c.Alerts == nil {
		c.Alerts = []Alert{}
	}
	return c
}
