package domain

import (
	"fmt"
	"time"
)

// Alert records a rejected lifecycle transition.
type Alert struct {
	Kind      AlertKind `json:"kind"`
	ItemID    string    `json:"itemId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// NewTransitionAlert builds the alert for an item that tried to move from -> to.
func NewTransitionAlert(itemID, from, to string, now time.Time) Alert {
	return Alert{
		Kind:      AlertInvalidTransition,
		ItemID:    itemID,
		From:      from,
		To:        to,
		Timestamp: now,
		Message:   fmt.Sprintf("invalid transition for %s: %s -> %s", itemID, from, to),
	}
}

// Notification announces that an item was read at a station.
type Notification struct {
	ItemID    string    `json:"itemId"`
	Station   string    `json:"station"` // display name
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// NewNotification builds the reading notification for an item at a station display name.
func NewNotification(itemID, stationName string, ts time.Time) Notification {
	return Notification{
		ItemID:    itemID,
		Station:   stationName,
		Timestamp: ts,
		Message:   fmt.Sprintf("item %s read at %s", itemID, stationName),
	}
}

// Event is an entry of the global movement log.
// State is the item's state after validation, unchanged on a violation.
type Event struct {
	ItemID    string    `json:"itemId"`
	Station   string    `json:"station"`
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}
