package ports

import (
	"time"

	"github.com/aretw0/coldchain/pkg/domain"
)

// Window limits how many of the newest entries a snapshot carries per log.
// Non-positive values mean "everything held".
type Window struct {
	Events        int
	Alerts        int
	Notifications int
}

// TrackingStore holds the canonical model. Implementations are not required to be
// safe for concurrent use: the engine is the single writer and serializes access.
type TrackingStore interface {
	// Station returns the live station for id. Stations are provisioned up front.
	Station(id string) (*domain.Station, bool)

	// Stations returns the live stations in lifecycle order.
	Stations() []*domain.Station

	// Item returns the live item for id.
	Item(id string) (*domain.Item, bool)

	// GetOrCreateItem returns the item for id, creating it at station when absent.
	// The boolean reports whether the item was created.
	GetOrCreateItem(id, station string, now time.Time) (*domain.Item, bool)

	// EachItem visits every tracked item.
	EachItem(fn func(*domain.Item))

	AppendEvent(e domain.Event)
	AppendNotification(n domain.Notification)
	AppendAlert(a domain.Alert)

	// Alerts returns up to limit of the newest alerts, newest first.
	// A non-positive limit returns the whole window.
	Alerts(limit int) []domain.Alert

	// StationViews returns copies of the stations in lifecycle order.
	StationViews() []domain.Station

	// Snapshot returns a deep copy of the whole model.
	Snapshot(window Window) domain.Snapshot
}
