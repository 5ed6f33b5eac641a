package ports

import (
	"context"

	"github.com/aretw0/coldchain/pkg/broadcast"
	"github.com/aretw0/coldchain/pkg/domain"
)

// Ingestor accepts decoded inbound events. Transport adapters depend on it.
type Ingestor interface {
	Ingest(ctx context.Context, ev domain.InboundEvent) error
}

// Tracker is the engine surface used by observer adapters (HTTP, MCP).
type Tracker interface {
	Ingestor

	// Record applies a movement and returns the resulting item and the verdict
	// decided for it, atomically.
	Record(ctx context.Context, m domain.Movement) (domain.Item, domain.Verdict, error)

	// Snapshot returns the full current state.
	Snapshot() domain.Snapshot

	// Stations returns copies of the stations in lifecycle order.
	Stations() []domain.Station

	// Alerts returns up to limit of the newest alerts; non-positive means all held.
	Alerts(limit int) []domain.Alert

	// Item returns a copy of one tracked item, or domain.ErrItemNotFound.
	Item(id string) (domain.Item, error)

	// Subscribe registers an observer. The snapshot message is the first one queued.
	Subscribe() *broadcast.Subscription
}
