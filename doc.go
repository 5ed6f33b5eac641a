/*
Package coldchain tracks physical items as they move through a fixed sequence
of monitoring stations, validates every movement against that order, and
streams the live state to observers.

# Concept

Stations report three kinds of events: an item was read (movement), the
station is alive (heartbeat), or the station changed status. The engine is
the single writer over an in-memory store: it decides each movement against
the lifecycle (idempotent, advance, or violation), keeps per-item history,
recomputes station counts and appends to bounded recent-history windows.
Every change is encoded once and fanned out to observers through a hub whose
queues never block the engine. A monitor marks silent stations offline.

Invalid transitions are data, not errors: the reading is recorded, the item
keeps its state and an alert is raised.

# Usage

	cfg, err := config.Load("coldchain.yaml")
	if err != nil {
		log.Fatal(err)
	}

	tracker, err := coldchain.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer tracker.Close()
	_ = tracker.Start(ctx)

	sub := tracker.Subscribe()
	defer sub.Close()

	_ = tracker.Ingest(ctx, domain.Movement{ItemID: "LOT-1", Station: "producao"})

	for msg := range sub.Messages() {
		fmt.Println(string(msg)) // snapshot first, then deltas
	}

Transports live under pkg/adapters: HTTP (REST, SSE, WebSocket), Redis
pub/sub and MCP.
*/
package coldchain
