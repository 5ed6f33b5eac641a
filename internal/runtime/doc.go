// Package runtime hosts the tracking engine: event ingestion, lifecycle validation,
// station aggregation and the staleness sweep.
//
// The Engine is the single writer of the tracking store. Inbound events and
// staleness sweeps share one critical section, so per-item history ordering and
// station counts are never observed half-updated. Observer payloads are encoded
// from copies inside that section and handed to a non-blocking broadcast hub.
package runtime
