/*
Package domain contains the core models and decision rules of the Coldchain tracker.

It defines the fixed station sequence, the tracked items moving through it and the
messages flowing in and out of the engine. This package is kept pure and free of
I/O, locking and persistence concerns, following Hexagonal Architecture principles.

# Key Entities

  - Station: A fixed monitoring point with liveness status and a derived item count.
  - Item: A tracked lot with its lifecycle state, reading history and violation log.
  - Lifecycle: The transition table deciding advance, idempotent read or violation.
  - InboundEvent: Sealed union of Movement, Heartbeat and StatusUpdate readings.
  - Message: Sealed union of snapshot, movement, alert and status observer messages.
*/
package domain
