/*
Package ports defines the interfaces between the Coldchain core and its adapters.

These interfaces decouple the tracking engine from storage and transport, so the
same engine can be fed by Redis pub/sub or HTTP and observed over WebSocket,
SSE or MCP.

# Key Interfaces

  - TrackingStore: Canonical in-memory model of stations, items and bounded windows.
  - Tracker: The engine surface consumed by inbound and observer adapters.
  - Ingestor: The narrow inbound surface used by transport adapters.
*/
package ports
