// Package codec maps transport messages to inbound events and back.
//
// A message is addressed by a topic of the form "<prefix>/<station>/<kind>",
// where kind is one of movement, heartbeat or status, and carries a small JSON
// payload:
//
//	coldchain/camara_fria/movement  {"itemId": "LOT-42", "timestamp": "2026-03-01T08:00:00Z"}
//	coldchain/camara_fria/heartbeat {"timestamp": "2026-03-01T08:00:00Z"}
//	coldchain/camara_fria/status    {"status": "offline"}
//
// Malformed messages yield an error wrapping ErrMalformed or ErrUnknownTopic;
// callers drop them and log the diagnostic.
package codec
