// Package redis carries station readings over Redis pub/sub.
//
// Stations (or the simulator) PUBLISH JSON payloads on
// "<prefix>/<station>/<kind>" channels; the Subscriber PSUBSCRIBEs to
// "<prefix>/*/*", decodes each message with the codec and hands it to the
// engine. The Publisher is the sending side, and can optionally mirror
// observer deltas onto a single channel for downstream consumers.
package redis
