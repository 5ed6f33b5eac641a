// Package broadcast implements the observer registry used to fan out tracker messages.
//
// Every observer owns a bounded queue. Broadcasting never blocks: when a queue is
// full the oldest queued message is dropped to make room for the new one.
package broadcast
