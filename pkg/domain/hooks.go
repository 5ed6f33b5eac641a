package domain

import "context"

// MovementOutcome describes one processed movement for observability hooks.
type MovementOutcome struct {
	Event   Event
	Verdict Verdict
	Created bool
}

// TrackerHooks defines callbacks for engine observability.
// Hooks run inside the engine's critical section and must not block.
type TrackerHooks struct {
	OnMovement  func(context.Context, *MovementOutcome)
	OnViolation func(context.Context, *Alert)
	OnStatus    func(context.Context, *Station)
	OnCounts    func(context.Context, []Station)
	OnRejected  func(context.Context, error)
}
