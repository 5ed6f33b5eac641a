package domain

import "fmt"

// Decision is the outcome of validating a reading against the lifecycle.
type Decision int

const (
	// DecisionIdempotent means the item was read again at its current station.
	DecisionIdempotent Decision = iota
	// DecisionAdvance means the station is the allowed successor.
	DecisionAdvance
	// DecisionViolation means the move is not allowed; state is kept.
	DecisionViolation
)

func (d Decision) String() string {
	switch d {
	case DecisionIdempotent:
		return "idempotent"
	case DecisionAdvance:
		return "advance"
	case DecisionViolation:
		return "violation"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Verdict carries a Decision and the state the item ends in.
type Verdict struct {
	Decision Decision
	From     string
	Next     string
}

// Lifecycle is the transition table over an ordered station sequence.
// Each station allows exactly one successor; the last one leads to StateCompleted.
type Lifecycle struct {
	order []string
	next  map[string]string
}

// NewLifecycle builds the table from the ordered station IDs.
func NewLifecycle(stations []string) (*Lifecycle, error) {
	if len(stations) == 0 {
		return nil, fmt.Errorf("%w: no stations", ErrInvalidLifecycle)
	}
	lc := &Lifecycle{
		order: make([]string, 0, len(stations)),
		next:  make(map[string]string, len(stations)),
	}
	for i, id := range stations {
		if id == "" || id == StateCompleted {
			return nil, fmt.Errorf("%w: reserved or empty station id %q", ErrInvalidLifecycle, id)
		}
		if _, dup := lc.next[id]; dup {
			return nil, fmt.Errorf("%w: duplicate station %q", ErrInvalidLifecycle, id)
		}
		succ := StateCompleted
		if i+1 < len(stations) {
			succ = stations[i+1]
		}
		lc.next[id] = succ
		lc.order = append(lc.order, id)
	}
	return lc, nil
}

// Stations returns the station IDs in lifecycle order.
func (lc *Lifecycle) Stations() []string {
	return append([]string(nil), lc.order...)
}

// Has reports whether id is a station of the lifecycle.
func (lc *Lifecycle) Has(id string) bool {
	_, ok := lc.next[id]
	return ok
}

// Successor returns the single allowed successor of a state.
// StateCompleted and unknown states have none.
func (lc *Lifecycle) Successor(state string) (string, bool) {
	s, ok := lc.next[state]
	return s, ok
}

// IsValidState reports whether state belongs to {stations} ∪ {completed}.
func (lc *Lifecycle) IsValidState(state string) bool {
	return state == StateCompleted || lc.Has(state)
}

// Decide validates a reading at station for an item currently in state current.
// Rules are evaluated in order: idempotent read, valid advance, violation.
// Advancing into the last station lands on StateCompleted.
func (lc *Lifecycle) Decide(current, station string) Verdict {
	if station == current {
		return Verdict{Decision: DecisionIdempotent, From: current, Next: current}
	}
	if succ, ok := lc.next[current]; ok && succ == station {
		next := station
		if lc.next[station] == StateCompleted {
			next = StateCompleted
		}
		return Verdict{Decision: DecisionAdvance, From: current, Next: next}
	}
	return Verdict{Decision: DecisionViolation, From: current, Next: current}
}
