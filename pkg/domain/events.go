package domain

import "time"

// EventKind names the kind of an inbound event. It is the last segment of
// the transport topic.
type EventKind string

const (
	KindMovement  EventKind = "movement"
	KindHeartbeat EventKind = "heartbeat"
	KindStatus    EventKind = "status"
)

// InboundEvent is a reading delivered by a transport adapter.
// The set of implementations is closed: Movement, Heartbeat and StatusUpdate.
type InboundEvent interface {
	Kind() EventKind
	StationID() string
	inbound()
}

// Movement asserts that an item was observed at a station.
type Movement struct {
	ItemID    string    `json:"itemId" mapstructure:"itemId"`
	Station   string    `json:"station" mapstructure:"-"`
	Timestamp time.Time `json:"timestamp" mapstructure:"timestamp"`
}

// Heartbeat is a liveness signal from a station.
type Heartbeat struct {
	Station   string    `json:"station" mapstructure:"-"`
	Timestamp time.Time `json:"timestamp" mapstructure:"timestamp"`
}

// StatusUpdate sets the status of a station explicitly.
type StatusUpdate struct {
	Station string        `json:"station" mapstructure:"-"`
	Status  StationStatus `json:"status" mapstructure:"status"`
}

func (Movement) Kind() EventKind     { return KindMovement }
func (Heartbeat) Kind() EventKind    { return KindHeartbeat }
func (StatusUpdate) Kind() EventKind { return KindStatus }

func (e Movement) StationID() string     { return e.Station }
func (e Heartbeat) StationID() string    { return e.Station }
func (e StatusUpdate) StationID() string { return e.Station }

func (Movement) inbound()     {}
func (Heartbeat) inbound()    {}
func (StatusUpdate) inbound() {}
