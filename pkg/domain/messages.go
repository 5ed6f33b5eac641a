package domain

// MessageType discriminates observer messages on the wire.
type MessageType string

const (
	MessageSnapshot MessageType = "snapshot"
	MessageMovement MessageType = "movement"
	MessageAlert    MessageType = "alert"
	MessageStatus   MessageType = "status"
)

// Message is an outbound observer message.
// The set of implementations is closed: SnapshotMessage, MovementMessage,
// AlertMessage and StatusMessage.
type Message interface {
	MessageType() MessageType
	message()
}

// Stats summarizes the tracked population.
type Stats struct {
	TotalItems     int            `json:"totalItems"`
	ByState        map[string]int `json:"byState"`
	Completed      int            `json:"completed"`
	EventsInWindow int            `json:"eventsInWindow"`
	AlertsInWindow int            `json:"alertsInWindow"`
}

// Snapshot is the full current state sent to a new observer.
// Windows are ordered newest first.
type Snapshot struct {
	Stations      []Station       `json:"stations"`
	Items         map[string]Item `json:"items"`
	Events        []Event         `json:"events"`
	Alerts        []Alert         `json:"alerts"`
	Notifications []Notification  `json:"notifications"`
	Stats         Stats           `json:"stats"`
}

// SnapshotMessage carries a Snapshot.
type SnapshotMessage struct {
	Type MessageType `json:"type"`
	Snapshot
}

// MovementMessage is sent on every movement, including rejected ones.
type MovementMessage struct {
	Type         MessageType  `json:"type"`
	Event        Event        `json:"event"`
	Item         Item         `json:"item"`
	Stations     []Station    `json:"stations"`
	Notification Notification `json:"notification"`
}

// AlertMessage is sent in addition to MovementMessage when a violation occurs.
type AlertMessage struct {
	Type  MessageType `json:"type"`
	Alert Alert       `json:"alert"`
}

// StatusMessage is sent whenever a station changes status.
type StatusMessage struct {
	Type    MessageType   `json:"type"`
	Station string        `json:"station"`
	Status  StationStatus `json:"status"`
}

// NewSnapshotMessage wraps s for the wire.
func NewSnapshotMessage(s Snapshot) SnapshotMessage {
	return SnapshotMessage{Type: MessageSnapshot, Snapshot: s}
}

// NewMovementMessage builds a movement delta.
func NewMovementMessage(ev Event, item Item, stations []Station, n Notification) MovementMessage {
	return MovementMessage{Type: MessageMovement, Event: ev, Item: item, Stations: stations, Notification: n}
}

// NewAlertMessage builds an alert delta.
func NewAlertMessage(a Alert) AlertMessage {
	return AlertMessage{Type: MessageAlert, Alert: a}
}

// NewStatusMessage builds a status delta.
func NewStatusMessage(station string, status StationStatus) StatusMessage {
	return StatusMessage{Type: MessageStatus, Station: station, Status: status}
}

func (SnapshotMessage) MessageType() MessageType { return MessageSnapshot }
func (MovementMessage) MessageType() MessageType { return MessageMovement }
func (AlertMessage) MessageType() MessageType    { return MessageAlert }
func (StatusMessage) MessageType() MessageType   { return MessageStatus }

func (SnapshotMessage) message() {}
func (MovementMessage) message() {}
func (AlertMessage) message()    {}
func (StatusMessage) message()   {}
