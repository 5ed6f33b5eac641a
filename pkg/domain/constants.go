package domain

// StateCompleted is the terminal lifecycle state, reached when an item arrives
// at the last station of the sequence.
const StateCompleted = "completed"

// StationStatus reports the liveness of a station.
type StationStatus string

const (
	StatusOnline  StationStatus = "online"
	StatusOffline StationStatus = "offline"
)

// ParseStationStatus validates a raw status value.
func ParseStationStatus(s string) (StationStatus, error) {
	switch StationStatus(s) {
	case StatusOnline, StatusOffline:
		return StationStatus(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// AlertKind classifies an alert record.
type AlertKind string

const (
	AlertInvalidTransition AlertKind = "invalid_transition"
)
