package domain

import "time"

// StationSpec is the static definition of a station, as provisioned from configuration.
type StationSpec struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Station is the live view of a monitoring point.
type Station struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	LastReading *time.Time    `json:"lastReading"`
	Status      StationStatus `json:"status"`
	ItemCount   int           `json:"itemCount"`
}

// NewStation creates a station that has never reported.
func NewStation(spec StationSpec) *Station {
	name := spec.Name
	if name == "" {
		name = spec.ID
	}
	return &Station{
		ID:     spec.ID,
		Name:   name,
		Status: StatusOffline,
	}
}

// Touch records a reading received at now and marks the station online.
// It reports whether the station was offline before.
func (s *Station) Touch(now time.Time) bool {
	wasOffline := s.Status == StatusOffline
	t := now
	s.LastReading = &t
	s.Status = StatusOnline
	return wasOffline
}

// IsStale reports whether the last reading is older than threshold at now.
// A station that never reported is not stale.
func (s *Station) IsStale(now time.Time, threshold time.Duration) bool {
	if s.LastReading == nil {
		return false
	}
	return now.Sub(*s.LastReading) > threshold
}

// Clone returns a deep copy of the station.
func (s *Station) Clone() Station {
	c := *s
	if s.LastReading != nil {
		t := *s.LastReading
		c.LastReading = &t
	}
	return c
}
