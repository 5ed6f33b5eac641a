package memory

import (
	"sort"
	"time"

	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/aretw0/coldchain/pkg/ports"
)

var _ ports.TrackingStore = (*Store)(nil)

// Limits bounds the recent-history windows.
type Limits struct {
	Events        int
	Notifications int
	Alerts        int
}

// DefaultLimits mirrors the production policy values.
var DefaultLimits = Limits{Events: 100, Notifications: 20, Alerts: 100}

// Store implements ports.TrackingStore in memory.
// It is NOT safe for concurrent use: the engine serializes every access.
// Accessors return live pointers for mutation; Snapshot returns deep copies.
type Store struct {
	order    []string
	stations map[string]*domain.Station
	items    map[string]*domain.Item

	events        *Ring[domain.Event]
	notifications *Ring[domain.Notification]
	alerts        *Ring[domain.Alert]
}

// NewStore provisions the given stations. Stations are never created afterwards.
func NewStore(specs []domain.StationSpec, limits Limits) *Store {
	s := &Store{
		order:         make([]string, 0, len(specs)),
		stations:      make(map[string]*domain.Station, len(specs)),
		items:         make(map[string]*domain.Item),
		events:        NewRing[domain.Event](limits.Events),
		notifications: NewRing[domain.Notification](limits.Notifications),
		alerts:        NewRing[domain.Alert](limits.Alerts),
	}
	for _, spec := range specs {
		if _, dup := s.stations[spec.ID]; dup {
			continue
		}
		s.order = append(s.order, spec.ID)
		s.stations[spec.ID] = domain.NewStation(spec)
	}
	return s
}

// Station returns the live station for id.
func (s *Store) Station(id string) (*domain.Station, bool) {
	st, ok := s.stations[id]
	return st, ok
}

// Stations returns the live stations in provisioning order.
func (s *Store) Stations() []*domain.Station {
	out := make([]*domain.Station, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.stations[id])
	}
	return out
}

// Item returns the live item for id.
func (s *Store) Item(id string) (*domain.Item, bool) {
	it, ok := s.items[id]
	return it, ok
}

// GetOrCreateItem returns the item for id, creating it at station when absent.
func (s *Store) GetOrCreateItem(id, station string, now time.Time) (*domain.Item, bool) {
	if it, ok := s.items[id]; ok {
		return it, false
	}
	it := domain.NewItem(id, station, now)
	s.items[id] = it
	return it, true
}

// EachItem calls fn for every tracked item.
func (s *Store) EachItem(fn func(*domain.Item)) {
	for _, it := range s.items {
		fn(it)
	}
}

// AppendEvent pushes to the global event window.
func (s *Store) AppendEvent(e domain.Event) { s.events.Push(e) }

// AppendNotification pushes to the notification window.
func (s *Store) AppendNotification(n domain.Notification) { s.notifications.Push(n) }

// AppendAlert pushes to the global alert window.
func (s *Store) AppendAlert(a domain.Alert) { s.alerts.Push(a) }

// Alerts returns the newest alerts first.
func (s *Store) Alerts(limit int) []domain.Alert { return cut(s.alerts, limit) }

// StationViews returns copies of the stations in provisioning order.
func (s *Store) StationViews() []domain.Station {
	out := make([]domain.Station, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.stations[id].Clone())
	}
	return out
}

// Snapshot returns a deep copy of the store. Each window is cut to at most
// the given number of newest entries; a non-positive limit keeps everything.
func (s *Store) Snapshot(window ports.Window) domain.Snapshot {
	snap := domain.Snapshot{
		Stations:      s.StationViews(),
		Items:         make(map[string]domain.Item, len(s.items)),
		Events:        cut(s.events, window.Events),
		Alerts:        cut(s.alerts, window.Alerts),
		Notifications: cut(s.notifications, window.Notifications),
	}
	for id, it := range s.items {
		snap.Items[id] = it.Clone()
	}
	snap.Stats = s.stats()
	return snap
}

func (s *Store) stats() domain.Stats {
	st := domain.Stats{
		TotalItems:     len(s.items),
		ByState:        make(map[string]int, len(s.order)+1),
		EventsInWindow: s.events.Len(),
		AlertsInWindow: s.alerts.Len(),
	}
	for _, id := range s.order {
		st.ByState[id] = 0
	}
	st.ByState[domain.StateCompleted] = 0
	for _, it := range s.items {
		st.ByState[it.State]++
	}
	st.Completed = st.ByState[domain.StateCompleted]
	return st
}

// ItemIDs returns the tracked item IDs in lexical order.
func (s *Store) ItemIDs() []string {
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cut[T any](r *Ring[T], n int) []T {
	if n <= 0 {
		return r.Items()
	}
	return r.Latest(n)
}
