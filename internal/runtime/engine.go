package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/coldchain/internal/logging"
	"github.com/aretw0/coldchain/pkg/broadcast"
	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/aretw0/coldchain/pkg/ports"
)

// DefaultStalenessThreshold is how long a station may stay silent before it is marked offline.
const DefaultStalenessThreshold = 30 * time.Second

var _ ports.Tracker = (*Engine)(nil)

// Engine is the tracking core. Safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	store     ports.TrackingStore
	lifecycle *domain.Lifecycle
	hub       *broadcast.Hub

	now       func() time.Time
	threshold time.Duration
	window    ports.Window
	hooks     domain.TrackerHooks
	logger    *slog.Logger
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithClock overrides the wall clock (tests, replays).
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger configures a logger for the Engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.TrackerHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithStalenessThreshold sets the silence allowed before a station goes offline.
func WithStalenessThreshold(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.threshold = d
		}
	}
}

// WithSnapshotWindow bounds the windows sent to new observers.
func WithSnapshotWindow(w ports.Window) EngineOption {
	return func(e *Engine) {
		e.window = w
	}
}

// NewEngine creates an engine over a provisioned store.
// The lifecycle and the store must describe the same stations.
func NewEngine(store ports.TrackingStore, lifecycle *domain.Lifecycle, hub *broadcast.Hub, opts ...EngineOption) *Engine {
	e := &Engine{
		store:     store,
		lifecycle: lifecycle,
		hub:       hub,
		now:       time.Now,
		threshold: DefaultStalenessThreshold,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ingest applies one inbound event.
// Unknown stations and unknown event kinds are rejected without touching the store.
func (e *Engine) Ingest(ctx context.Context, ev domain.InboundEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	switch ev := ev.(type) {
	case domain.Movement:
		_, _, err = e.movement(ctx, ev)
	case domain.Heartbeat:
		err = e.heartbeat(ctx, ev)
	case domain.StatusUpdate:
		err = e.status(ctx, ev)
	case nil:
		err = fmt.Errorf("%w: nil event", domain.ErrUnknownEvent)
	default:
		err = fmt.Errorf("%w: %T", domain.ErrUnknownEvent, ev)
	}

	e.rejected(ctx, err)
	return err
}

// Record applies a movement and returns the item and the verdict decided for it,
// both taken inside the same critical section as the mutation.
func (e *Engine) Record(ctx context.Context, m domain.Movement) (domain.Item, domain.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return domain.Item{}, domain.Verdict{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	item, verdict, err := e.movement(ctx, m)
	e.rejected(ctx, err)
	return item, verdict, err
}

func (e *Engine) rejected(ctx context.Context, err error) {
	if err == nil {
		return
	}
	e.logger.Warn("Engine: event rejected", "error", err)
	if e.hooks.OnRejected != nil {
		e.hooks.OnRejected(ctx, err)
	}
}

func (e *Engine) movement(ctx context.Context, m domain.Movement) (domain.Item, domain.Verdict, error) {
	if m.ItemID == "" {
		return domain.Item{}, domain.Verdict{}, fmt.Errorf("%w: movement without item id", domain.ErrInvalidEvent)
	}
	station, ok := e.store.Station(m.Station)
	if !ok {
		return domain.Item{}, domain.Verdict{}, fmt.Errorf("%w: %q", domain.ErrUnknownStation, m.Station)
	}

	now := e.now()
	ts := m.Timestamp
	if ts.IsZero() {
		ts = now
	}

	// 1. Resolve the item, creating it at this station on first sight
	item, created := e.store.GetOrCreateItem(m.ItemID, m.Station, now)

	// 2. Validate the transition
	verdict := e.lifecycle.Decide(item.State, m.Station)
	var alert *domain.Alert
	if verdict.Decision == domain.DecisionViolation {
		a := domain.NewTransitionAlert(item.ID, verdict.From, m.Station, ts)
		item.Alerts = append(item.Alerts, a)
		e.store.AppendAlert(a)
		alert = &a
	} else {
		item.State = verdict.Next
	}

	// 3. The raw reading is always recorded, even when rejected
	reading := item.Record(m.Station, ts)
	station.Touch(now)

	// 4. Derived state and bounded logs
	aggregate(e.store)

	notification := domain.NewNotification(item.ID, station.Name, reading.Timestamp)
	e.store.AppendNotification(notification)

	event := domain.Event{
		ItemID:    item.ID,
		Station:   m.Station,
		State:     item.State,
		Timestamp: reading.Timestamp,
	}
	e.store.AppendEvent(event)

	e.logger.Debug("Engine: movement",
		"item_id", item.ID,
		"station", m.Station,
		"decision", verdict.Decision.String(),
		"state", item.State,
		"created", created,
	)

	// 5. Fan out: movement always, alert additionally on violation
	stations := e.store.StationViews()
	view := item.Clone()
	e.publish(domain.NewMovementMessage(event, view, stations, notification))
	if alert != nil {
		e.logger.Warn("Engine: invalid transition",
			"item_id", alert.ItemID, "from", alert.From, "to", alert.To)
		e.publish(domain.NewAlertMessage(*alert))
	}

	if e.hooks.OnMovement != nil {
		e.hooks.OnMovement(ctx, &domain.MovementOutcome{Event: event, Verdict: verdict, Created: created})
	}
	if alert != nil && e.hooks.OnViolation != nil {
		e.hooks.OnViolation(ctx, alert)
	}
	if e.hooks.OnCounts != nil {
		e.hooks.OnCounts(ctx, stations)
	}
	return view, verdict, nil
}

func (e *Engine) heartbeat(ctx context.Context, h domain.Heartbeat) error {
	station, ok := e.store.Station(h.Station)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownStation, h.Station)
	}
	if wasOffline := station.Touch(e.now()); wasOffline {
		e.statusChanged(ctx, station)
	}
	return nil
}

func (e *Engine) status(ctx context.Context, u domain.StatusUpdate) error {
	if _, err := domain.ParseStationStatus(string(u.Status)); err != nil {
		return fmt.Errorf("%w: %q", err, u.Status)
	}
	station, ok := e.store.Station(u.Station)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownStation, u.Station)
	}
	station.Status = u.Status
	e.statusChanged(ctx, station)
	return nil
}

// Sweep marks silent stations offline, once per transition.
// It returns the IDs of the stations that went offline.
func (e *Engine) Sweep(ctx context.Context) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var stale []string
	for _, st := range e.store.Stations() {
		if st.Status == domain.StatusOffline || !st.IsStale(now, e.threshold) {
			continue
		}
		st.Status = domain.StatusOffline
		stale = append(stale, st.ID)
		e.logger.Info("Engine: station marked offline",
			"station", st.ID, "last_reading", st.LastReading, "threshold", e.threshold)
		e.statusChanged(ctx, st)
	}
	return stale
}

func (e *Engine) statusChanged(ctx context.Context, st *domain.Station) {
	e.publish(domain.NewStatusMessage(st.ID, st.Status))
	if e.hooks.OnStatus != nil {
		view := st.Clone()
		e.hooks.OnStatus(ctx, &view)
	}
}

// publish must be called with e.mu held so observers see deltas in store order.
func (e *Engine) publish(msg domain.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		e.logger.Error("Engine: failed to encode message", "type", msg.MessageType(), "error", err)
		return
	}
	e.hub.Broadcast(payload)
}

// Subscribe registers an observer whose first message is the current snapshot.
// Registration happens inside the critical section, so no delta is missed or duplicated.
func (e *Engine) Subscribe() *broadcast.Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload, err := json.Marshal(domain.NewSnapshotMessage(e.store.Snapshot(e.window)))
	if err != nil {
		e.logger.Error("Engine: failed to encode snapshot", "error", err)
		return e.hub.Register()
	}
	return e.hub.Register(payload)
}

// Snapshot returns a copy of the full current state.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Snapshot(e.window)
}

// Item returns a copy of a tracked item.
func (e *Engine) Item(id string) (domain.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	it, ok := e.store.Item(id)
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: %q", domain.ErrItemNotFound, id)
	}
	return it.Clone(), nil
}

// Stations returns copies of the stations in lifecycle order.
func (e *Engine) Stations() []domain.Station {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.StationViews()
}

// Alerts returns the newest alerts first.
func (e *Engine) Alerts(limit int) []domain.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Alerts(limit)
}

// Observers returns the number of connected observers.
func (e *Engine) Observers() int {
	return e.hub.Len()
}

// Lifecycle returns the transition table.
func (e *Engine) Lifecycle() *domain.Lifecycle {
	return e.lifecycle
}
