package coldchain

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/coldchain/internal/config"
	"github.com/aretw0/coldchain/internal/logging"
	"github.com/aretw0/coldchain/internal/runtime"
	"github.com/aretw0/coldchain/pkg/adapters/memory"
	"github.com/aretw0/coldchain/pkg/broadcast"
	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/aretw0/coldchain/pkg/observability"
	"github.com/aretw0/coldchain/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ ports.Tracker = (*Tracker)(nil)

// Tracker is the high-level entry point: the engine, its observer hub,
// the staleness monitor and the metrics, wired from one Config.
type Tracker struct {
	*runtime.Engine

	hub      *broadcast.Hub
	monitor  *runtime.Monitor
	metrics  *observability.Metrics
	registry *prometheus.Registry

	clock  func() time.Time
	hooks  domain.TrackerHooks
	logger *slog.Logger
}

// Option defines a functional option for configuring the Tracker.
type Option func(*Tracker)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.clock = now
	}
}

// WithHooks registers observability hooks. They run after the metrics hooks.
func WithHooks(hooks domain.TrackerHooks) Option {
	return func(t *Tracker) {
		t.hooks = hooks
	}
}

// New builds a Tracker from a validated configuration.
func New(cfg config.Config, opts ...Option) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lifecycle, err := domain.NewLifecycle(cfg.StationIDs())
	if err != nil {
		return nil, err
	}

	t := &Tracker{registry: prometheus.NewRegistry()}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logging.NewNop()
	}

	t.metrics = observability.New(t.registry)

	hubOpts := append(t.metrics.HubOptions(),
		broadcast.WithBufferSize(cfg.Observers.Buffer),
		broadcast.WithLogger(t.logger),
	)
	t.hub = broadcast.NewHub(hubOpts...)

	store := memory.NewStore(cfg.Stations, memory.Limits{
		Events:        cfg.Logs.Events,
		Notifications: cfg.Logs.Notifications,
		Alerts:        cfg.Logs.Alerts,
	})

	engineOpts := []runtime.EngineOption{
		runtime.WithLogger(t.logger),
		runtime.WithHooks(chainHooks(t.metrics.Hooks(), t.hooks)),
		runtime.WithStalenessThreshold(cfg.Staleness.Threshold),
		runtime.WithSnapshotWindow(ports.Window{
			Events:        cfg.Snapshot.Events,
			Alerts:        cfg.Snapshot.Alerts,
			Notifications: cfg.Snapshot.Notifications,
		}),
	}
	if t.clock != nil {
		engineOpts = append(engineOpts, runtime.WithClock(t.clock))
	}
	t.Engine = runtime.NewEngine(store, lifecycle, t.hub, engineOpts...)
	t.monitor = runtime.NewMonitor(t.Engine, cfg.Staleness.Interval, runtime.WithMonitorLogger(t.logger))

	return t, nil
}

// Start launches the staleness monitor.
func (t *Tracker) Start(ctx context.Context) error {
	if err := t.monitor.Start(ctx); err != nil && !errors.Is(err, runtime.ErrMonitorRunning) {
		return err
	}
	return nil
}

// Close stops the monitor and disconnects every observer.
func (t *Tracker) Close() {
	t.monitor.Stop()
	t.hub.Close()
}

// Metrics returns the collectors, for transport adapters that count rejections.
func (t *Tracker) Metrics() *observability.Metrics {
	return t.metrics
}

// MetricsHandler serves the tracker's Prometheus registry.
func (t *Tracker) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// chainHooks runs first and then second for every callback.
func chainHooks(first, second domain.TrackerHooks) domain.TrackerHooks {
	return domain.TrackerHooks{
		OnMovement: func(ctx context.Context, o *domain.MovementOutcome) {
			if first.OnMovement != nil {
				first.OnMovement(ctx, o)
			}
			if second.OnMovement != nil {
				second.OnMovement(ctx, o)
			}
		},
		OnViolation: func(ctx context.Context, a *domain.Alert) {
			if first.OnViolation != nil {
				first.OnViolation(ctx, a)
			}
			if second.OnViolation != nil {
				second.OnViolation(ctx, a)
			}
		},
		OnStatus: func(ctx context.Context, st *domain.Station) {
			if first.OnStatus != nil {
				first.OnStatus(ctx, st)
			}
			if second.OnStatus != nil {
				second.OnStatus(ctx, st)
			}
		},
		OnCounts: func(ctx context.Context, stations []domain.Station) {
			if first.OnCounts != nil {
				first.OnCounts(ctx, stations)
			}
			if second.OnCounts != nil {
				second.OnCounts(ctx, stations)
			}
		},
		OnRejected: func(ctx context.Context, err error) {
			if first.OnRejected != nil {
				first.OnRejected(ctx, err)
			}
			if second.OnRejected != nil {
				second.OnRejected(ctx, err)
			}
		},
	}
}
