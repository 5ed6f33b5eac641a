package observability

import (
	"context"
	"errors"

	"github.com/aretw0/coldchain/pkg/broadcast"
	"github.com/aretw0/coldchain/pkg/codec"
	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "coldchain"

// Metrics holds the collectors for one tracker instance.
type Metrics struct {
	Movements  *prometheus.CounterVec
	Violations *prometheus.CounterVec
	Rejected   *prometheus.CounterVec
	ItemsAt    *prometheus.GaugeVec
	Online     *prometheus.GaugeVec
	Observers  prometheus.Gauge
	Dropped    prometheus.Counter
}

// New creates the collectors and registers them with reg.
// A nil registerer leaves them unregistered (useful in tests).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_total",
			Help:      "Movement readings processed, by station and decision.",
		}, []string{"station", "decision"}),
		Violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Invalid transitions, by origin state and reporting station.",
		}, []string{"from", "to"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_events_total",
			Help:      "Inbound events dropped before reaching the store, by reason.",
		}, []string{"reason"}),
		ItemsAt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "station_items",
			Help:      "Items currently at each station.",
		}, []string{"station"}),
		Online: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "station_online",
			Help:      "1 when the station is online, 0 otherwise.",
		}, []string{"station"}),
		Observers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observers",
			Help:      "Connected observers.",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observer_dropped_messages_total",
			Help:      "Messages evicted from full observer queues.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Movements, m.Violations, m.Rejected, m.ItemsAt, m.Online, m.Observers, m.Dropped)
	}
	return m
}

// Hooks returns engine hooks that record into m.
func (m *Metrics) Hooks() domain.TrackerHooks {
	return domain.TrackerHooks{
		OnMovement: func(_ context.Context, o *domain.MovementOutcome) {
			m.Movements.WithLabelValues(o.Event.Station, o.Verdict.Decision.String()).Inc()
		},
		OnViolation: func(_ context.Context, a *domain.Alert) {
			m.Violations.WithLabelValues(a.From, a.To).Inc()
		},
		OnStatus: func(_ context.Context, st *domain.Station) {
			m.Online.WithLabelValues(st.ID).Set(online(st.Status))
		},
		OnCounts: func(_ context.Context, stations []domain.Station) {
			for _, st := range stations {
				m.ItemsAt.WithLabelValues(st.ID).Set(float64(st.ItemCount))
				m.Online.WithLabelValues(st.ID).Set(online(st.Status))
			}
		},
		OnRejected: func(_ context.Context, err error) {
			m.Reject(err)
		},
	}
}

// HubOptions wires the observer gauge and the drop counter into a hub.
func (m *Metrics) HubOptions() []broadcast.Option {
	return []broadcast.Option{
		broadcast.WithObserverHook(func(count int) { m.Observers.Set(float64(count)) }),
		broadcast.WithDropHook(func(n int) { m.Dropped.Add(float64(n)) }),
	}
}

// Reject counts a dropped inbound event. Transport adapters call it for
// payloads that fail to decode.
func (m *Metrics) Reject(err error) {
	m.Rejected.WithLabelValues(Reason(err)).Inc()
}

// Reason maps an ingestion error to a low-cardinality label.
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownStation):
		return "unknown_station"
	case errors.Is(err, domain.ErrUnknownEvent):
		return "unknown_event"
	case errors.Is(err, domain.ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(err, domain.ErrInvalidEvent):
		return "invalid_event"
	case errors.Is(err, codec.ErrUnknownTopic):
		return "unknown_topic"
	case errors.Is(err, codec.ErrMalformed):
		return "malformed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

func online(s domain.StationStatus) float64 {
	if s == domain.StatusOnline {
		return 1
	}
	return 0
}
