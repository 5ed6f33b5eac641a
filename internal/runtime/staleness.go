package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/coldchain/internal/logging"
)

// DefaultSweepInterval is how often the staleness sweep runs.
const DefaultSweepInterval = 10 * time.Second

// ErrMonitorRunning is returned when Start is called on a running Monitor.
var ErrMonitorRunning = errors.New("staleness monitor already running")

// Sweeper is the part of the Engine the Monitor drives.
type Sweeper interface {
	Sweep(ctx context.Context) []string
}

// Monitor runs the staleness sweep on a fixed interval.
// It is started and stopped with the process lifecycle.
type Monitor struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// MonitorOption configures the Monitor.
type MonitorOption func(*Monitor)

// WithMonitorLogger configures a logger for the Monitor.
func WithMonitorLogger(logger *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// NewMonitor creates a stopped monitor. A non-positive interval uses DefaultSweepInterval.
func NewMonitor(sweeper Sweeper, interval time.Duration, opts ...MonitorOption) *Monitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	m := &Monitor{
		sweeper:  sweeper,
		interval: interval,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the sweep loop. It stops when ctx is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return ErrMonitorRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.loop(ctx, m.done)
	m.logger.Info("Monitor: started", "interval", m.interval)
	return nil
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer m.exited(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if stale := m.sweeper.Sweep(ctx); len(stale) > 0 {
				m.logger.Debug("Monitor: sweep", "offline", stale)
			}
		}
	}
}

// exited clears the running state when the loop ends because its parent
// context was cancelled. After Stop the state is already cleared.
func (m *Monitor) exited(done chan struct{}) {
	m.mu.Lock()
	if m.done == done {
		m.cancel()
		m.cancel, m.done = nil, nil
		m.logger.Info("Monitor: stopped by context")
	}
	m.mu.Unlock()
	close(done)
}

// Stop cancels the loop and waits for it to exit. Safe to call when not running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.logger.Info("Monitor: stopped")
}

// Running reports whether the loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}
