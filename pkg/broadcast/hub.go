package broadcast

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/coldchain/internal/logging"
	"github.com/google/uuid"
)

// DefaultBufferSize is the per-observer queue length.
const DefaultBufferSize = 64

// Subscription is one registered observer.
type Subscription struct {
	ID string

	ch      chan []byte
	hub     *Hub
	once    sync.Once
	dropped atomic.Int64
}

// Messages returns the observer queue. It is closed when the subscription
// is closed or the hub shuts down.
func (s *Subscription) Messages() <-chan []byte {
	return s.ch
}

// Dropped returns how many messages were evicted from this queue.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Close unregisters the observer. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.unregister(s)
}

// offer enqueues msg, evicting the oldest queued messages while the queue is full.
func (s *Subscription) offer(msg []byte) (evicted int) {
	for {
		select {
		case s.ch <- msg:
			return evicted
		default:
		}
		select {
		case <-s.ch:
			s.dropped.Add(1)
			evicted++
		default:
		}
	}
}

// Hub is the registry of connected observers. Safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool

	bufferSize int
	logger     *slog.Logger
	onDrop     func(n int)
	onChange   func(count int)
}

// Option configures the Hub.
type Option func(*Hub)

// WithBufferSize sets the per-observer queue length.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithLogger configures a logger for the Hub.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithDropHook is called with the number of messages evicted by a delivery.
func WithDropHook(fn func(n int)) Option {
	return func(h *Hub) {
		h.onDrop = fn
	}
}

// WithObserverHook is called with the observer count after every register/unregister.
func WithObserverHook(fn func(count int)) Option {
	return func(h *Hub) {
		h.onChange = fn
	}
}

// NewHub creates an empty registry.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:       make(map[string]*Subscription),
		bufferSize: DefaultBufferSize,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds an observer with the given messages already queued.
// Registering on a closed hub returns a subscription whose queue is closed.
func (h *Hub) Register(initial ...[]byte) *Subscription {
	sub := &Subscription{
		ID:  uuid.NewString(),
		ch:  make(chan []byte, h.bufferSize),
		hub: h,
	}
	for _, msg := range initial {
		sub.offer(msg)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	h.subs[sub.ID] = sub
	h.logger.Debug("Hub: observer registered", "observer_id", sub.ID, "observers", len(h.subs))
	h.changed()
	return sub
}

func (h *Hub) unregister(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.ID]; ok {
		delete(h.subs, sub.ID)
		h.logger.Debug("Hub: observer unregistered", "observer_id", sub.ID, "observers", len(h.subs))
		h.changed()
	}
	sub.once.Do(func() { close(sub.ch) })
}

// Broadcast delivers payload to every registered observer without blocking.
// It returns the number of observers the payload was queued for.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if n := sub.offer(payload); n > 0 {
			h.logger.Debug("Hub: observer queue full, dropped oldest", "observer_id", sub.ID, "dropped", n)
			if h.onDrop != nil {
				h.onDrop(n)
			}
		}
	}
	return len(h.subs)
}

// Len returns the number of registered observers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close unregisters every observer and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		sub.once.Do(func() { close(sub.ch) })
	}
	h.changed()
}

// changed must be called with h.mu held.
func (h *Hub) changed() {
	if h.onChange != nil {
		h.onChange(len(h.subs))
	}
}
