package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/coldchain/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Subscriber feeds station readings from Redis pub/sub into an Ingestor.
type Subscriber struct {
	client *backend.Client
	ingest ports.Ingestor
	options
}

// NewSubscriber creates a subscriber over an existing client.
func NewSubscriber(client *backend.Client, ingest ports.Ingestor, opts ...Option) *Subscriber {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Subscriber{client: client, ingest: ingest, options: o}
}

// Pattern returns the channel pattern the subscriber listens on.
func (s *Subscriber) Pattern() string {
	return s.codec.Pattern()
}

// Run subscribes and blocks until ctx is canceled. It always returns ctx.Err().
// A failed or lost subscription is logged and retried with exponential backoff;
// while Redis is unreachable the stations simply go stale.
// Undecodable messages and rejected events are logged and dropped.
func (s *Subscriber) Run(ctx context.Context) error {
	delay := s.retryMin
	for {
		subscribed, err := s.subscribe(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if subscribed {
			delay = s.retryMin
		}
		s.logger.Warn("Redis: subscription lost, retrying",
			"pattern", s.Pattern(), "retry_in", delay, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, s.retryMax)
	}
}

// subscribe runs one subscription until it ends. It reports whether the
// subscription was confirmed before ending.
func (s *Subscriber) subscribe(ctx context.Context) (bool, error) {
	pubsub := s.client.PSubscribe(ctx, s.Pattern())
	defer pubsub.Close()

	// Wait for the subscription confirmation so failures surface here
	if _, err := pubsub.Receive(ctx); err != nil {
		return false, fmt.Errorf("psubscribe %s: %w", s.Pattern(), err)
	}
	s.logger.Info("Redis: subscribed", "pattern", s.Pattern())

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return true, errors.New("subscription channel closed")
			}
			_ = s.Handle(ctx, msg.Channel, []byte(msg.Payload))
		}
	}
}

// Handle decodes and ingests one message.
func (s *Subscriber) Handle(ctx context.Context, channel string, payload []byte) error {
	ev, err := s.codec.Decode(channel, payload)
	if err != nil {
		s.logger.Warn("Redis: dropped message", "channel", channel, "error", err)
		if s.onReject != nil {
			s.onReject(err)
		}
		return err
	}
	// The engine logs and counts its own rejections
	return s.ingest.Ingest(ctx, ev)
}
