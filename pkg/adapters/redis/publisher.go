package redis

import (
	"context"
	"fmt"

	"github.com/aretw0/coldchain/pkg/broadcast"
	"github.com/aretw0/coldchain/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Publisher sends station readings to Redis pub/sub.
type Publisher struct {
	client *backend.Client
	options
}

// NewPublisher creates a publisher over an existing client.
func NewPublisher(client *backend.Client, opts ...Option) *Publisher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Publisher{client: client, options: o}
}

// Publish encodes ev and publishes it on its station channel.
// It returns the number of subscribers that received it.
func (p *Publisher) Publish(ctx context.Context, ev domain.InboundEvent) (int64, error) {
	channel, payload, err := p.codec.Encode(ev)
	if err != nil {
		return 0, err
	}
	n, err := p.client.Publish(ctx, channel, payload).Result()
	if err != nil {
		return 0, fmt.Errorf("publish %s: %w", channel, err)
	}
	p.logger.Debug("Redis: published", "channel", channel, "receivers", n)
	return n, nil
}

// DeltaChannel is where Mirror republishes observer messages.
func (p *Publisher) DeltaChannel() string {
	return p.codec.Prefix + ":deltas"
}

// Mirror republishes every message queued on sub until ctx is canceled or
// the subscription is closed. The subscription is closed on return.
func (p *Publisher) Mirror(ctx context.Context, sub *broadcast.Subscription) error {
	defer sub.Close()
	channel := p.DeltaChannel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			if err := p.client.Publish(ctx, channel, msg).Err(); err != nil {
				p.logger.Warn("Redis: mirror publish failed", "channel", channel, "error", err)
			}
		}
	}
}
