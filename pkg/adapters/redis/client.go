package redis

import (
	"log/slog"
	"time"

	"github.com/aretw0/coldchain/internal/logging"
	"github.com/aretw0/coldchain/pkg/codec"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// NewClient creates a go-redis client tagged with a unique client name,
// so replicas can be told apart in CLIENT LIST.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:       address,
		Password:   password,
		DB:         db,
		ClientName: "coldchain-" + uuid.NewString()[:8],
	})
}

// Default bounds of the subscriber's reconnect backoff.
const (
	DefaultRetryMin = 500 * time.Millisecond
	DefaultRetryMax = 30 * time.Second
)

type options struct {
	codec    codec.Codec
	logger   *slog.Logger
	onReject func(error)
	retryMin time.Duration
	retryMax time.Duration
}

func defaultOptions() options {
	return options{
		codec:    codec.New(codec.DefaultPrefix),
		logger:   logging.NewNop(),
		retryMin: DefaultRetryMin,
		retryMax: DefaultRetryMax,
	}
}

// Option configures a Subscriber or a Publisher.
type Option func(*options)

// WithPrefix sets the channel prefix (default "coldchain").
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.codec = codec.New(prefix)
	}
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRejectHook is called for messages that fail to decode.
func WithRejectHook(fn func(error)) Option {
	return func(o *options) {
		o.onReject = fn
	}
}

// WithRetry bounds the delay between subscription attempts. The delay starts
// at lo and doubles up to hi. Non-positive values keep the defaults.
func WithRetry(lo, hi time.Duration) Option {
	return func(o *options) {
		if lo > 0 {
			o.retryMin = lo
		}
		if hi > 0 {
			o.retryMax = hi
		}
		if o.retryMax < o.retryMin {
			o.retryMax = o.retryMin
		}
	}
}
