package redis_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/coldchain/internal/runtime"
	"github.com/aretw0/coldchain/internal/testutils"
	"github.com/aretw0/coldchain/pkg/adapters/memory"
	"github.com/aretw0/coldchain/pkg/adapters/redis"
	"github.com/aretw0/coldchain/pkg/broadcast"
	"github.com/aretw0/coldchain/pkg/codec"
	"github.com/aretw0/coldchain/pkg/domain"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *backend.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type recorder struct {
	mu     sync.Mutex
	events []domain.InboundEvent
}

func (r *recorder) Ingest(_ context.Context, ev domain.InboundEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func startSubscriber(t *testing.T, client *backend.Client, sub *redis.Subscriber) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		n, err := client.PubSubNumPat(context.Background()).Result()
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubscriber_IngestsPublishedEvents(t *testing.T) {
	client := setup(t)
	rec := &recorder{}
	startSubscriber(t, client, redis.NewSubscriber(client, rec))

	pub := redis.NewPublisher(client)
	ctx := context.Background()
	ts := testutils.Epoch.Add(time.Minute)

	_, err := pub.Publish(ctx, domain.Movement{ItemID: "LOT-1", Station: "S1", Timestamp: ts})
	require.NoError(t, err)
	_, err = pub.Publish(ctx, domain.Heartbeat{Station: "S2"})
	require.NoError(t, err)
	_, err = pub.Publish(ctx, domain.StatusUpdate{Station: "S3", Status: domain.StatusOffline})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return rec.len() == 3 }, 2*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	mv, ok := rec.events[0].(domain.Movement)
	require.True(t, ok)
	assert.Equal(t, "LOT-1", mv.ItemID)
	assert.True(t, ts.Equal(mv.Timestamp))
	assert.Equal(t, domain.KindHeartbeat, rec.events[1].Kind())
	assert.Equal(t, domain.StatusUpdate{Station: "S3", Status: domain.StatusOffline}, rec.events[2])
}

func TestSubscriber_DropsMalformed(t *testing.T) {
	client := setup(t)
	rec := &recorder{}
	var mu sync.Mutex
	var rejected []error
	sub := redis.NewSubscriber(client, rec, redis.WithRejectHook(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		rejected = append(rejected, err)
	}))
	startSubscriber(t, client, sub)

	ctx := context.Background()
	require.NoError(t, client.Publish(ctx, "coldchain/S1/movement", "{not json").Err())
	require.NoError(t, client.Publish(ctx, "coldchain/S1/temperature", "{}").Err())
	require.NoError(t, client.Publish(ctx, "coldchain/S1/heartbeat", "").Err())

	require.Eventually(t, func() bool { return rec.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, rejected, 2)
	assert.True(t, errors.Is(rejected[0], codec.ErrMalformed))
	assert.True(t, errors.Is(rejected[1], codec.ErrUnknownTopic))
}

func TestSubscriber_Prefix(t *testing.T) {
	client := setup(t)
	sub := redis.NewSubscriber(client, &recorder{}, redis.WithPrefix("plant7"))
	assert.Equal(t, "plant7/*/*", sub.Pattern())

	pub := redis.NewPublisher(client, redis.WithPrefix("plant7"))
	assert.Equal(t, "plant7:deltas", pub.DeltaChannel())
}

func TestSubscriber_EndToEndWithEngine(t *testing.T) {
	client := setup(t)
	hub := broadcast.NewHub()
	defer hub.Close()
	store := memory.NewStore(testutils.Stations, memory.DefaultLimits)
	eng := runtime.NewEngine(store, testutils.Lifecycle(t), hub)
	startSubscriber(t, client, redis.NewSubscriber(client, eng))

	pub := redis.NewPublisher(client)
	ctx := context.Background()
	for _, st := range []string{"S1", "S2", "S3"} {
		_, err := pub.Publish(ctx, domain.Movement{ItemID: "LOT-7", Station: st})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		it, err := eng.Item("LOT-7")
		return err == nil && it.State == domain.StateCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPublisher_Mirror(t *testing.T) {
	client := setup(t)
	hub := broadcast.NewHub()
	defer hub.Close()
	pub := redis.NewPublisher(client)

	ctx := context.Background()
	listener := client.Subscribe(ctx, pub.DeltaChannel())
	defer listener.Close()
	_, err := listener.Receive(ctx)
	require.NoError(t, err)

	mirrorCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- pub.Mirror(mirrorCtx, hub.Register([]byte(`{"type":"snapshot"}`))) }()

	msg, err := listener.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"snapshot"}`, msg.Payload)

	hub.Broadcast([]byte(`{"type":"status"}`))
	msg, err = listener.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"status"}`, msg.Payload)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 0, hub.Len())
}

func TestPublisher_RejectsNilEvent(t *testing.T) {
	client := setup(t)
	_, err := redis.NewPublisher(client).Publish(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)
}

func TestSubscriber_RetriesUntilRedisIsReachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	mr.Close()

	client := redis.NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	rec := &recorder{}
	sub := redis.NewSubscriber(client, rec, redis.WithRetry(5*time.Millisecond, 20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("Run returned while Redis was down: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, mr.Restart())
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumPat(context.Background()).Result()
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err = redis.NewPublisher(client).Publish(context.Background(), domain.Heartbeat{Station: "S1"})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
