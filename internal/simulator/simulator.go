// Package simulator generates station readings for demos and load tests.
package simulator

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/coldchain/pkg/codec"
	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/google/uuid"
)

// Sender delivers one inbound event to a tracker.
type Sender interface {
	Send(ctx context.Context, ev domain.InboundEvent) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, ev domain.InboundEvent) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, ev domain.InboundEvent) error { return f(ctx, ev) }

// Plan describes a batch of item journeys.
type Plan struct {
	Stations []string
	Items    int
	// OutOfOrder is the probability, per step, that an item skips ahead one station.
	OutOfOrder float64
	Seed       uint64
	// NewID names items; defaults to "LOT-" plus a short UUID.
	NewID func() string
}

// Events expands the plan into an interleaved reading sequence: each round
// starts with a heartbeat from every station, then moves every unfinished
// item one station forward.
func (p Plan) Events() []domain.InboundEvent {
	if len(p.Stations) == 0 || p.Items <= 0 {
		return nil
	}
	newID := p.NewID
	if newID == nil {
		newID = func() string { return "LOT-" + strings.ToUpper(uuid.NewString()[:8]) }
	}
	rng := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))

	ids := make([]string, p.Items)
	pos := make([]int, p.Items)
	for i := range ids {
		ids[i] = newID()
	}

	var out []domain.InboundEvent
	for {
		active := false
		for i := range ids {
			if pos[i] < len(p.Stations) {
				active = true
				break
			}
		}
		if !active {
			return out
		}

		for _, st := range p.Stations {
			out = append(out, domain.Heartbeat{Station: st})
		}
		for i, id := range ids {
			if pos[i] >= len(p.Stations) {
				continue
			}
			step := pos[i]
			if step > 0 && step+1 < len(p.Stations) && rng.Float64() < p.OutOfOrder {
				step++
			}
			out = append(out, domain.Movement{ItemID: id, Station: p.Stations[step]})
			pos[i] = step + 1
		}
	}
}

// Run sends events in order, pausing interval between them.
// It returns how many were sent before the first error or cancellation.
func Run(ctx context.Context, sender Sender, events []domain.InboundEvent, interval time.Duration) (int, error) {
	for i, ev := range events {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
				return i, ctx.Err()
			case <-time.After(interval):
			}
		}
		if m, ok := ev.(domain.Movement); ok && m.Timestamp.IsZero() {
			m.Timestamp = time.Now().UTC()
			ev = m
		}
		if err := sender.Send(ctx, ev); err != nil {
			return i, fmt.Errorf("send %s for %s: %w", ev.Kind(), ev.StationID(), err)
		}
	}
	return len(events), nil
}

// HTTPSender posts events to a server's ingest endpoint.
type HTTPSender struct {
	BaseURL string
	Client  *http.Client
	Codec   codec.Codec
}

// Send implements Sender.
func (s HTTPSender) Send(ctx context.Context, ev domain.InboundEvent) error {
	_, payload, err := s.Codec.Encode(ev)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/api/stations/%s/%s", strings.TrimRight(s.BaseURL, "/"), ev.StationID(), ev.Kind())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
