package testutils

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/coldchain/pkg/broadcast"
	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/stretchr/testify/require"
)

// Epoch is the fixed start time used across tests.
var Epoch = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// Stations is the three-station line used across tests.
var Stations = []domain.StationSpec{
	{ID: "S1", Name: "Receiving"},
	{ID: "S2", Name: "Storage"},
	{ID: "S3", Name: "Dispatch"},
}

// Envelope is the discriminator shared by every observer message.
type Envelope struct {
	Type domain.MessageType `json:"type"`
}

// Drain returns every message currently queued on sub without blocking.
func Drain(t *testing.T, sub *broadcast.Subscription) [][]byte {
	t.Helper()
	var out [][]byte
	for {
		select {
		case msg, ok := <-sub.Messages():
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

// Types decodes the discriminator of each message.
func Types(t *testing.T, msgs [][]byte) []domain.MessageType {
	t.Helper()
	types := make([]domain.MessageType, 0, len(msgs))
	for _, msg := range msgs {
		var env Envelope
		require.NoError(t, json.Unmarshal(msg, &env))
		types = append(types, env.Type)
	}
	return types
}

// Decode unmarshals a message into v, failing the test on error.
func Decode(t *testing.T, msg []byte, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(msg, v))
}

// Lifecycle builds the lifecycle for Stations.
func Lifecycle(t *testing.T) *domain.Lifecycle {
	t.Helper()
	ids := make([]string, 0, len(Stations))
	for _, s := range Stations {
		ids = append(ids, s.ID)
	}
	lc, err := domain.NewLifecycle(ids)
	require.NoError(t, err)
	return lc
}
