package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// DefaultPrefix is the first topic segment.
const DefaultPrefix = "coldchain"

var (
	// ErrUnknownTopic is returned for topics outside the "<prefix>/<station>/<kind>" layout.
	ErrUnknownTopic = errors.New("unknown topic")
	// ErrMalformed is returned for payloads that cannot be decoded.
	ErrMalformed = errors.New("malformed payload")
)

// Codec translates between topics/payloads and domain events.
type Codec struct {
	Prefix string
}

// New creates a codec for the given topic prefix; empty means DefaultPrefix.
func New(prefix string) Codec {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Codec{Prefix: strings.Trim(prefix, "/")}
}

// Topic builds the topic for a station and kind.
func (c Codec) Topic(station string, kind domain.EventKind) string {
	return c.Prefix + "/" + station + "/" + string(kind)
}

// Pattern is the glob matching every topic of this codec.
func (c Codec) Pattern() string {
	return c.Prefix + "/*/*"
}

// ParseTopic splits a topic into station and kind.
func (c Codec) ParseTopic(topic string) (string, domain.EventKind, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != c.Prefix || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	kind := domain.EventKind(parts[2])
	switch kind {
	case domain.KindMovement, domain.KindHeartbeat, domain.KindStatus:
		return parts[1], kind, nil
	default:
		return "", "", fmt.Errorf("%w: kind %q in %q", ErrUnknownTopic, parts[2], topic)
	}
}

// movementPayload accepts the legacy "tag_id" field sent by the NFC portals.
type movementPayload struct {
	ItemID    string    `mapstructure:"itemId"`
	TagID     string    `mapstructure:"tag_id"`
	Timestamp time.Time `mapstructure:"timestamp"`
}

type heartbeatPayload struct {
	Timestamp time.Time `mapstructure:"timestamp"`
}

type statusPayload struct {
	Status string `mapstructure:"status"`
}

// Decode turns a topic and payload into an inbound event.
func (c Codec) Decode(topic string, payload []byte) (domain.InboundEvent, error) {
	station, kind, err := c.ParseTopic(topic)
	if err != nil {
		return nil, err
	}

	raw, err := rawFields(payload, kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case domain.KindMovement:
		var p movementPayload
		if err := decodeFields(raw, &p); err != nil {
			return nil, err
		}
		tag := p.ItemID
		if strings.TrimSpace(tag) == "" {
			tag = p.TagID
		}
		id, err := SanitizeItemID(tag)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if id == "" {
			return nil, fmt.Errorf("%w: movement without itemId", ErrMalformed)
		}
		return domain.Movement{ItemID: id, Station: station, Timestamp: p.Timestamp}, nil

	case domain.KindHeartbeat:
		var p heartbeatPayload
		if err := decodeFields(raw, &p); err != nil {
			return nil, err
		}
		return domain.Heartbeat{Station: station, Timestamp: p.Timestamp}, nil

	case domain.KindStatus:
		var p statusPayload
		if err := decodeFields(raw, &p); err != nil {
			return nil, err
		}
		status, err := domain.ParseStationStatus(p.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: status %q", ErrMalformed, p.Status)
		}
		return domain.StatusUpdate{Station: station, Status: status}, nil

	default:
		return nil, fmt.Errorf("%w: kind %q", ErrUnknownTopic, kind)
	}
}

// rawFields parses the JSON object. Heartbeats may have an empty body.
func rawFields(payload []byte, kind domain.EventKind) (map[string]any, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		if kind == domain.KindHeartbeat {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("%w: empty %s payload", ErrMalformed, kind)
	}
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformed)
	}
	return raw, nil
}

func decodeFields(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
		Result:     out,
	})
	if err != nil {
		return fmt.Errorf("decoder setup: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Encode renders an event as a topic and JSON payload, the inverse of Decode.
func (c Codec) Encode(ev domain.InboundEvent) (string, []byte, error) {
	var body map[string]any
	switch ev := ev.(type) {
	case domain.Movement:
		body = map[string]any{"itemId": ev.ItemID}
		if !ev.Timestamp.IsZero() {
			body["timestamp"] = ev.Timestamp.UTC().Format(time.RFC3339Nano)
		}
	case domain.Heartbeat:
		body = map[string]any{}
		if !ev.Timestamp.IsZero() {
			body["timestamp"] = ev.Timestamp.UTC().Format(time.RFC3339Nano)
		}
	case domain.StatusUpdate:
		body = map[string]any{"status": string(ev.Status)}
	default:
		return "", nil, fmt.Errorf("%w: %T", domain.ErrUnknownEvent, ev)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	return c.Topic(ev.StationID(), ev.Kind()), payload, nil
}
