// Package bus publishes trigger events to the configured event bus.
//
// Every entry is wrapped in a CloudEvents envelope before it hits the wire,
// so consumers on NATS, Kafka or Pub/Sub can filter on the same attributes:
// ce-source carries the entry Source and ce-type its DetailType.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// BusExtension is the CloudEvents extension attribute carrying the bus name.
const BusExtension = "eventbus"

// Entry is one event put on the bus. Detail must be a JSON document.
type Entry struct {
	Source       string
	DetailType   string
	Detail       string
	EventBusName string
}

// EventBus publishes entries. Implementations are safe for concurrent use.
type EventBus interface {
	// PutEvents publishes entries in order and stops at the first failure.
	PutEvents(ctx context.Context, entries ...Entry) error

	// Ping validates connectivity for the readiness probe.
	Ping(ctx context.Context) error

	Close() error
}

// Message is an encoded entry ready for a broker.
type Message struct {
	ID         string
	Topic      string
	Data       []byte
	Attributes map[string]string
}

// Encode wraps entry into a structured-mode CloudEvent.
func Encode(entry Entry) (Message, error) {
	const op = "bus.Encode"

	if entry.EventBusName == "" {
		return Message{}, fmt.Errorf("%s: %w", op, errors.New("EventBusName required"))
	}
	if !json.Valid([]byte(entry.Detail)) {
		return Message{}, fmt.Errorf("%s: detail is not valid JSON", op)
	}

	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSource(entry.Source)
	event.SetType(entry.DetailType)
	event.SetTime(time.Now().UTC())
	event.SetExtension(BusExtension, entry.EventBusName)
	if err := event.SetData(cloudevents.ApplicationJSON, []byte(entry.Detail)); err != nil {
		return Message{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := event.Validate(); err != nil {
		return Message{}, fmt.Errorf("%s: %w", op, err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return Message{}, fmt.Errorf("%s: %w", op, err)
	}

	return Message{
		ID:    event.ID(),
		Topic: entry.EventBusName,
		Data:  data,
		Attributes: map[string]string{
			"ce-id":          event.ID(),
			"ce-source":      event.Source(),
			"ce-type":        event.Type(),
			"ce-specversion": event.SpecVersion(),
			"ce-eventbus":    entry.EventBusName,
			"content-type":   "application/cloudevents+json; charset=UTF-8",
		},
	}, nil
}

// publishAll encodes and sends entries in order through send.
func publishAll(ctx context.Context, op string, entries []Entry, send func(context.Context, Message) error) error {
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		msg, err := Encode(entry)
		if err != nil {
			return fmt.Errorf("%s: entry %d: %w", op, i, err)
		}
		if err := send(ctx, msg); err != nil {
			return fmt.Errorf("%s: entry %d: %w", op, i, err)
		}
	}
	return nil
}
