package bus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triggerEntry() Entry {
	return Entry{
		Source:       "doorbell.lambda",
		DetailType:   "DoorbellTriggered",
		Detail:       `{"eventId":"evt-1","houseId":"H2"}`,
		EventBusName: "DoorbellEventBus",
	}
}

func TestEncode(t *testing.T) {
	msg, err := Encode(triggerEntry())
	require.NoError(t, err)

	assert.Equal(t, "DoorbellEventBus", msg.Topic)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, msg.ID, msg.Attributes["ce-id"])
	assert.Equal(t, "doorbell.lambda", msg.Attributes["ce-source"])
	assert.Equal(t, "DoorbellTriggered", msg.Attributes["ce-type"])
	assert.Equal(t, "DoorbellEventBus", msg.Attributes["ce-eventbus"])

	var ev cloudevents.Event
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, "doorbell.lambda", ev.Source())
	assert.Equal(t, "DoorbellTriggered", ev.Type())
	assert.Equal(t, cloudevents.ApplicationJSON, ev.DataContentType())
	assert.JSONEq(t, `{"eventId":"evt-1","houseId":"H2"}`, string(ev.Data()))

	bus, err := ev.Context.GetExtension(BusExtension)
	require.NoError(t, err)
	assert.Equal(t, "DoorbellEventBus", bus)
}

func TestEncode_UniqueIDs(t *testing.T) {
	a, err := Encode(triggerEntry())
	require.NoError(t, err)
	b, err := Encode(triggerEntry())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestEncode_Rejects(t *testing.T) {
	noBus := triggerEntry()
	noBus.EventBusName = ""
	_, err := Encode(noBus)
	assert.Error(t, err)

	badDetail := triggerEntry()
	badDetail.Detail = "{not json"
	_, err = Encode(badDetail)
	assert.Error(t, err)

	noType := triggerEntry()
	noType.DetailType = ""
	_, err = Encode(noType)
	assert.Error(t, err)
}

func TestPublishAll_StopsAtFirstFailure(t *testing.T) {
	var sent []Message
	calls := 0
	send := func(_ context.Context, m Message) error {
		calls++
		if calls == 2 {
			return errors.New("broker unavailable")
		}
		sent = append(sent, m)
		return nil
	}

	err := publishAll(context.Background(), "bus.test", []Entry{triggerEntry(), triggerEntry(), triggerEntry()}, send)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bus.test: entry 1: broker unavailable")
	assert.Equal(t, 2, calls)
	assert.Len(t, sent, 1)
}

func TestPublishAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := publishAll(ctx, "bus.test", []Entry{triggerEntry()}, func(context.Context, Message) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestToKafkaMessage(t *testing.T) {
	msg, err := Encode(triggerEntry())
	require.NoError(t, err)

	km := toKafkaMessage(msg)
	assert.Equal(t, "DoorbellEventBus", km.Topic)
	assert.Equal(t, []byte(msg.ID), km.Key)
	assert.Equal(t, msg.Data, km.Value)

	headers := map[string]string{}
	for _, h := range km.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, msg.Attributes, headers)
}

func TestNewKafkaPublisher_FlushesEachMessage(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"})
	defer p.Close()

	assert.False(t, p.writer.Async)
	assert.Equal(t, 1, p.writer.BatchSize)
	assert.Equal(t, kafkaBatchTimeout, p.writer.BatchTimeout)
	assert.Less(t, p.writer.BatchTimeout, 100*time.Millisecond)
}

func TestKafkaPublisher_PingWithoutBrokers(t *testing.T) {
	p := NewKafkaPublisher(nil)
	defer p.Close()

	assert.Error(t, p.Ping(context.Background()))
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	cfg := DefaultNATSConfig()
	cfg.URL = "nats://127.0.0.1:1"
	cfg.MaxReconnects = 0
	cfg.Timeout = 200 * time.Millisecond

	_, err := NewNATSPublisher(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bus.nats.New")
}
