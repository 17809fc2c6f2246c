package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes each entry to the topic named by its EventBusName.
type KafkaPublisher struct {
	brokers []string
	writer  *kafka.Writer
}

// kafkaBatchTimeout bounds how long a synchronous write waits for a batch to fill.
const kafkaBatchTimeout = 10 * time.Millisecond

// NewKafkaPublisher creates a synchronous writer for brokers; each doorbell
// press is flushed on its own instead of waiting for a batch.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		brokers: brokers,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireOne,
			Async:                  false,
			BatchSize:              1,
			BatchTimeout:           kafkaBatchTimeout,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) PutEvents(ctx context.Context, entries ...Entry) error {
	return publishAll(ctx, "bus.kafka.PutEvents", entries, p.send)
}

func (p *KafkaPublisher) send(ctx context.Context, m Message) error {
	return p.writer.WriteMessages(ctx, toKafkaMessage(m))
}

func toKafkaMessage(m Message) kafka.Message {
	headers := make([]kafka.Header, 0, len(m.Attributes))
	for k, v := range m.Attributes {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return kafka.Message{
		Topic:   m.Topic,
		Key:     []byte(m.ID),
		Value:   m.Data,
		Headers: headers,
	}
}

// Ping dials the first reachable broker.
func (p *KafkaPublisher) Ping(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.New("bus.kafka.Ping: no brokers configured")
	}

	var lastErr error
	for _, b := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", b)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("bus.kafka.Ping: %w", lastErr)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
