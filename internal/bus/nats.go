package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/PratikDhanave/doorbell-event-service/internal/logging"
)

// NATSConfig holds NATS publisher configuration.
type NATSConfig struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
	// FlushTimeout bounds the round trip that confirms the server accepted a publish.
	FlushTimeout time.Duration
}

// DefaultNATSConfig returns a NATSConfig with reconnect-forever defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "doorbell-event-service",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
		FlushTimeout:  5 * time.Second,
	}
}

// NATSPublisher publishes each entry on the subject named by its EventBusName.
type NATSPublisher struct {
	conn         *nats.Conn
	flushTimeout time.Duration
}

// NewNATSPublisher connects to NATS and logs disconnects and reconnects on log.
func NewNATSPublisher(cfg NATSConfig, log *slog.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", logging.Err(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("bus.nats.New: %w", err)
	}

	return &NATSPublisher{conn: conn, flushTimeout: cfg.FlushTimeout}, nil
}

func (p *NATSPublisher) PutEvents(ctx context.Context, entries ...Entry) error {
	return publishAll(ctx, "bus.nats.PutEvents", entries, p.send)
}

func (p *NATSPublisher) send(_ context.Context, m Message) error {
	msg := &nats.Msg{
		Subject: m.Topic,
		Data:    m.Data,
		Header:  make(nats.Header, len(m.Attributes)),
	}
	for k, v := range m.Attributes {
		msg.Header.Set(k, v)
	}

	if err := p.conn.PublishMsg(msg); err != nil {
		return err
	}
	return p.conn.FlushTimeout(p.flushTimeout)
}

func (p *NATSPublisher) Ping(_ context.Context) error {
	if !p.conn.IsConnected() {
		return errors.New("nats not connected")
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
