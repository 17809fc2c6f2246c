package bus

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
)

// PubSubPublisher publishes each entry to the Pub/Sub topic named by its EventBusName.
type PubSubPublisher struct {
	client *pubsub.Client
	bus    string

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSubPublisher connects to Pub/Sub and ensures the default bus topic exists.
// An empty projectID pulls the quota project from ADC.
func NewPubSubPublisher(ctx context.Context, projectID, busName string) (*PubSubPublisher, error) {
	const op = "bus.pubsub.New"

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	topic := client.Topic(busName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%s: check topic: %w", op, err)
	}
	if !exists {
		if topic, err = client.CreateTopic(ctx, busName); err != nil {
			client.Close()
			return nil, fmt.Errorf("%s: create topic: %w", op, err)
		}
	}

	return &PubSubPublisher{
		client: client,
		bus:    busName,
		topics: map[string]*pubsub.Topic{busName: topic},
	}, nil
}

func (p *PubSubPublisher) PutEvents(ctx context.Context, entries ...Entry) error {
	return publishAll(ctx, "bus.pubsub.PutEvents", entries, p.send)
}

func (p *PubSubPublisher) send(ctx context.Context, m Message) error {
	res := p.topic(m.Topic).Publish(ctx, &pubsub.Message{
		Data:       m.Data,
		Attributes: m.Attributes,
	})
	_, err := res.Get(ctx)
	return err
}

func (p *PubSubPublisher) topic(name string) *pubsub.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.topics[name]
	if !ok {
		t = p.client.Topic(name)
		p.topics[name] = t
	}
	return t
}

func (p *PubSubPublisher) Ping(ctx context.Context) error {
	ok, err := p.topic(p.bus).Exists(ctx)
	if err != nil {
		return fmt.Errorf("bus.pubsub.Ping: %w", err)
	}
	if !ok {
		return fmt.Errorf("bus.pubsub.Ping: topic %s missing", p.bus)
	}
	return nil
}

func (p *PubSubPublisher) Close() error {
	p.mu.Lock()
	for _, t := range p.topics {
		t.Stop()
	}
	p.mu.Unlock()
	return p.client.Close()
}
