package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"insightslm-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// RowChangeHandler processes one relayed row change.
type RowChangeHandler func(ctx context.Context, change events.RowChange) error

// Subscriber listens for row changes relayed by other instances.
type Subscriber struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Subscriber{nc: nc, js: js}, nil
}

// Subscribe registers a handler for a row-change subject pattern through a
// durable consumer, so restarts pick up where the instance left off.
func (s *Subscriber) Subscribe(subject string, durableName string, handler RowChangeHandler) error {
	ctx := context.Background()

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	_, err = consumer.Consume(func(msg jetstream.Msg) {
		var change events.RowChange
		if err := json.Unmarshal(msg.Data(), &change); err != nil {
			// Malformed payloads never become valid; drop them.
			log.Printf("Error unmarshalling row change: %v", err)
			msg.Ack()
			return
		}
		if change.OccurredAt.IsZero() {
			change.OccurredAt = time.Now()
		}

		if err := handler(context.Background(), change); err != nil {
			log.Printf("Handler failed for %s: %v", msg.Subject(), err)
			msg.Nak()
			return
		}

		msg.Ack()
	})

	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	log.Printf("Subscribed to %s with durable %s", subject, durableName)
	return nil
}

func (s *Subscriber) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}
