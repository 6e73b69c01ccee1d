package nats

import (
	"context"
	"fmt"

	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamPublisher publishes catalog events to JetStream subjects.
type JetStreamPublisher struct {
	js jetstream.JetStream
}

func NewJetStreamPublisher(js jetstream.JetStream) *JetStreamPublisher {
	return &JetStreamPublisher{js: js}
}

// Publish sends the event and waits for the stream acknowledgement.
func (p *JetStreamPublisher) Publish(ctx context.Context, event messaging.Event) error {
	data, err := event.Payload()
	if err != nil {
		return fmt.Errorf("failed to get event payload: %w", err)
	}
	if _, err := p.js.Publish(ctx, event.Subject(), data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", event.Subject(), err)
	}
	return nil
}
