package messaging

import (
	"context"
)

const (
	// ProductsStreamName is the JetStream stream holding catalog events.
	ProductsStreamName = "PRODUCTS"

	ProductsCreatedSubject = "products.created"
	ProductsUpdatedSubject = "products.updated"
	ProductsDeletedSubject = "products.deleted"
)

// ProductsSubjects lists every subject bound to ProductsStreamName.
var ProductsSubjects = []string{"products.>"}

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards every event. Used when messaging is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, _ Event) error {
	return nil
}
