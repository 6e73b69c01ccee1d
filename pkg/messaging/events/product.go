package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/catalog/pkg/messaging"
)

type ProductCreatedEvent struct {
	ProductID string    `json:"product_id"`
	Title     string    `json:"title"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

func (e ProductCreatedEvent) Subject() string {
	return messaging.ProductsCreatedSubject
}

func (e ProductCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductUpdatedEvent struct {
	ProductID string    `json:"product_id"`
	Title     string    `json:"title"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e ProductUpdatedEvent) Subject() string {
	return messaging.ProductsUpdatedSubject
}

func (e ProductUpdatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// ProductDeletedEvent is published once per removed product. Deleting an unknown ID publishes nothing.
type ProductDeletedEvent struct {
	ProductID string    `json:"product_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (e ProductDeletedEvent) Subject() string {
	return messaging.ProductsDeletedSubject
}

func (e ProductDeletedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
