// Package service provides the implementation of catalog business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/abgdnv/catalog/internal/validation"
	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/messaging/events"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindAll returns all available products.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// FindByID retrieves a single product by its identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id string) (*ProductDto, error)

	// Create adds a new product built from a validated form.
	Create(ctx context.Context, form validation.ProductForm) (*ProductDto, error)

	// Update overwrites every field of an existing product with a validated form.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id string, form validation.ProductForm) error

	// DeleteByID removes a product by its ID. Deleting a missing product succeeds.
	DeleteByID(ctx context.Context, id string) error

	// Search returns the products whose title contains term, ignoring case.
	Search(ctx context.Context, term string) ([]ProductDto, error)

	// Filter returns the products whose selected field contains term, ignoring case.
	// Returns ErrUnknownFilterField if selected is not a filterable field.
	Filter(ctx context.Context, selected, term string) ([]ProductDto, error)
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new instance of ProductService with the provided repository.
// Change events go to publisher; pass messaging.NopPublisher{} to disable them.
func NewService(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repository: repo,
		publisher:  publisher,
		logger:     logger.With("component", "service"),
		now:        time.Now,
	}
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID       string
	Title    string
	Category []string
	Color    string
	Quantity int
	Etc      string
	// RawQuantity is the stored quantity when the store holds no integer for it.
	RawQuantity string
}

// QuantityText is the quantity as shown on pages and pre-filled in the edit form.
func (p ProductDto) QuantityText() string {
	if p.RawQuantity != "" {
		return p.RawQuantity
	}
	return strconv.Itoa(p.Quantity)
}

// filterFields maps accepted `select` tokens to store fields.
var filterFields = map[string]store.Field{
	"title":       store.FieldTitle,
	"category":    store.FieldCategory,
	"color":       store.FieldColor,
	"quantity":    store.FieldQuantity,
	"etc":         store.FieldEtc,
	"description": store.FieldEtc,
}

// FilterField resolves a user supplied field token against the allow-list.
func FilterField(selected string) (store.Field, error) {
	field, ok := filterFields[strings.ToLower(strings.TrimSpace(selected))]
	if !ok {
		return "", fmt.Errorf("%w: %q", perrors.ErrUnknownFilterField, selected)
	}
	return field, nil
}

// FindAll retrieves a list of all products and returns them as ProductDTOs.
func (s *Service) FindAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toDtos(products), nil
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) FindByID(ctx context.Context, id string) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}
	return toDto(product), nil
}

// Create creates a new product and returns it as a ProductDto.
func (s *Service) Create(ctx context.Context, form validation.ProductForm) (*ProductDto, error) {
	fields, err := toFields(form)
	if err != nil {
		return nil, err
	}
	p, err := s.repository.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	created := toDto(p)
	s.publish(ctx, events.ProductCreatedEvent{
		ProductID: created.ID,
		Title:     created.Title,
		Quantity:  created.Quantity,
		CreatedAt: s.now().UTC(),
	})
	return created, nil
}

// Update overwrites all fields of an existing product.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) Update(ctx context.Context, id string, form validation.ProductForm) error {
	fields, err := toFields(form)
	if err != nil {
		return err
	}
	if err := s.repository.UpdateByID(ctx, id, fields); err != nil {
		return fmt.Errorf("failed to update product with ID %s: %w", id, err)
	}
	s.publish(ctx, events.ProductUpdatedEvent{
		ProductID: id,
		Title:     fields.Title,
		Quantity:  fields.Quantity,
		UpdatedAt: s.now().UTC(),
	})
	return nil
}

// DeleteByID deletes a product by its ID.
// The deleted event is only published when a product was actually removed.
func (s *Service) DeleteByID(ctx context.Context, id string) error {
	deleted, err := s.repository.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product with ID %s: %w", id, err)
	}
	if !deleted {
		s.logger.DebugContext(ctx, "No product to delete", "ID", id)
		return nil
	}
	s.publish(ctx, events.ProductDeletedEvent{
		ProductID: id,
		DeletedAt: s.now().UTC(),
	})
	return nil
}

// Search retrieves the products whose title contains term.
func (s *Service) Search(ctx context.Context, term string) ([]ProductDto, error) {
	products, err := s.repository.FindMatching(ctx, store.Match{Field: store.FieldTitle, Term: term})
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return toDtos(products), nil
}

// Filter retrieves the products whose selected field contains term.
func (s *Service) Filter(ctx context.Context, selected, term string) ([]ProductDto, error) {
	field, err := FilterField(selected)
	if err != nil {
		return nil, err
	}
	products, err := s.repository.FindMatching(ctx, store.Match{Field: field, Term: term})
	if err != nil {
		return nil, fmt.Errorf("failed to filter products by %s: %w", field, err)
	}
	return toDtos(products), nil
}

// publish sends a change event. A failed publish is logged and never fails the write.
func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish catalog event", "subject", event.Subject(), "error", err)
	}
}

// toFields converts a validated form to store fields.
func toFields(form validation.ProductForm) (store.ProductFields, error) {
	quantity, err := strconv.Atoi(form.Quantity)
	if err != nil {
		return store.ProductFields{}, fmt.Errorf("invalid quantity %q: %w", form.Quantity, err)
	}
	return store.ProductFields{
		Title:    form.Title,
		Category: form.Category,
		Color:    form.Color,
		Quantity: quantity,
		Etc:      form.Etc,
	}, nil
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:          product.ID.Hex(),
		Title:       product.Title,
		Category:    product.Category,
		Color:       product.Color,
		Quantity:    product.Quantity,
		Etc:         product.Etc,
		RawQuantity: product.RawQuantity,
	}
}

func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toDto(&products[i])
	}
	return dtos
}
