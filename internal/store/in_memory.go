package store

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore implements ProductStore using an in-memory map.
// Products are returned in insertion order.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]Product
	order    []primitive.ObjectID
}

// NewInMemoryStore creates a new empty MemoryStore.
func NewInMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[primitive.ObjectID]Product),
	}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// FindAll retrieves all products.
func (s *MemoryStore) FindAll(ctx context.Context) ([]Product, error) {
	return s.FindMatching(ctx)
}

// FindByID retrieves a product by its ID.
func (s *MemoryStore) FindByID(_ context.Context, id string) (*Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, perrors.ErrProductNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[oid]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	p = clone(p)
	return &p, nil
}

// FindMatching retrieves the products satisfying every match.
func (s *MemoryStore) FindMatching(_ context.Context, matches ...Match) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(s.order))
	for _, oid := range s.order {
		p := s.products[oid]
		if matchesAll(p, matches) {
			list = append(list, clone(p))
		}
	}
	return list, nil
}

// Create creates a new product and returns it.
func (s *MemoryStore) Create(_ context.Context, fields ProductFields) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product := Product{
		ID:       primitive.NewObjectID(),
		Title:    fields.Title,
		Category: slices.Clone(fields.Category),
		Color:    fields.Color,
		Quantity: fields.Quantity,
		Etc:      fields.Etc,
	}
	s.products[product.ID] = product
	s.order = append(s.order, product.ID)

	product = clone(product)
	return &product, nil
}

// UpdateByID overwrites the writable fields of an existing product.
func (s *MemoryStore) UpdateByID(_ context.Context, id string, fields ProductFields) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return perrors.ErrProductNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[oid]
	if !exists {
		return perrors.ErrProductNotFound
	}
	p.Title = fields.Title
	p.Category = slices.Clone(fields.Category)
	p.Color = fields.Color
	p.Quantity = fields.Quantity
	p.Etc = fields.Etc
	s.products[oid] = p
	return nil
}

// DeleteByID deletes a product by its ID. Unknown IDs are ignored.
func (s *MemoryStore) DeleteByID(_ context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[oid]; !exists {
		return false, nil
	}
	delete(s.products, oid)
	s.order = slices.DeleteFunc(s.order, func(o primitive.ObjectID) bool { return o == oid })
	return true, nil
}

func matchesAll(p Product, matches []Match) bool {
	for _, m := range matches {
		if !matchesOne(p, m) {
			return false
		}
	}
	return true
}

func matchesOne(p Product, m Match) bool {
	term := strings.ToLower(m.Term)
	contains := func(v string) bool { return strings.Contains(strings.ToLower(v), term) }
	switch m.Field {
	case FieldTitle:
		return contains(p.Title)
	case FieldCategory:
		return slices.ContainsFunc(p.Category, contains)
	case FieldColor:
		return contains(p.Color)
	case FieldQuantity:
		return contains(strconv.Itoa(p.Quantity))
	case FieldEtc:
		return contains(p.Etc)
	default:
		return false
	}
}

func clone(p Product) Product {
	p.Category = slices.Clone(p.Category)
	return p
}
