// Package store provides an interface for product storage operations.
package store

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductStore is an interface for product storage operations.
// It abstracts the underlying document store, allowing for different implementations (e.g., in-memory, MongoDB).
type ProductStore interface {
	// FindAll returns every product, unfiltered, in the order the backend yields them.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// FindByID retrieves a single product by its hex identifier.
	// Returns ErrProductNotFound if the ID is malformed or no product exists with it.
	FindByID(ctx context.Context, id string) (*Product, error)

	// FindMatching returns the products satisfying every match.
	// With no matches it behaves like FindAll.
	FindMatching(ctx context.Context, matches ...Match) ([]Product, error)

	// Create adds a new product and returns it with its assigned ID.
	Create(ctx context.Context, fields ProductFields) (*Product, error)

	// UpdateByID overwrites the given fields of an existing product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	UpdateByID(ctx context.Context, id string, fields ProductFields) error

	// DeleteByID removes a product by its ID and reports whether a product was removed.
	// Deleting a product that does not exist is not an error.
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Product is the persisted product document.
type Product struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Title    string             `bson:"title"`
	Category []string           `bson:"category"`
	Color    string             `bson:"color"`
	Quantity int                `bson:"quantity"`
	Etc      string             `bson:"etc"`
	// RawQuantity holds the stored quantity when it is not an integer.
	// Quantity is zero in that case.
	RawQuantity string `bson:"-"`
}

// productDocument mirrors Product with the quantity left undecoded.
type productDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Title    string             `bson:"title"`
	Category []string           `bson:"category"`
	Color    string             `bson:"color"`
	Quantity bson.RawValue      `bson:"quantity"`
	Etc      string             `bson:"etc"`
}

// UnmarshalBSON decodes a product written by any client. Documents inserted without
// validation may carry a quantity that is a double, a string or something else;
// those decode without failing the whole result set.
func (p *Product) UnmarshalBSON(data []byte) error {
	var doc productDocument
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}
	quantity, raw := decodeQuantity(doc.Quantity)
	*p = Product{
		ID:          doc.ID,
		Title:       doc.Title,
		Category:    doc.Category,
		Color:       doc.Color,
		Quantity:    quantity,
		Etc:         doc.Etc,
		RawQuantity: raw,
	}
	return nil
}

// decodeQuantity returns the integer value of v, or its text when v holds no integer.
func decodeQuantity(v bson.RawValue) (int, string) {
	switch v.Type {
	case 0, bson.TypeNull, bson.TypeUndefined:
		return 0, ""
	case bson.TypeInt32:
		return int(v.Int32()), ""
	case bson.TypeInt64:
		return int(v.Int64()), ""
	case bson.TypeDouble:
		f := v.Double()
		if f == math.Trunc(f) && f >= -(1<<63) && f < 1<<63 {
			return int(f), ""
		}
		return 0, strconv.FormatFloat(f, 'f', -1, 64)
	case bson.TypeString:
		s := v.StringValue()
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, ""
		}
		return 0, s
	default:
		return 0, fmt.Sprint(v)
	}
}

// ProductFields holds the writable fields of a product.
type ProductFields struct {
	Title    string   `bson:"title"`
	Category []string `bson:"category"`
	Color    string   `bson:"color"`
	Quantity int      `bson:"quantity"`
	Etc      string   `bson:"etc"`
}

// Field names a queryable product field. Values are the document keys.
type Field string

const (
	FieldTitle    Field = "title"
	FieldCategory Field = "category"
	FieldColor    Field = "color"
	FieldQuantity Field = "quantity"
	FieldEtc      Field = "etc"
)

// Match is a case-insensitive substring match of Term against Field.
// An empty Term matches every product.
type Match struct {
	Field Field
	Term  string
}
