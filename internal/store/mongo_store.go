package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore implements ProductStore using a MongoDB collection as the data store.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a new instance of ProductStore backed by the given collection.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// Ping checks that the MongoDB deployment is reachable.
func (m *MongoStore) Ping(ctx context.Context) error {
	return m.coll.Database().Client().Ping(ctx, readpref.Primary())
}

// FindAll retrieves every product in the collection.
func (m *MongoStore) FindAll(ctx context.Context) ([]Product, error) {
	products, err := m.find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

// FindByID retrieves a product by its hex identifier.
// Returns ErrProductNotFound if the ID is malformed or no product exists with it.
func (m *MongoStore) FindByID(ctx context.Context, id string) (*Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, perrors.ErrProductNotFound
	}
	var product Product
	if err := m.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return &product, nil
}

// FindMatching retrieves the products satisfying every match.
func (m *MongoStore) FindMatching(ctx context.Context, matches ...Match) ([]Product, error) {
	products, err := m.find(ctx, buildFilter(matches))
	if err != nil {
		return nil, fmt.Errorf("failed to find matching products: %w", err)
	}
	return products, nil
}

// Create inserts a new product and returns it with the ID assigned by the driver.
func (m *MongoStore) Create(ctx context.Context, fields ProductFields) (*Product, error) {
	product := Product{
		ID:       primitive.NewObjectID(),
		Title:    fields.Title,
		Category: fields.Category,
		Color:    fields.Color,
		Quantity: fields.Quantity,
		Etc:      fields.Etc,
	}
	if _, err := m.coll.InsertOne(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// UpdateByID overwrites the given fields of an existing product.
// Returns ErrProductNotFound if no product exists with the given ID.
func (m *MongoStore) UpdateByID(ctx context.Context, id string, fields ProductFields) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return perrors.ErrProductNotFound
	}
	res, err := m.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: fields}},
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return perrors.ErrProductNotFound
	}
	return nil
}

// DeleteByID removes a product by its ID. Missing or malformed IDs are treated as already deleted.
func (m *MongoStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := m.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return false, fmt.Errorf("failed to delete product by ID: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (m *MongoStore) find(ctx context.Context, filter bson.D) ([]Product, error) {
	cursor, err := m.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	products := make([]Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// buildFilter translates matches into a MongoDB query document.
// Terms are quoted so they match literally; quantity is matched on its decimal text.
func buildFilter(matches []Match) bson.D {
	if len(matches) == 0 {
		return bson.D{}
	}
	clauses := make(bson.A, 0, len(matches))
	for _, match := range matches {
		pattern := regexp.QuoteMeta(match.Term)
		if match.Field == FieldQuantity {
			clauses = append(clauses, bson.D{{Key: "$expr", Value: bson.D{{Key: "$regexMatch", Value: bson.D{
				{Key: "input", Value: bson.D{{Key: "$toString", Value: "$" + string(FieldQuantity)}}},
				{Key: "regex", Value: pattern},
				{Key: "options", Value: "i"},
			}}}}})
			continue
		}
		clauses = append(clauses, bson.D{{Key: string(match.Field), Value: primitive.Regex{Pattern: pattern, Options: "i"}}})
	}
	return bson.D{{Key: "$and", Value: clauses}}
}
