package store

import (
	"context"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// storeSuite holds the behaviour every ProductStore implementation must share.
// Concrete suites embed it and assign store in SetupTest.
type storeSuite struct {
	suite.Suite
	ctx   context.Context
	store ProductStore
}

// createTestProduct is a helper function to create a product for testing purposes.
func (s *storeSuite) createTestProduct(title, color string, quantity int, category ...string) *Product {
	s.T().Helper()
	product, err := s.store.Create(s.ctx, ProductFields{
		Title:    title,
		Category: category,
		Color:    color,
		Quantity: quantity,
	})
	require.NoError(s.T(), err, "createTestProduct helper failed to create product")
	return product
}

func titles(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Title
	}
	return out
}

func (s *storeSuite) TestCreateAndFindByID() {
	// 1. Create a new product
	toCreate := ProductFields{
		Title:    "Desk",
		Category: []string{"office", "furniture"},
		Color:    "black",
		Quantity: 4,
		Etc:      "solid oak",
	}
	created, err := s.store.Create(s.ctx, toCreate)
	require.NoError(s.T(), err)

	// 2. Check that the product was created with an ID
	require.False(s.T(), created.ID.IsZero(), "Created product ID should be assigned")

	// 3. Fetch the product by ID and compare every field
	fetched, err := s.store.FindByID(s.ctx, created.ID.Hex())
	require.NoError(s.T(), err, "FindByID should not return an error")
	assert.Equal(s.T(), created.ID, fetched.ID)
	assert.Equal(s.T(), toCreate.Title, fetched.Title)
	assert.Equal(s.T(), toCreate.Category, fetched.Category)
	assert.Equal(s.T(), toCreate.Color, fetched.Color)
	assert.Equal(s.T(), toCreate.Quantity, fetched.Quantity)
	assert.Equal(s.T(), toCreate.Etc, fetched.Etc)
}

func (s *storeSuite) TestFindByID_NotFound() {
	_, err := s.store.FindByID(s.ctx, primitive.NewObjectID().Hex())
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
}

func (s *storeSuite) TestFindByID_MalformedID() {
	_, err := s.store.FindByID(s.ctx, "not-an-object-id")
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
}

func (s *storeSuite) TestFindAll() {
	s.createTestProduct("Chair", "red", 1, "office")
	s.createTestProduct("Lamp", "white", 2, "lighting")

	products, err := s.store.FindAll(s.ctx)

	require.NoError(s.T(), err)
	assert.ElementsMatch(s.T(), []string{"Chair", "Lamp"}, titles(products))
}

func (s *storeSuite) TestFindAll_Empty() {
	products, err := s.store.FindAll(s.ctx)

	require.NoError(s.T(), err)
	assert.NotNil(s.T(), products)
	assert.Empty(s.T(), products)
}

func (s *storeSuite) TestFindMatching() {
	s.createTestProduct("Office Chair", "Dark Red", 12, "office", "seating")
	s.createTestProduct("armchair", "blue", 3, "living room")
	s.createTestProduct("Desk", "RED", 40, "office")
	s.createTestProduct("Lamp (a.*)", "white", 5, "lighting")

	testCases := []struct {
		name     string
		matches  []Match
		expected []string
	}{
		{
			name:     "title substring in any case",
			matches:  []Match{{Field: FieldTitle, Term: "CHAIR"}},
			expected: []string{"Office Chair", "armchair"},
		},
		{
			name:     "color substring",
			matches:  []Match{{Field: FieldColor, Term: "red"}},
			expected: []string{"Office Chair", "Desk"},
		},
		{
			name:     "any category element",
			matches:  []Match{{Field: FieldCategory, Term: "seat"}},
			expected: []string{"Office Chair"},
		},
		{
			name:     "quantity as text",
			matches:  []Match{{Field: FieldQuantity, Term: "4"}},
			expected: []string{"Desk"},
		},
		{
			name:     "metacharacters are literal",
			matches:  []Match{{Field: FieldTitle, Term: "(a.*)"}},
			expected: []string{"Lamp (a.*)"},
		},
		{
			name:     "empty term matches everything",
			matches:  []Match{{Field: FieldTitle, Term: ""}},
			expected: []string{"Office Chair", "armchair", "Desk", "Lamp (a.*)"},
		},
		{
			name:     "matches are combined",
			matches:  []Match{{Field: FieldCategory, Term: "office"}, {Field: FieldColor, Term: "dark"}},
			expected: []string{"Office Chair"},
		},
		{
			name:     "no match",
			matches:  []Match{{Field: FieldTitle, Term: "sofa"}},
			expected: []string{},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			products, err := s.store.FindMatching(s.ctx, tc.matches...)
			require.NoError(s.T(), err)
			assert.ElementsMatch(s.T(), tc.expected, titles(products))
		})
	}
}

func (s *storeSuite) TestUpdateByID() {
	created := s.createTestProduct("Chair", "red", 1, "office")

	toUpdate := ProductFields{
		Title:    "Armchair",
		Category: []string{"living room"},
		Color:    "green",
		Quantity: 7,
		Etc:      "velvet",
	}
	err := s.store.UpdateByID(s.ctx, created.ID.Hex(), toUpdate)
	require.NoError(s.T(), err, "UpdateByID should not return an error")

	fetched, err := s.store.FindByID(s.ctx, created.ID.Hex())
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created.ID, fetched.ID, "ID must not change")
	assert.Equal(s.T(), toUpdate.Title, fetched.Title)
	assert.Equal(s.T(), toUpdate.Category, fetched.Category)
	assert.Equal(s.T(), toUpdate.Color, fetched.Color)
	assert.Equal(s.T(), toUpdate.Quantity, fetched.Quantity)
	assert.Equal(s.T(), toUpdate.Etc, fetched.Etc)
}

func (s *storeSuite) TestUpdateByID_NotFound() {
	err := s.store.UpdateByID(s.ctx, primitive.NewObjectID().Hex(), ProductFields{Title: "Ghost"})
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
}

func (s *storeSuite) TestDeleteByID() {
	created := s.createTestProduct("Chair", "red", 1, "office")

	deleted, err := s.store.DeleteByID(s.ctx, created.ID.Hex())
	require.NoError(s.T(), err, "DeleteByID should not return an error")
	assert.True(s.T(), deleted, "DeleteByID should report the removal")

	_, err = s.store.FindByID(s.ctx, created.ID.Hex())
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound, "Expected ErrProductNotFound for deleted product")
}

func (s *storeSuite) TestDeleteByID_Idempotent() {
	kept := s.createTestProduct("Lamp", "white", 2, "lighting")
	missing := primitive.NewObjectID().Hex()

	for _, id := range []string{missing, missing, "malformed", kept.ID.Hex() + "0"} {
		deleted, err := s.store.DeleteByID(s.ctx, id)
		require.NoError(s.T(), err, "deleting %q should succeed", id)
		assert.False(s.T(), deleted, "nothing should be removed for %q", id)
	}

	products, err := s.store.FindAll(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{kept.Title}, titles(products))
}
