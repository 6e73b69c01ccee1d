package view

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_TemplateRenderer_Render(t *testing.T) {
	desk := service.ProductDto{ID: "0123456789abcdef01234567", Title: "Desk", Category: []string{"office", "furniture"}, Color: "black", Quantity: 4, Etc: "oak"}
	testCases := []struct {
		name     string
		page     string
		data     PageData
		contains []string
	}{
		{
			name:     "index lists products",
			page:     Index,
			data:     PageData{HeadTitle: "Home", Products: []service.ProductDto{desk}},
			contains: []string{"<title>Catalog | Home</title>", `href="/products/0123456789abcdef01234567"`, "office, furniture"},
		},
		{
			name:     "index keeps the active filter term",
			page:     Index,
			data:     PageData{HeadTitle: "Home", Search: "red"},
			contains: []string{`name="search" value="red"`, "No products found."},
		},
		{
			name:     "index keeps the active filter field",
			page:     Index,
			data:     PageData{HeadTitle: "Home", Search: "red", Select: "color"},
			contains: []string{`<option value="color" selected>Color</option>`, `<option value="title">Title</option>`},
		},
		{
			name:     "stored quantity that is not an integer is shown as stored",
			page:     Product,
			data:     PageData{HeadTitle: "Lamp", Product: &service.ProductDto{ID: "0123456789abcdef01234568", Title: "Lamp", RawQuantity: "abc"}},
			contains: []string{"<dd>abc</dd>"},
		},
		{
			name:     "edit form pre-fills a stored quantity that is not an integer",
			page:     EditProduct,
			data:     PageData{HeadTitle: "Edit Product", Product: &service.ProductDto{ID: "0123456789abcdef01234568", Title: "Lamp", RawQuantity: "abc"}},
			contains: []string{`name="quantity" value="abc"`},
		},
		{
			name:     "product detail",
			page:     Product,
			data:     PageData{HeadTitle: desk.Title, Product: &desk},
			contains: []string{"<h1>Desk</h1>", `data-id="0123456789abcdef01234567"`, "oak"},
		},
		{
			name: "add form keeps submitted values and errors",
			page: AddProduct,
			data: PageData{
				HeadTitle: "Add Product",
				Form:      validation.ProductForm{Title: "Desk", Category: []string{"office"}, Quantity: "abc"},
				Errors:    []validation.FieldError{{Field: "quantity", Message: "Enter acceptable quantity"}},
			},
			contains: []string{`name="title" value="Desk"`, `name="category" value="office"`, `name="quantity" value="abc"`, "Enter acceptable quantity"},
		},
		{
			name:     "edit form is pre-filled",
			page:     EditProduct,
			data:     PageData{HeadTitle: "Edit Product", Product: &desk},
			contains: []string{`action="/products/edit/0123456789abcdef01234567"`, `name="quantity" value="4"`},
		},
		{
			name:     "search results",
			page:     SearchProduct,
			data:     PageData{HeadTitle: "Home", Products: []service.ProductDto{desk}},
			contains: []string{"Search results", "Desk"},
		},
		{
			name:     "not found",
			page:     NotFound,
			data:     PageData{HeadTitle: "Not Found"},
			contains: []string{"Product not found"},
		},
		{
			name:     "error",
			page:     Error,
			data:     PageData{HeadTitle: "Error", Message: "Unknown filter field"},
			contains: []string{"Unknown filter field"},
		},
	}

	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var buf bytes.Buffer
			// when
			err := renderer.Render(&buf, tc.page, tc.data)
			// then
			require.NoError(t, err)
			for _, s := range tc.contains {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func Test_TemplateRenderer_EscapesValues(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)
	var buf bytes.Buffer

	err = renderer.Render(&buf, Product, PageData{Product: &service.ProductDto{Title: "<script>alert(1)</script>"}})

	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func Test_TemplateRenderer_UnknownPage(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	err = renderer.Render(io.Discard, "missing", PageData{})

	assert.Error(t, err)
}

func Test_Static(t *testing.T) {
	// given
	server := httptest.NewServer(Static())
	defer server.Close()
	// when
	resp, err := http.Get(server.URL + "/js/main.js")
	// then
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Deleting product")
}
