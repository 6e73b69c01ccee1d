// Package view renders catalog pages and serves the browser scripts.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/internal/validation"
)

// Page names understood by Render.
const (
	Index         = "index"
	Product       = "product"
	AddProduct    = "addproduct"
	EditProduct   = "editproduct"
	SearchProduct = "searchproduct"
	NotFound      = "notfound"
	Error         = "error"
)

var pages = []string{Index, Product, AddProduct, EditProduct, SearchProduct, NotFound, Error}

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Renderer writes a named page to w.
type Renderer interface {
	Render(w io.Writer, name string, data any) error
}

// PageData is the data every page template receives.
type PageData struct {
	HeadTitle string
	Products  []service.ProductDto
	Product   *service.ProductDto
	// Form holds submitted values when the add form is shown again.
	Form    validation.ProductForm
	Errors  []validation.FieldError
	Search  string
	// Select is the field the listing is filtered by.
	Select  string
	Message string
}

// TemplateRenderer renders the embedded html templates.
// Each page is parsed together with the shared layout.
type TemplateRenderer struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// NewTemplateRenderer parses the layout and every page template.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	templates := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = t
	}
	return &TemplateRenderer{templates: templates}, nil
}

// Render executes the named page inside the layout.
func (r *TemplateRenderer) Render(w io.Writer, name string, data any) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}

// Static serves the embedded static tree, e.g. /js/main.js.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// the directory is embedded at build time
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
