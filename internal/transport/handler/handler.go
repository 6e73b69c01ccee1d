// Package handler provides the HTTP handlers of the catalog web pages.
package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/abgdnv/catalog/internal/validation"
	"github.com/abgdnv/catalog/internal/view"
	"github.com/abgdnv/catalog/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	titleHome        = "Home"
	titleAddProduct  = "Add Product"
	titleEditProduct = "Edit Product"
	titleNotFound    = "Not Found"
	titleError       = "Error"

	maxFormBytes = 1 << 20
)

type Handler struct {
	service   service.ProductService
	validator *validation.Validator
	renderer  view.Renderer
	pinger    store.Pinger
	logger    *slog.Logger
}

// NewHandler creates a new Handler. pinger backs /readyz and may be nil.
func NewHandler(service service.ProductService, renderer view.Renderer, pinger store.Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		validator: validation.New(),
		renderer:  renderer,
		pinger:    pinger,
		logger:    logger.With("component", "handler"),
	}
}

// RegisterRoutes registers the catalog pages and probes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.FindAll)

	r.Route("/products", func(r chi.Router) {
		r.Get("/add", h.AddForm)
		r.Post("/add", h.Create)
		r.Get("/edit/{id}", h.EditForm)
		r.Post("/edit/{id}", h.Update)
		r.Get("/{id}", h.FindByID)
	})
	r.Delete("/product/{id}", h.DeleteByID)

	r.Get("/search", h.Search)
	r.Get("/filter", h.Filter)

	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.ReadinessCheck)
}

// FindAll renders every product.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	mLogger.DebugContext(r.Context(), "Received request to list products")
	list, err := h.service.FindAll(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		h.renderError(w, r, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	h.render(w, r, mLogger, http.StatusOK, view.Index, view.PageData{HeadTitle: titleHome, Products: list})
}

// FindByID renders a single product.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")
	mLogger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, ok := h.findProduct(w, r, mLogger, id)
	if !ok {
		return
	}
	h.render(w, r, mLogger, http.StatusOK, view.Product, view.PageData{HeadTitle: found.Title, Product: found})
}

// AddForm renders the empty add form.
func (h *Handler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.loggerWithReqID(r), http.StatusOK, view.AddProduct, view.PageData{HeadTitle: titleAddProduct})
}

// Create validates the submitted form and stores a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	form, ok := h.parseForm(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to create product", "title", form.Title)
	if errs := h.validator.Validate(form); errs != nil {
		mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errs)
		h.render(w, r, mLogger, http.StatusBadRequest, view.AddProduct, view.PageData{
			HeadTitle: titleAddProduct,
			Form:      form,
			Errors:    errs,
		})
		return
	}

	created, err := h.service.Create(r.Context(), form)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		h.renderError(w, r, mLogger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "title", created.Title)
	http.Redirect(w, r, "/", http.StatusFound)
}

// EditForm renders the edit form pre-filled with the stored product.
func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")
	mLogger.DebugContext(r.Context(), "Received request to edit product", "ID", id)
	found, ok := h.findProduct(w, r, mLogger, id)
	if !ok {
		return
	}
	h.render(w, r, mLogger, http.StatusOK, view.EditProduct, view.PageData{HeadTitle: titleEditProduct, Product: found})
}

// Update validates the submitted form and overwrites the stored product.
// An invalid form is shown again with the stored values.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")
	form, ok := h.parseForm(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to update product", "ID", id)
	if errs := h.validator.Validate(form); errs != nil {
		mLogger.WarnContext(r.Context(), "Validation errors occurred", "ID", id, "errors", errs)
		stored, ok := h.findProduct(w, r, mLogger, id)
		if !ok {
			return
		}
		h.render(w, r, mLogger, http.StatusBadRequest, view.EditProduct, view.PageData{
			HeadTitle: titleEditProduct,
			Product:   stored,
			Errors:    errs,
		})
		return
	}

	if err := h.service.Update(r.Context(), id, form); err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found for update", "ID", id)
			h.renderError(w, r, mLogger, http.StatusNotFound, "")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error updating product", "ID", id, "error", err)
		h.renderError(w, r, mLogger, http.StatusInternalServerError, "Failed to update product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", id)
	http.Redirect(w, r, "/", http.StatusFound)
}

// DeleteByID deletes a product. Deleting a product that does not exist also succeeds.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")
	mLogger.DebugContext(r.Context(), "Received request to delete product", "ID", id)
	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		mLogger.ErrorContext(r.Context(), "Error deleting product", "ID", id, "error", err)
		web.RespondText(w, mLogger, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	web.RespondText(w, mLogger, http.StatusOK, "Success")
}

// Search renders the products whose title contains the search term.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	term := r.URL.Query().Get("search")
	mLogger.DebugContext(r.Context(), "Received request to search products", "search", term)
	list, err := h.service.Search(r.Context(), term)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error searching products", "search", term, "error", err)
		h.renderError(w, r, mLogger, http.StatusInternalServerError, "Failed to search products")
		return
	}
	h.render(w, r, mLogger, http.StatusOK, view.SearchProduct, view.PageData{HeadTitle: titleHome, Products: list})
}

// Filter renders the products whose selected field contains the search term.
func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	query := r.URL.Query()
	selected, term := query.Get("select"), query.Get("search")
	mLogger.DebugContext(r.Context(), "Received request to filter products", "select", selected, "search", term)
	list, err := h.service.Filter(r.Context(), selected, term)
	if err != nil {
		if errors.Is(err, perrors.ErrUnknownFilterField) {
			mLogger.WarnContext(r.Context(), "Rejected filter field", "select", selected)
			h.renderError(w, r, mLogger, http.StatusBadRequest, "Products cannot be filtered by "+selected)
			return
		}
		mLogger.ErrorContext(r.Context(), "Error filtering products", "select", selected, "error", err)
		h.renderError(w, r, mLogger, http.StatusInternalServerError, "Failed to filter products")
		return
	}
	field, _ := service.FilterField(selected)
	h.render(w, r, mLogger, http.StatusOK, view.Index, view.PageData{
		HeadTitle: titleHome,
		Products:  list,
		Search:    term,
		Select:    string(field),
	})
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ReadinessCheck reports whether the store is reachable.
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			mLogger.WarnContext(r.Context(), "Store is not reachable", "error", err)
			web.RespondError(w, mLogger, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"status": "ready"})
}

// findProduct loads a product and writes the 404 or 500 page when it cannot.
func (h *Handler) findProduct(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, id string) (*service.ProductDto, bool) {
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found", "ID", id)
			h.renderError(w, r, mLogger, http.StatusNotFound, "")
			return nil, false
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		h.renderError(w, r, mLogger, http.StatusInternalServerError, "Failed to retrieve product")
		return nil, false
	}
	return found, true
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (validation.ProductForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		mLogger.WarnContext(r.Context(), "Error parsing form", "error", err)
		h.renderError(w, r, mLogger, http.StatusBadRequest, "Invalid form submission")
		return validation.ProductForm{}, false
	}
	return validation.FormFromValues(r.PostForm), true
}

// render writes the page only after it rendered completely, so a template error becomes a 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, status int, page string, data view.PageData) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, page, data); err != nil {
		mLogger.ErrorContext(r.Context(), "Error rendering page", "page", page, "error", err)
		web.RespondText(w, mLogger, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	web.RespondHTML(w, mLogger, status, buf.Bytes())
}

// renderError writes the not found page for 404 and the error page otherwise.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, status int, message string) {
	if status == http.StatusNotFound {
		h.render(w, r, mLogger, status, view.NotFound, view.PageData{HeadTitle: titleNotFound, Message: message})
		return
	}
	h.render(w, r, mLogger, status, view.Error, view.PageData{HeadTitle: titleError, Message: message})
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
