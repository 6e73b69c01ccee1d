// Package app contains the application setup for the catalog.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/catalog/internal/config"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/abgdnv/catalog/internal/transport/handler"
	"github.com/abgdnv/catalog/internal/view"
	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/server"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Dependencies struct {
	ProductService service.ProductService
	Renderer       view.Renderer
	Pinger         store.Pinger
	Logger         *slog.Logger
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Instrumented wraps the router with otelhttp for request spans and metrics.
	Instrumented bool
}

// SetupDependencies builds the service and page renderer on top of the given store.
// A nil publisher disables catalog events.
func SetupDependencies(productStore store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) (*Dependencies, error) {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	renderer, err := view.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	deps := &Dependencies{
		ProductService: service.NewService(productStore, publisher, logger),
		Renderer:       renderer,
		Logger:         logger,
	}
	if pinger, ok := productStore.(store.Pinger); ok {
		deps.Pinger = pinger
	}
	return deps, nil
}

// SetupHttpHandler initializes the routes and middleware of the catalog.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	if deps.Instrumented {
		return otelhttp.NewHandler(mux, "catalog",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}
	return mux
}

// wireRoutes sets up the HTTP routes for the catalog.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productHandler := handler.NewHandler(deps.ProductService, deps.Renderer, deps.Pinger, deps.Logger)
	productHandler.RegisterRoutes(mux)
	mux.Handle("/js/*", view.Static())
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics)
	}
}

// SetupHttpServer creates and configures an HTTP server for the catalog.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}
