package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abgdnv/catalog/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeps(t *testing.T) *Dependencies {
	t.Helper()
	deps, err := SetupDependencies(store.NewInMemoryStore(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return deps
}

func TestSetupDependencies(t *testing.T) {
	deps := newTestDeps(t)

	assert.NotNil(t, deps.ProductService)
	assert.NotNil(t, deps.Renderer)
	assert.NotNil(t, deps.Pinger, "memory store answers readiness probes")
	assert.Nil(t, deps.Metrics)
	assert.False(t, deps.Instrumented)
}

func TestSetupHttpHandler(t *testing.T) {
	tests := []struct {
		name       string
		metrics    http.Handler
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "home page", path: "/", wantStatus: http.StatusOK, wantBody: "No products found."},
		{name: "static script", path: "/js/main.js", wantStatus: http.StatusOK, wantBody: "DELETE"},
		{name: "metrics disabled", path: "/metrics", wantStatus: http.StatusNotFound},
		{
			name: "metrics enabled",
			metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "# HELP up")
			}),
			path:       "/metrics",
			wantStatus: http.StatusOK,
			wantBody:   "# HELP up",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			deps := newTestDeps(t)
			deps.Metrics = tt.metrics
			handler := SetupHttpHandler(deps)

			// when
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			// then
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestSetupHttpHandler_SetsRequestID(t *testing.T) {
	handler := SetupHttpHandler(newTestDeps(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestSetupHttpHandler_Instrumented(t *testing.T) {
	deps := newTestDeps(t)
	deps.Instrumented = true
	handler := SetupHttpHandler(deps)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
