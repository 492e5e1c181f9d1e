package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/interceptors"
)

type observed struct {
	route  string
	status int
}

type recorder struct{ calls []observed }

func (r *recorder) ObserveRequest(route string, status int, _ time.Duration) {
	r.calls = append(r.calls, observed{route, status})
}

func TestAttachRequestContext(t *testing.T) {
	var gotID, gotKey string
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(AttachRequestContext)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		gotID = interceptors.RequestIDFromContext(r.Context())
		gotKey = interceptors.IdempotencyKeyFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	req.Header.Set(HeaderIdempotencyKey, "idem-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", gotID)
	assert.Equal(t, "idem-1", gotKey)
	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	obs := &recorder{}
	r := chi.NewRouter()
	r.Use(Metrics(obs))
	r.Get("/carts/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/carts/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Len(t, obs.calls, 2)
	assert.Equal(t, observed{"/carts/{id}", http.StatusTeapot}, obs.calls[0])
	assert.Equal(t, http.StatusNotFound, obs.calls[1].status)
}
