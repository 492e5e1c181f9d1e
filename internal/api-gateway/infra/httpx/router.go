package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/ecommerce-checkout/internal/api-gateway/infra/httpx/middlewares"
)

// NewRouter mounts the storefront routes. obs and metricsHandler may be nil.
func NewRouter(handler *Handler, obs middlewares.RequestObserver, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestContext)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if obs != nil {
		r.Use(middlewares.Metrics(obs))
	}

	r.Get("/healthz", handler.Healthz)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/products", func(r chi.Router) {
		r.Post("/", handler.CreateProduct)
		r.Get("/{id}", handler.GetProduct)
		r.Post("/{id}/expire", handler.ExpireProduct)
	})

	r.Route("/customers", func(r chi.Router) {
		r.Post("/", handler.CreateCustomer)
		r.Get("/{id}", handler.GetCustomer)
		r.Post("/{id}/top-up", handler.TopUp)
	})

	r.Route("/carts", func(r chi.Router) {
		r.Post("/", handler.CreateCart)
		r.Get("/{id}", handler.GetCart)
		r.Post("/{id}/items", handler.AddItem)
		r.Post("/{id}/checkout", handler.Checkout)
	})

	r.Get("/checkouts/{id}", handler.GetCheckout)
	return r
}
