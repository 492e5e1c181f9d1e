package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/interceptors"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/interceptors/constants"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// AttachRequestContext copies chi's request id and the caller's idempotency
// key onto the request context. It must run after middleware.RequestID.
func AttachRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		idempotencyKey := r.Header.Get(HeaderIdempotencyKey)
		if idempotencyKey == "" {
			idempotencyKey = r.Header.Get(constants.HeaderXIdempotencyKey)
		}

		ctx := interceptors.WithRequestID(r.Context(), requestID)
		if idempotencyKey != "" {
			ctx = context.WithValue(ctx, constants.ContextKeyIdempotencyKey, idempotencyKey)
		}

		w.Header().Set(middleware.RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
