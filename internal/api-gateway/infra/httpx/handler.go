package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/jcmexdev/ecommerce-checkout/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/ecommerce-checkout/internal/api-gateway/core/ports"
	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/domain"
	"github.com/jcmexdev/ecommerce-checkout/internal/coordinator/txlog"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/cache"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/interceptors"
)

const HeaderIdempotentReplay = "Idempotent-Replayed"

// Handler serves the storefront API.
type Handler struct {
	store  ports.Storefront
	cache  cache.Cache // nil-safe: no replay when nil
	ttl    time.Duration
	checks txlog.Reader // nil-safe: checkout lookups answer 404
	flight singleflight.Group
}

func NewHandler(store ports.Storefront, c cache.Cache, ttl time.Duration, checks txlog.Reader) *Handler {
	return &Handler{store: store, cache: c, ttl: ttl, checks: checks}
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.store.CreateProduct(r.Context(), entity.NewProduct{
		Name:        req.Name,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Expired:     req.Expired,
		WeightGrams: req.WeightGrams,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapProduct(p))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p))
}

func (h *Handler) ExpireProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.ExpireProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p))
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if !decode(w, r, &req) {
		return
	}

	c, err := h.store.CreateCustomer(r.Context(), req.Name, req.Balance)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapCustomer(c))
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCustomer(c))
}

func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req TopUpRequest
	if !decode(w, r, &req) {
		return
	}

	c, err := h.store.TopUp(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCustomer(c))
}

func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	var req CreateCartRequest
	if !decode(w, r, &req) {
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "customer_id is required")
		return
	}

	c, err := h.store.CreateCart(r.Context(), req.CustomerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapCart(c))
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(c))
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "product_id is required")
		return
	}

	c, err := h.store.AddItem(r.Context(), chi.URLParam(r, "id"), req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(c))
}

type checkoutOutcome struct {
	body   []byte
	cached bool
}

// Checkout runs the cart's checkout. A repeated Idempotency-Key for the same
// cart replays the stored receipt instead of answering 409. Requests sharing a
// key while the first is still running wait for it and get its answer.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := chi.URLParam(r, "id")

	idem := interceptors.IdempotencyKeyFromContext(ctx)
	if idem == "" || h.cache == nil {
		out, err := h.runCheckout(ctx, cartID, "")
		h.writeCheckout(w, out, err, false)
		return
	}

	cacheKey := h.cache.GenerateKey("checkout", cartID+":"+idem)
	ran := false
	v, err, _ := h.flight.Do(cacheKey, func() (any, error) {
		ran = true
		// the leader's work outlives its own request so waiters still get an answer
		lctx := context.WithoutCancel(ctx)

		cached, err := h.cache.Get(lctx, cacheKey)
		if err != nil {
			slog.WarnContext(lctx, "idempotency lookup failed", "cart_id", cartID, "error", err)
		}
		if cached != "" {
			return checkoutOutcome{body: []byte(cached), cached: true}, nil
		}
		return h.runCheckout(lctx, cartID, cacheKey)
	})

	out, _ := v.(checkoutOutcome)
	h.writeCheckout(w, out, err, out.cached || !ran)
}

// runCheckout checks the cart out and stores the receipt under cacheKey when
// one is given.
func (h *Handler) runCheckout(ctx context.Context, cartID, cacheKey string) (checkoutOutcome, error) {
	slog.InfoContext(ctx, "checkout requested",
		"request_id", interceptors.RequestIDFromContext(ctx), "cart_id", cartID)

	receipt, err := h.store.Checkout(ctx, cartID)
	if err != nil {
		return checkoutOutcome{}, err
	}

	body, err := json.Marshal(receipt)
	if err != nil {
		return checkoutOutcome{}, err
	}
	if cacheKey != "" {
		if err := h.cache.Set(ctx, cacheKey, string(body), h.ttl); err != nil {
			slog.WarnContext(ctx, "idempotency store failed", "cart_id", cartID, "error", err)
		}
	}
	return checkoutOutcome{body: body}, nil
}

func (h *Handler) writeCheckout(w http.ResponseWriter, out checkoutOutcome, err error, replayed bool) {
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if replayed {
		w.Header().Set(HeaderIdempotentReplay, "true")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.body)
}

// GetCheckout reports the audit trail of one checkout.
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.checks == nil {
		writeError(w, http.StatusNotFound, "checkout_not_found", "checkout log disabled")
		return
	}

	history, err := h.checks.History(r.Context(), id)
	if errors.Is(err, txlog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "checkout_not_found", id)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "checkout_log_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, mapCheckoutLog(id, history))
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

// statusFor maps store and checkout errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ports.ErrCartClosed):
		return http.StatusConflict, "cart_closed"
	case errors.Is(err, domain.ErrOutOfStock):
		return http.StatusConflict, "out_of_stock"
	case errors.Is(err, domain.ErrNotExpirable):
		return http.StatusConflict, "not_expirable"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusPaymentRequired, "insufficient_balance"
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusUnprocessableEntity, "empty_cart"
	case errors.Is(err, domain.ErrExpiredProduct):
		return http.StatusUnprocessableEntity, "expired_product"
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidProduct),
		errors.Is(err, domain.ErrInvalidCustomer):
		return http.StatusUnprocessableEntity, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	resp := ErrorResponse{Error: code, Message: err.Error()}

	var failed *ports.CheckoutError
	if errors.As(err, &failed) {
		resp.CheckoutID = failed.CheckoutID
	}
	writeJSON(w, status, resp)
}

func mapProduct(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:               p.ID,
		Name:             p.Name,
		Kind:             p.Kind,
		Price:            p.Price,
		Quantity:         p.Quantity,
		Expirable:        p.Expirable,
		Expired:          p.Expired,
		RequiresShipping: p.RequiresShipping,
		WeightGrams:      p.WeightGrams,
	}
}

func mapCustomer(c *entity.Customer) CustomerResponse {
	return CustomerResponse{ID: c.ID, Name: c.Name, Balance: c.Balance}
}

func mapCart(c *entity.Cart) CartResponse {
	lines := make([]CartLineResponse, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = CartLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal,
		}
	}
	return CartResponse{
		ID:         c.ID,
		CustomerID: c.CustomerID,
		Status:     string(c.Status),
		CheckoutID: c.CheckoutID,
		Lines:      lines,
		Subtotal:   c.Subtotal,
		CreatedAt:  formatTime(c.CreatedAt),
	}
}

func mapCheckoutLog(id string, history []*txlog.Entry) CheckoutLogResponse {
	out := CheckoutLogResponse{
		CheckoutID: id,
		History:    make([]CheckoutLogEntryResponse, 0, len(history)),
	}
	for _, e := range history {
		var errs []string
		_ = json.Unmarshal([]byte(e.Errors), &errs)
		out.History = append(out.History, CheckoutLogEntryResponse{
			Status:    string(e.Status),
			Step:      e.Step,
			Errors:    errs,
			TraceID:   e.TraceID,
			UpdatedAt: formatTime(e.UpdatedAt),
		})
	}
	if n := len(history); n > 0 {
		out.Status = string(history[n-1].Status)
		out.Terminal = history[n-1].Terminal()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
