package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/ecommerce-checkout/internal/api-gateway/infra/adapters/service"
	"github.com/jcmexdev/ecommerce-checkout/internal/api-gateway/infra/httpx/middlewares"
	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/app"
	"github.com/jcmexdev/ecommerce-checkout/internal/checkout-service/domain"
	"github.com/jcmexdev/ecommerce-checkout/internal/coordinator/txlog/sqlite"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/config"
	"github.com/jcmexdev/ecommerce-checkout/internal/pkg/metrics"
	"github.com/jcmexdev/ecommerce-checkout/internal/report"
)

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memCache) GenerateKey(operation, key string) string { return "test:" + operation + ":" + key }

type testServer struct {
	t       *testing.T
	handler http.Handler
}

// gateSink holds every receipt until release is closed.
type gateSink struct {
	entered chan struct{}
	release chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gateSink) EmitShipment(context.Context, domain.ShipmentNotice) error { return nil }

func (g *gateSink) EmitReceipt(context.Context, domain.Receipt) error {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return nil
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithSink(t, nil)
}

func newTestServerWithSink(t *testing.T, sink report.Sink) *testServer {
	t.Helper()

	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "checkout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	m := metrics.NewServerMetrics("api", nil)
	svc := app.NewService(app.Options{Sink: sink, Log: repo, Metrics: m, ShippingFee: config.DefaultShippingFee})
	store := service.NewMemoryStorefront(svc)
	h := NewHandler(store, &memCache{data: map[string]string{}}, time.Hour, repo)

	return &testServer{t: t, handler: NewRouter(h, m, m.Handler())}
}

func (s *testServer) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// seedCart creates the sample catalog and a cart with 2 cheese, 1 biscuits
// and 1 scratch card for a customer holding balance.
func (s *testServer) seedCart(balance string) (cartID, customerID string) {
	t := s.t
	t.Helper()

	products := []map[string]any{
		{"name": "Cheese", "price": 100, "quantity": 5, "expired": false, "weight_grams": 200},
		{"name": "Biscuits", "price": 50, "quantity": 10, "expired": false},
		{"name": "Scratch Card", "price": 10, "quantity": 100},
	}
	qty := []int{2, 1, 1}

	var ids []string
	for _, p := range products {
		rec := s.do(http.MethodPost, "/products", p)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		ids = append(ids, decodeBody[ProductResponse](t, rec).ID)
	}

	rec := s.do(http.MethodPost, "/customers", map[string]any{"name": "Mohamed", "balance": balance})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	customerID = decodeBody[CustomerResponse](t, rec).ID

	rec = s.do(http.MethodPost, "/carts", CreateCartRequest{CustomerID: customerID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cartID = decodeBody[CartResponse](t, rec).ID

	for i, id := range ids {
		rec = s.do(http.MethodPost, "/carts/"+cartID+"/items", AddItemRequest{ProductID: id, Quantity: qty[i]})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	return cartID, customerID
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	cartID, customerID := s.seedCart("1000")

	rec := s.do(http.MethodPost, "/carts/"+cartID+"/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	receipt := decodeBody[domain.Receipt](t, rec)
	assert.Equal(t, "290", receipt.Total.String())
	assert.Equal(t, "710", receipt.Balance.String())
	require.NotNil(t, receipt.Shipment)
	assert.Equal(t, "0.4", receipt.Shipment.TotalWeightKg())

	rec = s.do(http.MethodGet, "/customers/"+customerID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "710", decodeBody[CustomerResponse](t, rec).Balance.String())

	rec = s.do(http.MethodGet, "/carts/"+cartID, nil)
	assert.Equal(t, "CHECKED_OUT", decodeBody[CartResponse](t, rec).Status)

	rec = s.do(http.MethodGet, "/checkouts/"+receipt.CheckoutID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	log := decodeBody[CheckoutLogResponse](t, rec)
	assert.Equal(t, "COMPLETED", log.Status)
	assert.True(t, log.Terminal)
	assert.Equal(t, "STARTED", log.History[0].Status)

	rec = s.do(http.MethodPost, "/carts/"+cartID+"/checkout", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "cart_closed", decodeBody[ErrorResponse](t, rec).Error)
}

func TestCheckoutInsufficientBalance(t *testing.T) {
	s := newTestServer(t)
	cartID, customerID := s.seedCart("100")

	rec := s.do(http.MethodPost, "/carts/"+cartID+"/checkout", nil)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	failed := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "insufficient_balance", failed.Error)
	require.NotEmpty(t, failed.CheckoutID)

	rec = s.do(http.MethodGet, "/checkouts/"+failed.CheckoutID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	log := decodeBody[CheckoutLogResponse](t, rec)
	assert.Equal(t, "FAILED", log.Status)
	assert.True(t, log.Terminal)

	rec = s.do(http.MethodGet, "/customers/"+customerID, nil)
	assert.Equal(t, "100", decodeBody[CustomerResponse](t, rec).Balance.String())

	rec = s.do(http.MethodPost, "/customers/"+customerID+"/top-up", TopUpRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCheckoutIdempotentReplay(t *testing.T) {
	s := newTestServer(t)
	cartID, _ := s.seedCart("1000")

	first := s.do(http.MethodPost, "/carts/"+cartID+"/checkout", nil, middlewares.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get(HeaderIdempotentReplay))

	again := s.do(http.MethodPost, "/carts/"+cartID+"/checkout", nil, middlewares.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "true", again.Header().Get(HeaderIdempotentReplay))
	assert.JSONEq(t, first.Body.String(), again.Body.String())

	other := s.do(http.MethodPost, "/carts/"+cartID+"/checkout", nil, middlewares.HeaderIdempotencyKey, "k-2")
	assert.Equal(t, http.StatusConflict, other.Code)
	assert.Empty(t, decodeBody[ErrorResponse](t, other).CheckoutID)
}

func TestCheckoutSameKeyWhileFirstInFlight(t *testing.T) {
	sink := newGateSink()
	s := newTestServerWithSink(t, sink)
	cartID, _ := s.seedCart("1000")

	checkout := func() <-chan *httptest.ResponseRecorder {
		done := make(chan *httptest.ResponseRecorder, 1)
		go func() {
			done <- s.do(http.MethodPost, "/carts/"+cartID+"/checkout", nil, middlewares.HeaderIdempotencyKey, "k-1")
		}()
		return done
	}

	first := checkout()
	select {
	case <-sink.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first checkout never reached the receipt")
	}

	// the cart is closed but no receipt is stored yet
	second := checkout()
	time.Sleep(50 * time.Millisecond)
	close(sink.release)

	a, b := <-first, <-second
	require.Equal(t, http.StatusOK, a.Code, a.Body.String())
	require.Equal(t, http.StatusOK, b.Code, b.Body.String())
	assert.Empty(t, a.Header().Get(HeaderIdempotentReplay))
	assert.Equal(t, "true", b.Header().Get(HeaderIdempotentReplay))
	assert.JSONEq(t, a.Body.String(), b.Body.String())
}

func TestEmptyCartAndExpiredProduct(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/customers", CreateCustomerRequest{Name: "Ana"})
	customerID := decodeBody[CustomerResponse](t, rec).ID
	rec = s.do(http.MethodPost, "/carts", CreateCartRequest{CustomerID: customerID})
	emptyCart := decodeBody[CartResponse](t, rec).ID

	rec = s.do(http.MethodPost, "/carts/"+emptyCart+"/checkout", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "empty_cart", decodeBody[ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/products", map[string]any{"name": "Milk", "price": 20, "quantity": 3, "expired": false})
	milk := decodeBody[ProductResponse](t, rec)
	assert.Equal(t, "EXPIRABLE", milk.Kind)
	assert.True(t, milk.Expirable)
	assert.False(t, milk.Expired)

	rec = s.do(http.MethodPost, "/carts/"+emptyCart+"/items", AddItemRequest{ProductID: milk.ID, Quantity: 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/products/"+milk.ID+"/expire", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[ProductResponse](t, rec).Expired)

	rec = s.do(http.MethodPost, "/carts/"+emptyCart+"/checkout", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "expired_product", decodeBody[ErrorResponse](t, rec).Error)
}

func TestAddItemErrors(t *testing.T) {
	s := newTestServer(t)
	cartID, _ := s.seedCart("1000")

	rec := s.do(http.MethodPost, "/products", map[string]any{"name": "TV", "price": 500, "quantity": 1, "weight_grams": 5000})
	tv := decodeBody[ProductResponse](t, rec)
	assert.False(t, tv.Expirable)

	rec = s.do(http.MethodPost, "/carts/"+cartID+"/items", AddItemRequest{ProductID: tv.ID, Quantity: 2})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "out_of_stock", decodeBody[ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/carts/"+cartID+"/items", AddItemRequest{ProductID: tv.ID, Quantity: 0})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/carts/"+cartID+"/items", AddItemRequest{ProductID: "missing", Quantity: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/carts/"+cartID+"/items", AddItemRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidJSON(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeBody[ErrorResponse](t, rec).Error)
}

func TestUnknownCheckout(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/checkouts/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	cartID, _ := s.seedCart("1000")
	s.do(http.MethodPost, "/carts/"+cartID+"/checkout", nil)

	rec := s.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `checkout_api_checkouts_total{result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/carts/{id}/checkout"`)
}
