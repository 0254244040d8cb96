package httppresentation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	appcatalog "github.com/Zhima-Mochi/minishop-inventory/internal/application/catalog"
	appinventory "github.com/Zhima-Mochi/minishop-inventory/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-inventory/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-inventory/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-inventory/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_http"

type testServer struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	h := NewHandler(Deps{
		Catalog:     appcatalog.NewService(store, nil, nil),
		Orders:      apporder.NewLedger(store, nil, nil),
		Coordinator: appinventory.NewCoordinator(store, nil, nil),
		Webhook: apppayment.NewVerifier([]byte(testSecret),
			memory.NewReplayGuard(time.Hour, 100), store, nil, nil),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		}),
	}, "minishop", "test", nil)

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv}
}

func (s *testServer) do(method, path string, body any, headers ...string) (*http.Response, map[string]any) {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent && resp.Header.Get("Content-Type") == "application/json" {
		var raw any
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&raw))
		if m, ok := raw.(map[string]any); ok {
			out = m
		} else {
			out = map[string]any{"items": raw}
		}
	}
	return resp, out
}

func (s *testServer) createProduct(sku string, stock int) int64 {
	s.t.Helper()
	resp, body := s.do(http.MethodPost, "/products", map[string]any{
		"sku": sku, "name": "Widget", "price": 9.99, "stock": stock,
	})
	require.Equal(s.t, http.StatusCreated, resp.StatusCode, body)
	return int64(body["id"].(float64))
}

func (s *testServer) createOrder(productID int64, qty int) (*http.Response, map[string]any) {
	return s.do(http.MethodPost, "/orders", map[string]any{"product_id": productID, "quantity": qty})
}

func (s *testServer) stock(productID int64) int {
	s.t.Helper()
	resp, body := s.do(http.MethodGet, fmt.Sprintf("/products/%d", productID), nil)
	require.Equal(s.t, http.StatusOK, resp.StatusCode)
	return int(body["stock"].(float64))
}

func TestInfoAndHealth(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "minishop", body["service"])
	assert.NotEmpty(t, resp.Header.Get(headerRequestID))

	s.createProduct("A", 3)
	resp, body = s.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, 1.0, body["products_count"])
	assert.Equal(t, 0.0, body["orders_count"])

	resp, _ = s.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)
	resp, _ := s.do(http.MethodGet, "/", nil, headerRequestID, "req-123")
	assert.Equal(t, "req-123", resp.Header.Get(headerRequestID))
}

func TestProductCRUD(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(http.MethodPost, "/products", map[string]any{
		"sku": "A", "name": "Widget", "description": "blue", "price": 9.99, "stock": 5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1.0, body["id"])
	assert.Equal(t, 9.99, body["price"], "prices are JSON numbers")
	assert.Equal(t, "blue", body["description"])

	resp, body = s.do(http.MethodPost, "/products", map[string]any{
		"sku": "A", "name": "Other", "price": 1, "stock": 1,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Product with this SKU already exists", body["detail"])

	resp, body = s.do(http.MethodPut, "/products/1", map[string]any{"name": "Renamed", "stock": 8})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Renamed", body["name"])
	assert.Equal(t, "A", body["sku"])
	assert.Equal(t, 8.0, body["stock"])

	resp, body = s.do(http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"], 1)

	resp, body = s.do(http.MethodGet, "/products/2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found", body["detail"])

	resp, _ = s.do(http.MethodDelete, "/products/1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = s.do(http.MethodDelete, "/products/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductValidation(t *testing.T) {
	s := newTestServer(t)

	cases := map[string]any{
		"malformed json": `{"sku":`,
		"missing price":  map[string]any{"sku": "A", "name": "n", "stock": 1},
		"zero price":     map[string]any{"sku": "A", "name": "n", "price": 0, "stock": 1},
		"negative stock": map[string]any{"sku": "A", "name": "n", "price": 1, "stock": -1},
		"empty name":     map[string]any{"sku": "A", "name": "", "price": 1, "stock": 1},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, out := s.do(http.MethodPost, "/products", body)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			assert.NotEmpty(t, out["detail"])
		})
	}
}

func TestAdjustStock(t *testing.T) {
	s := newTestServer(t)
	id := s.createProduct("A", 2)

	resp, body := s.do(http.MethodPost, fmt.Sprintf("/products/%d/stock", id), map[string]any{"delta": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 7.0, body["stock"])

	resp, _ = s.do(http.MethodPost, fmt.Sprintf("/products/%d/stock", id), map[string]any{"delta": -8})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, fmt.Sprintf("/products/%d/stock", id), map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	pid := s.createProduct("A", 10)

	resp, body := s.createOrder(pid, 3)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "PENDING", body["status"])
	oid := int64(body["id"].(float64))
	assert.Equal(t, 7, s.stock(pid))

	resp, body = s.createOrder(pid, 8)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Insufficient stock. Available: 7, Requested: 8", body["detail"])

	resp, _ = s.createOrder(999, 1)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = s.createOrder(pid, 0)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	path := fmt.Sprintf("/orders/%d", oid)
	resp, body = s.do(http.MethodPut, path, map[string]any{"status": "SHIPPED"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid status transition from PENDING to SHIPPED", body["detail"])

	resp, _ = s.do(http.MethodPut, path, map[string]any{"status": "LOST"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = s.do(http.MethodPut, path, map[string]any{"status": "PAID"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PAID", body["status"])

	resp, body = s.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Cannot cancel order with status: PAID", body["detail"])

	resp, body = s.do(http.MethodDelete, fmt.Sprintf("/products/%d", pid), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Cannot delete product with pending or paid orders", body["detail"])

	resp, _ = s.do(http.MethodGet, "/orders/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelOrderOverHTTP(t *testing.T) {
	s := newTestServer(t)
	pid := s.createProduct("A", 10)
	_, body := s.createOrder(pid, 4)
	path := fmt.Sprintf("/orders/%.0f", body["id"].(float64))

	resp, _ := s.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 10, s.stock(pid))

	resp, _ = s.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 10, s.stock(pid))

	_, body = s.do(http.MethodGet, path, nil)
	assert.Equal(t, "CANCELED", body["status"])
}

func TestConcurrentOrdersOverHTTP(t *testing.T) {
	s := newTestServer(t)
	pid := s.createProduct("A", 10)

	codes := make(chan int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, _ := s.createOrder(pid, 6)
			codes <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(codes)

	var got []int
	for c := range codes {
		got = append(got, c)
	}
	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusConflict}, got)
	assert.Equal(t, 4, s.stock(pid))
}

func TestPaymentWebhook(t *testing.T) {
	s := newTestServer(t)
	pid := s.createProduct("A", 10)
	_, order := s.createOrder(pid, 1)
	oid := int64(order["id"].(float64))

	payload := []byte(fmt.Sprintf(`{"event_type":"payment.succeeded","order_id":%d,"payment_id":"pay_1","amount":9.99,"timestamp":"2024-05-01T10:00:00Z"}`, oid))

	resp, body := s.do(http.MethodPost, "/webhooks/payment", payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Missing webhook signature", body["detail"])

	resp, body = s.do(http.MethodPost, "/webhooks/payment", payload,
		headerWebhookSignature, payment.Sign([]byte("nope"), payload))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Invalid webhook signature", body["detail"])

	_, got := s.do(http.MethodGet, fmt.Sprintf("/orders/%d", oid), nil)
	assert.Equal(t, "PENDING", got["status"], "rejected webhooks change nothing")

	sig := payment.Sign([]byte(testSecret), payload)
	resp, body = s.do(http.MethodPost, "/webhooks/payment", payload, headerWebhookSignature, sig)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "processed", body["status"])
	assert.Equal(t, "PAID", body["new_status"])
	assert.Equal(t, float64(oid), body["order_id"])

	resp, body = s.do(http.MethodPost, "/webhooks/payment", payload, headerWebhookSignature, sig)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ignored", body["status"])
	assert.Equal(t, "duplicate_event", body["reason"])

	missing := []byte(`{"event_type":"payment.succeeded","order_id":999,"payment_id":"pay_2"}`)
	resp, _ = s.do(http.MethodPost, "/webhooks/payment", missing,
		headerWebhookSignature, payment.Sign([]byte(testSecret), missing))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	bad := []byte(`{"order_id":1}`)
	resp, _ = s.do(http.MethodPost, "/webhooks/payment", bad,
		headerWebhookSignature, payment.Sign([]byte(testSecret), bad))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUnknownRoutes(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found", body["detail"])

	resp, _ = s.do(http.MethodGet, "/products/abc", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	for _, path := range []string{"/products", "/products/1", "/products/1/stock", "/orders", "/orders/1"} {
		resp, body = s.do(http.MethodPatch, path, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, path)
		assert.Equal(t, "Method Not Allowed", body["detail"], path)
	}
	resp, _ = s.do(http.MethodGet, "/webhooks/payment", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCancelNeverWrapsStock(t *testing.T) {
	s := newTestServer(t)
	pid := s.createProduct("A", 5)
	_, order := s.createOrder(pid, 2)
	orderPath := fmt.Sprintf("/orders/%.0f", order["id"].(float64))

	resp, _ := s.do(http.MethodPut, fmt.Sprintf("/products/%d", pid),
		`{"stock": 9223372036854775807}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.do(http.MethodDelete, orderPath, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Stock would exceed the maximum allowed value", body["detail"])

	_, got := s.do(http.MethodGet, orderPath, nil)
	assert.Equal(t, "PENDING", got["status"])

	resp, _ = s.do(http.MethodPost, fmt.Sprintf("/products/%d/stock", pid), map[string]any{"delta": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
