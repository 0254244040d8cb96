package httppresentation

import (
	"context"
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-inventory/internal/application"
	apppayment "github.com/Zhima-Mochi/minishop-inventory/internal/application/payment"
	domcatalog "github.com/Zhima-Mochi/minishop-inventory/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-inventory/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-inventory/internal/observability"
	"github.com/Zhima-Mochi/minishop-inventory/internal/observability/logctx"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

const (
	componentHTTPHandler = "http_server"
	serviceVersion       = "1.0.0"
)

func init() {
	// Prices are rendered as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type CatalogService interface {
	Create(ctx context.Context, in domcatalog.NewProductInput) (*domcatalog.Product, error)
	Get(ctx context.Context, id int64) (*domcatalog.Product, error)
	List(ctx context.Context) ([]*domcatalog.Product, error)
	Update(ctx context.Context, id int64, patch domcatalog.Patch) (*domcatalog.Product, error)
	AdjustStock(ctx context.Context, id int64, delta int) (*domcatalog.Product, error)
	Count(ctx context.Context) (int, error)
}

type OrderLedger interface {
	Get(ctx context.Context, id int64) (*domorder.Order, error)
	List(ctx context.Context) ([]*domorder.Order, error)
	SetStatus(ctx context.Context, id int64, to domorder.Status) (*domorder.Order, error)
	Count(ctx context.Context) (int, error)
}

type InventoryCoordinator interface {
	PlaceOrder(ctx context.Context, productID int64, quantity int) (*domorder.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (*domorder.Order, error)
	DeleteProduct(ctx context.Context, productID int64) error
}

type WebhookUseCase = application.UseCase[apppayment.Delivery, *apppayment.Result]

// Deps are the use cases the HTTP surface drives.
type Deps struct {
	Catalog     CatalogService
	Orders      OrderLedger
	Coordinator InventoryCoordinator
	Webhook     WebhookUseCase
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
}

type Handler struct {
	deps    Deps
	service string
	env     string
	log     observability.Logger

	reqCounter   observability.Counter   // http_requests_total{method,route,status}
	durHistogram observability.Histogram // http_request_duration_seconds{method,route,status}
}

func NewHandler(deps Deps, service, env string, tel observability.Observability) *Handler {
	tel = observability.OrNop(tel)
	return &Handler{
		deps:         deps,
		service:      service,
		env:          env,
		log:          tel.Logger().With(observability.F("component", componentHTTPHandler)),
		reqCounter:   tel.Metrics().Counter(observability.MHTTPRequests),
		durHistogram: tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

// Router wires every route behind
// Trace → request logger → HTTP metrics → access log → handler.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(
		withTrace,
		ObservabilityMiddleware(h.log, func(r *http.Request) string {
			return r.Header.Get(headerRequestID)
		}),
		withHTTPMetrics(h.reqCounter, h.durHistogram),
		withAccessLog(h.log),
	)

	r.HandleFunc("/", h.handleInfo).Methods(http.MethodGet)
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	if h.deps.Metrics != nil {
		r.Handle("/metrics", h.deps.Metrics).Methods(http.MethodGet)
	}

	r.HandleFunc("/products", h.handleCreateProduct).Methods(http.MethodPost)
	r.HandleFunc("/products", h.handleListProducts).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}", h.handleGetProduct).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}", h.handleUpdateProduct).Methods(http.MethodPut)
	r.HandleFunc("/products/{id:[0-9]+}", h.handleDeleteProduct).Methods(http.MethodDelete)
	r.HandleFunc("/products/{id:[0-9]+}/stock", h.handleAdjustStock).Methods(http.MethodPost)

	r.HandleFunc("/orders", h.handleCreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/orders", h.handleListOrders).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id:[0-9]+}", h.handleGetOrder).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id:[0-9]+}", h.handleUpdateOrder).Methods(http.MethodPut)
	r.HandleFunc("/orders/{id:[0-9]+}", h.handleCancelOrder).Methods(http.MethodDelete)

	r.HandleFunc("/webhooks/payment", h.handlePaymentWebhook).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}

type infoResponse struct {
	Message string `json:"message"`
	Service string `json:"service"`
	Version string `json:"version"`
	Env     string `json:"env"`
	Health  string `json:"health"`
	Metrics string `json:"metrics"`
}

func (h *Handler) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Message: "Orders & Inventory Microservice",
		Service: h.service,
		Version: serviceVersion,
		Env:     h.env,
		Health:  "/health",
		Metrics: "/metrics",
	})
}

type healthResponse struct {
	Status        string    `json:"status"`
	Service       string    `json:"service"`
	Timestamp     time.Time `json:"timestamp"`
	ProductsCount int       `json:"products_count"`
	OrdersCount   int       `json:"orders_count"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	products, err := h.deps.Catalog.Count(ctx)
	if err == nil {
		var orders int
		orders, err = h.deps.Orders.Count(ctx)
		if err == nil {
			writeJSON(w, http.StatusOK, healthResponse{
				Status:        "healthy",
				Service:       h.service,
				Timestamp:     time.Now().UTC(),
				ProductsCount: products,
				OrdersCount:   orders,
			})
			return
		}
	}
	logctx.FromOr(ctx, h.log).Error("health_check_failed", observability.F("error", err))
	writeDetail(w, http.StatusServiceUnavailable, "unhealthy")
}
