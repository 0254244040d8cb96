package inventory

import (
	"context"
	"strconv"
	"sync"

	"github.com/Zhima-Mochi/minishop-inventory/internal/application"
	domcatalog "github.com/Zhima-Mochi/minishop-inventory/internal/domain/catalog"
	domoutbox "github.com/Zhima-Mochi/minishop-inventory/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-inventory/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	workerService       = "inventory-worker"
	useCaseStockChanged = "inventory.worker.stock_changed"
)

// Worker mirrors committed stock levels into the stock gauge and warns when a
// product runs low. Events can arrive out of commit order, so an event older
// than the last applied version of its product is dropped.
type Worker struct {
	subscriber domoutbox.Subscriber
	in         application.Instrument
	stock      observability.Gauge // inventory_stock_level{product_id}
	lowStock   int

	mu       sync.Mutex
	versions map[int64]int64
}

func NewWorker(subscriber domoutbox.Subscriber, lowStockThreshold int, tel observability.Observability) *Worker {
	tel = observability.OrNop(tel)
	return &Worker{
		subscriber: subscriber,
		in:         application.NewInstrument(tel, workerService),
		stock:      tel.Metrics().Gauge(observability.MStockLevel),
		lowStock:   lowStockThreshold,
		versions:   make(map[int64]int64),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(domcatalog.StockChangedEvent{}.EventName(), w.handleStockChanged)
}

func (w *Worker) handleStockChanged(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domcatalog.StockChangedEvent)
	if !ok {
		return nil
	}

	_, run := w.in.Start(ctx, useCaseStockChanged, "StockChanged",
		attribute.String("event", e.EventName()),
		attribute.Int64("product.id", evt.ProductID),
		attribute.String("product.sku", evt.SKU),
	)
	defer func() { run.End(err) }()

	run.With("product_id", evt.ProductID)
	run.With("stock", evt.Stock)
	run.With("delta", evt.Delta)
	run.With("reason", evt.Reason)
	run.With("version", evt.Version)

	if !w.advance(evt.ProductID, evt.Version) {
		run.Status("STALE")
		return nil
	}
	w.stock.Set(float64(evt.Stock), observability.L("product_id", strconv.FormatInt(evt.ProductID, 10)))

	if evt.Reason != domcatalog.StockReasonDeleted && evt.Stock <= w.lowStock {
		run.Status("LOW_STOCK")
		run.Logger().Warn("low_stock",
			observability.F("product_id", evt.ProductID),
			observability.F("sku", evt.SKU),
			observability.F("stock", evt.Stock),
			observability.F("threshold", w.lowStock),
		)
	}
	return nil
}

// advance records version as the latest seen for the product and reports
// whether the event is current.
func (w *Worker) advance(productID, version int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if version < w.versions[productID] {
		return false
	}
	w.versions[productID] = version
	return true
}
