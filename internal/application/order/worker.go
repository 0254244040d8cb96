package order

import (
	"context"

	"github.com/Zhima-Mochi/minishop-inventory/internal/application"
	domain "github.com/Zhima-Mochi/minishop-inventory/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-inventory/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-inventory/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	workerService        = "order-worker"
	useCaseOrderPlaced   = "order.worker.placed"
	useCaseStatusChanged = "order.worker.status_changed"

	statusNone = "NONE"
)

// Worker keeps the order audit trail and the transition counter.
type Worker struct {
	subscriber  domoutbox.Subscriber
	in          application.Instrument
	transitions observability.Counter // order_transitions_total{from,to,source}
}

func NewWorker(subscriber domoutbox.Subscriber, tel observability.Observability) *Worker {
	tel = observability.OrNop(tel)
	return &Worker{
		subscriber:  subscriber,
		in:          application.NewInstrument(tel, workerService),
		transitions: tel.Metrics().Counter(observability.MOrderTransitions),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(domain.OrderPlacedEvent{}.EventName(), w.handleOrderPlaced)
	w.subscriber.Subscribe(domain.OrderStatusChangedEvent{}.EventName(), w.handleStatusChanged)
}

func (w *Worker) handleOrderPlaced(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domain.OrderPlacedEvent)
	if !ok {
		return nil
	}
	_, run := w.in.Start(ctx, useCaseOrderPlaced, "OrderPlaced",
		attribute.String("event", e.EventName()),
		attribute.Int64("order.id", evt.OrderID),
	)
	defer func() { run.End(err) }()

	w.transitions.Add(1,
		observability.L("from", statusNone),
		observability.L("to", string(domain.StatusPending)),
		observability.L("source", domain.SourcePlace),
	)
	run.Logger().Info("order_audit",
		observability.F("order_id", evt.OrderID),
		observability.F("product_id", evt.ProductID),
		observability.F("quantity", evt.Quantity),
		observability.F("to", string(domain.StatusPending)),
		observability.F("occurred_at", evt.OccurredAt),
	)
	return nil
}

func (w *Worker) handleStatusChanged(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domain.OrderStatusChangedEvent)
	if !ok {
		return nil
	}
	_, run := w.in.Start(ctx, useCaseStatusChanged, "OrderStatusChanged",
		attribute.String("event", e.EventName()),
		attribute.Int64("order.id", evt.OrderID),
	)
	defer func() { run.End(err) }()

	w.transitions.Add(1,
		observability.L("from", string(evt.From)),
		observability.L("to", string(evt.To)),
		observability.L("source", evt.Source),
	)
	run.Logger().Info("order_audit",
		observability.F("order_id", evt.OrderID),
		observability.F("product_id", evt.ProductID),
		observability.F("from", string(evt.From)),
		observability.F("to", string(evt.To)),
		observability.F("source", evt.Source),
		observability.F("occurred_at", evt.OccurredAt),
	)
	return nil
}
