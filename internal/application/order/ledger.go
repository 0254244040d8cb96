package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-inventory/internal/application"
	domcatalog "github.com/Zhima-Mochi/minishop-inventory/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/minishop-inventory/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-inventory/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	ledgerService = "order-ledger"

	useCaseGet       = "order.get"
	useCaseList      = "order.list"
	useCaseSetStatus = "order.set_status"
)

// Ledger owns order records and their lifecycle.
type Ledger struct {
	uow       application.UnitOfWork
	publisher application.Publisher
	in        application.Instrument
}

func NewLedger(uow application.UnitOfWork, publisher application.Publisher, tel observability.Observability) *Ledger {
	return &Ledger{
		uow:       uow,
		publisher: publisher,
		in:        application.NewInstrument(tel, ledgerService),
	}
}

func (l *Ledger) Get(ctx context.Context, id int64) (_ *domain.Order, err error) {
	ctx, run := l.in.Start(ctx, useCaseGet, "GetOrder",
		attribute.Int64("order.id", id),
	)
	defer func() { run.End(err) }()

	var o *domain.Order
	err = l.uow.View(ctx, func(tx application.Tx) error {
		var err error
		o, err = tx.Orders().Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("order: get %d: %w", id, err)
	}
	return o, nil
}

func (l *Ledger) List(ctx context.Context) (_ []*domain.Order, err error) {
	ctx, run := l.in.Start(ctx, useCaseList, "ListOrders")
	defer func() { run.End(err) }()

	var out []*domain.Order
	err = l.uow.View(ctx, func(tx application.Tx) error {
		var err error
		out, err = tx.Orders().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("order: list: %w", err)
	}
	run.With("count", len(out))
	return out, nil
}

// SetStatus moves an order along its lifecycle. Moving to CANCELED gives the
// reserved quantity back to the product in the same unit of work.
func (l *Ledger) SetStatus(ctx context.Context, id int64, to domain.Status) (_ *domain.Order, err error) {
	ctx, run := l.in.Start(ctx, useCaseSetStatus, "SetOrderStatus",
		attribute.Int64("order.id", id),
		attribute.String("order.status.to", string(to)),
	)
	defer func() { run.End(err) }()

	var (
		updated *domain.Order
		events  []application.Event
	)
	err = l.uow.Atomic(ctx, func(tx application.Tx) error {
		o, err := tx.Orders().Get(ctx, id)
		if err != nil {
			return err
		}
		events, err = Transition(ctx, tx, o, to, domain.SourceManual)
		if err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("order: set status %d: %w", id, err)
	}

	run.Span().AddEvent("order.status_changed",
		trace.WithAttributes(attribute.String("order.status", string(updated.Status))),
	)
	if perr := l.in.Publish(ctx, l.publisher, events...); perr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
	}
	return updated, nil
}

// Create inserts a PENDING order inside tx. It never touches stock; the caller
// reserves it in the same unit of work.
func Create(ctx context.Context, tx application.Tx, productID int64, quantity int) (*domain.Order, error) {
	id, err := tx.Orders().NextID(ctx)
	if err != nil {
		return nil, err
	}
	o, err := domain.New(id, productID, quantity)
	if err != nil {
		return nil, err
	}
	if err := tx.Orders().Insert(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Transition applies the lifecycle table to o inside tx, persists it and, for
// CANCELED, releases the reserved stock. The returned events must only be
// published once tx commits.
func Transition(ctx context.Context, tx application.Tx, o *domain.Order, to domain.Status, source string) ([]application.Event, error) {
	from := o.Status
	if err := o.TransitionTo(to); err != nil {
		return nil, err
	}

	var events []application.Event
	if to == domain.StatusCanceled {
		p, err := tx.Products().Get(ctx, o.ProductID)
		if err != nil {
			if errors.Is(err, domcatalog.ErrNotFound) {
				return nil, fmt.Errorf("release stock for order %d: product %d missing", o.ID, o.ProductID)
			}
			return nil, err
		}
		if err := p.Release(o.Quantity); err != nil {
			return nil, err
		}
		if err := tx.Products().Update(ctx, p); err != nil {
			return nil, err
		}
		events = append(events, domcatalog.NewStockChangedEvent(p, o.Quantity, domcatalog.StockReasonReleased))
	}

	if err := tx.Orders().Update(ctx, o); err != nil {
		return nil, err
	}
	events = append(events, domain.NewOrderStatusChangedEvent(o, from, source))
	return events, nil
}

func (l *Ledger) Count(ctx context.Context) (int, error) {
	var n int
	err := l.uow.View(ctx, func(tx application.Tx) error {
		var err error
		n, err = tx.Orders().Count(ctx)
		return err
	})
	return n, err
}
