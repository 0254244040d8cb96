package inventory

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-inventory/internal/application"
	apporder "github.com/Zhima-Mochi/minishop-inventory/internal/application/order"
	domcatalog "github.com/Zhima-Mochi/minishop-inventory/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-inventory/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-inventory/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	coordinatorService = "inventory-coordinator"

	useCasePlaceOrder    = "inventory.place_order"
	useCaseCancelOrder   = "inventory.cancel_order"
	useCaseDeleteProduct = "inventory.delete_product"
)

// Coordinator runs every operation that touches products and orders together.
// Each one is a single unit of work: the stock check, the stock change and
// the order change commit together or not at all.
type Coordinator struct {
	uow       application.UnitOfWork
	publisher application.Publisher
	in        application.Instrument
}

func NewCoordinator(uow application.UnitOfWork, publisher application.Publisher, tel observability.Observability) *Coordinator {
	return &Coordinator{
		uow:       uow,
		publisher: publisher,
		in:        application.NewInstrument(tel, coordinatorService),
	}
}

// PlaceOrder reserves quantity units of the product and records a PENDING order.
func (c *Coordinator) PlaceOrder(ctx context.Context, productID int64, quantity int) (_ *domorder.Order, err error) {
	ctx, run := c.in.Start(ctx, useCasePlaceOrder, "PlaceOrder",
		attribute.Int64("product.id", productID),
		attribute.Int("order.quantity", quantity),
	)
	defer func() { run.End(err) }()

	if quantity <= 0 {
		return nil, domorder.ErrInvalidQuantity
	}

	var (
		placed  *domorder.Order
		product *domcatalog.Product
	)
	err = c.uow.Atomic(ctx, func(tx application.Tx) error {
		p, err := tx.Products().Get(ctx, productID)
		if err != nil {
			return err
		}
		if err := p.Reserve(quantity); err != nil {
			return err
		}
		if err := tx.Products().Update(ctx, p); err != nil {
			return err
		}
		o, err := apporder.Create(ctx, tx, productID, quantity)
		if err != nil {
			return err
		}
		placed, product = o, p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("inventory: place order: %w", err)
	}

	run.With("order_id", placed.ID)
	run.With("stock_left", product.Stock)
	run.Span().AddEvent("order.placed",
		trace.WithAttributes(attribute.Int64("order.id", placed.ID)),
	)
	if perr := c.in.Publish(ctx, c.publisher,
		domcatalog.NewStockChangedEvent(product, -quantity, domcatalog.StockReasonReserved),
		domorder.NewOrderPlacedEvent(placed),
	); perr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
	}
	return placed, nil
}

// CancelOrder cancels a PENDING order and returns its stock. Canceling an
// already canceled order succeeds without changing anything.
func (c *Coordinator) CancelOrder(ctx context.Context, orderID int64) (_ *domorder.Order, err error) {
	ctx, run := c.in.Start(ctx, useCaseCancelOrder, "CancelOrder",
		attribute.Int64("order.id", orderID),
	)
	defer func() { run.End(err) }()

	var (
		canceled *domorder.Order
		events   []application.Event
	)
	err = c.uow.Atomic(ctx, func(tx application.Tx) error {
		o, err := tx.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		canceled = o
		if o.Status == domorder.StatusCanceled {
			return nil
		}
		if !domorder.CanTransition(o.Status, domorder.StatusCanceled) {
			return &domorder.CancelError{Status: o.Status}
		}
		events, err = apporder.Transition(ctx, tx, o, domorder.StatusCanceled, domorder.SourceCancel)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("inventory: cancel order %d: %w", orderID, err)
	}

	if len(events) == 0 {
		run.Status("ALREADY_CANCELED")
		return canceled, nil
	}
	if perr := c.in.Publish(ctx, c.publisher, events...); perr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
	}
	return canceled, nil
}

// DeleteProduct removes a product that no PENDING or PAID order refers to.
func (c *Coordinator) DeleteProduct(ctx context.Context, productID int64) (err error) {
	ctx, run := c.in.Start(ctx, useCaseDeleteProduct, "DeleteProduct",
		attribute.Int64("product.id", productID),
	)
	defer func() { run.End(err) }()

	var deleted *domcatalog.Product
	err = c.uow.Atomic(ctx, func(tx application.Tx) error {
		p, err := tx.Products().Get(ctx, productID)
		if err != nil {
			return err
		}
		orders, err := tx.Orders().ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		for _, o := range orders {
			if o.Active() {
				return domcatalog.ErrHasActiveOrders
			}
		}
		if err := tx.Products().Delete(ctx, productID); err != nil {
			return err
		}
		deleted = p
		return nil
	})
	if err != nil {
		return fmt.Errorf("inventory: delete product %d: %w", productID, err)
	}

	delta := -deleted.Stock
	deleted.Stock = 0
	if perr := c.in.Publish(ctx, c.publisher,
		domcatalog.NewStockChangedEvent(deleted, delta, domcatalog.StockReasonDeleted),
	); perr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
	}
	return nil
}
