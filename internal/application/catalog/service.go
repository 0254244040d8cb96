package catalog

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-inventory/internal/application"
	domain "github.com/Zhima-Mochi/minishop-inventory/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-inventory/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogService = "catalog-service"

	useCaseCreate = "catalog.create"
	useCaseGet    = "catalog.get"
	useCaseList   = "catalog.list"
	useCaseUpdate = "catalog.update"
	useCaseAdjust = "catalog.adjust_stock"
)

// Service owns product records. Deletion lives in the inventory coordinator
// because it has to look at orders.
type Service struct {
	uow       application.UnitOfWork
	publisher application.Publisher
	in        application.Instrument
}

func NewService(uow application.UnitOfWork, publisher application.Publisher, tel observability.Observability) *Service {
	return &Service{
		uow:       uow,
		publisher: publisher,
		in:        application.NewInstrument(tel, catalogService),
	}
}

func (s *Service) Create(ctx context.Context, in domain.NewProductInput) (_ *domain.Product, err error) {
	ctx, run := s.in.Start(ctx, useCaseCreate, "CreateProduct",
		attribute.String("product.sku", in.SKU),
	)
	defer func() { run.End(err) }()

	var created *domain.Product
	err = s.uow.Atomic(ctx, func(tx application.Tx) error {
		id, err := tx.Products().NextID(ctx)
		if err != nil {
			return err
		}
		p, err := domain.NewProduct(id, in)
		if err != nil {
			return err
		}
		if err := tx.Products().Insert(ctx, p); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: create: %w", err)
	}

	run.With("product_id", created.ID)
	run.Span().SetAttributes(attribute.Int64("product.id", created.ID))
	if perr := s.in.Publish(ctx, s.publisher,
		domain.NewStockChangedEvent(created, created.Stock, domain.StockReasonCreated),
	); perr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (_ *domain.Product, err error) {
	ctx, run := s.in.Start(ctx, useCaseGet, "GetProduct",
		attribute.Int64("product.id", id),
	)
	defer func() { run.End(err) }()

	var p *domain.Product
	err = s.uow.View(ctx, func(tx application.Tx) error {
		var err error
		p, err = tx.Products().Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: get %d: %w", id, err)
	}
	return p, nil
}

// List returns every product ordered by id.
func (s *Service) List(ctx context.Context) (_ []*domain.Product, err error) {
	ctx, run := s.in.Start(ctx, useCaseList, "ListProducts")
	defer func() { run.End(err) }()

	var out []*domain.Product
	err = s.uow.View(ctx, func(tx application.Tx) error {
		var err error
		out, err = tx.Products().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	run.With("count", len(out))
	return out, nil
}

// Update applies a partial update. An explicit stock value resets the
// baseline that later reservations are taken from.
func (s *Service) Update(ctx context.Context, id int64, patch domain.Patch) (_ *domain.Product, err error) {
	ctx, run := s.in.Start(ctx, useCaseUpdate, "UpdateProduct",
		attribute.Int64("product.id", id),
	)
	defer func() { run.End(err) }()

	var (
		updated *domain.Product
		delta   int
	)
	err = s.uow.Atomic(ctx, func(tx application.Tx) error {
		p, err := tx.Products().Get(ctx, id)
		if err != nil {
			return err
		}
		before := p.Stock
		if err := p.Apply(patch); err != nil {
			return err
		}
		if err := tx.Products().Update(ctx, p); err != nil {
			return err
		}
		updated, delta = p, p.Stock-before
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: update %d: %w", id, err)
	}

	if patch.Stock != nil {
		if perr := s.in.Publish(ctx, s.publisher,
			domain.NewStockChangedEvent(updated, delta, domain.StockReasonUpdated),
		); perr != nil {
			run.Status("EVENT_PUBLISH_FAILED")
		}
	}
	return updated, nil
}

// AdjustStock applies a signed restock or correction.
func (s *Service) AdjustStock(ctx context.Context, id int64, delta int) (_ *domain.Product, err error) {
	ctx, run := s.in.Start(ctx, useCaseAdjust, "AdjustStock",
		attribute.Int64("product.id", id),
		attribute.Int("stock.delta", delta),
	)
	defer func() { run.End(err) }()

	var adjusted *domain.Product
	err = s.uow.Atomic(ctx, func(tx application.Tx) error {
		p, err := tx.Products().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := p.AdjustStock(delta); err != nil {
			return err
		}
		if err := tx.Products().Update(ctx, p); err != nil {
			return err
		}
		adjusted = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: adjust stock %d: %w", id, err)
	}

	run.With("stock", adjusted.Stock)
	if perr := s.in.Publish(ctx, s.publisher,
		domain.NewStockChangedEvent(adjusted, delta, domain.StockReasonAdjusted),
	); perr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
	}
	return adjusted, nil
}

// Count reports how many products exist. Used by health checks, so it is not
// instrumented.
func (s *Service) Count(ctx context.Context) (int, error) {
	var n int
	err := s.uow.View(ctx, func(tx application.Tx) error {
		var err error
		n, err = tx.Products().Count(ctx)
		return err
	})
	return n, err
}
