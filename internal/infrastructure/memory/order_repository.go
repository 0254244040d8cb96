package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/order"
)

type orderRepository struct {
	tx *tx
}

func (r *orderRepository) NextID(ctx context.Context) (int64, error) {
	_ = ctx
	s := r.tx.s
	if err := r.tx.write(func() { s.orderSeq-- }); err != nil {
		return 0, err
	}
	s.orderSeq++
	return s.orderSeq, nil
}

func (r *orderRepository) Insert(ctx context.Context, o *order.Order) error {
	_ = ctx
	if o == nil || o.ID == 0 {
		return fmt.Errorf("order repository: id is required")
	}
	s := r.tx.s
	if _, exists := s.orders[o.ID]; exists {
		return fmt.Errorf("order repository: id %d already stored", o.ID)
	}

	id := o.ID
	if err := r.tx.write(func() { delete(s.orders, id) }); err != nil {
		return err
	}
	s.orders[o.ID] = o.Clone()
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (*order.Order, error) {
	_ = ctx
	o, ok := r.tx.s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *orderRepository) List(ctx context.Context) ([]*order.Order, error) {
	return r.filter(ctx, func(*order.Order) bool { return true })
}

func (r *orderRepository) ListByProduct(ctx context.Context, productID int64) ([]*order.Order, error) {
	return r.filter(ctx, func(o *order.Order) bool { return o.ProductID == productID })
}

func (r *orderRepository) filter(ctx context.Context, keep func(*order.Order) bool) ([]*order.Order, error) {
	_ = ctx
	out := make([]*order.Order, 0, len(r.tx.s.orders))
	for _, o := range r.tx.s.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	_ = ctx
	if o == nil {
		return fmt.Errorf("order repository: order is required")
	}
	s := r.tx.s
	prev, ok := s.orders[o.ID]
	if !ok {
		return order.ErrNotFound
	}

	if err := r.tx.write(func() { s.orders[prev.ID] = prev }); err != nil {
		return err
	}
	s.orders[o.ID] = o.Clone()
	return nil
}

func (r *orderRepository) Count(ctx context.Context) (int, error) {
	_ = ctx
	return len(r.tx.s.orders), nil
}
