package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/catalog"
)

type productRepository struct {
	tx *tx
}

func (r *productRepository) NextID(ctx context.Context) (int64, error) {
	_ = ctx
	s := r.tx.s
	if err := r.tx.write(func() { s.productSeq-- }); err != nil {
		return 0, err
	}
	s.productSeq++
	return s.productSeq, nil
}

func (r *productRepository) Insert(ctx context.Context, p *catalog.Product) error {
	_ = ctx
	if p == nil || p.ID == 0 {
		return fmt.Errorf("product repository: id is required")
	}
	s := r.tx.s
	if _, exists := s.products[p.ID]; exists {
		return fmt.Errorf("product repository: id %d already stored", p.ID)
	}
	if _, taken := s.skus[p.SKU]; taken {
		return catalog.ErrDuplicateSKU
	}

	id, sku := p.ID, p.SKU
	if err := r.tx.write(func() {
		delete(s.products, id)
		delete(s.skus, sku)
	}); err != nil {
		return err
	}
	s.products[p.ID] = p.Clone()
	s.skus[p.SKU] = p.ID
	return nil
}

func (r *productRepository) Get(ctx context.Context, id int64) (*catalog.Product, error) {
	_ = ctx
	p, ok := r.tx.s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *productRepository) List(ctx context.Context) ([]*catalog.Product, error) {
	_ = ctx
	out := make([]*catalog.Product, 0, len(r.tx.s.products))
	for _, p := range r.tx.s.products {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *productRepository) Update(ctx context.Context, p *catalog.Product) error {
	_ = ctx
	if p == nil {
		return fmt.Errorf("product repository: product is required")
	}
	s := r.tx.s
	prev, ok := s.products[p.ID]
	if !ok {
		return catalog.ErrNotFound
	}
	if owner, taken := s.skus[p.SKU]; taken && owner != p.ID {
		return catalog.ErrDuplicateSKU
	}

	sku := p.SKU
	if err := r.tx.write(func() {
		delete(s.skus, sku)
		s.skus[prev.SKU] = prev.ID
		s.products[prev.ID] = prev
	}); err != nil {
		return err
	}
	delete(s.skus, prev.SKU)
	s.skus[p.SKU] = p.ID
	s.products[p.ID] = p.Clone()
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	_ = ctx
	s := r.tx.s
	prev, ok := s.products[id]
	if !ok {
		return catalog.ErrNotFound
	}

	if err := r.tx.write(func() {
		s.products[id] = prev
		s.skus[prev.SKU] = id
	}); err != nil {
		return err
	}
	delete(s.products, id)
	delete(s.skus, prev.SKU)
	return nil
}

func (r *productRepository) Count(ctx context.Context) (int, error) {
	_ = ctx
	return len(r.tx.s.products), nil
}
