package catalog

import "context"

// Repository stores products. Implementations are bound to a unit of work and
// never lock on their own.
type Repository interface {
	NextID(ctx context.Context) (int64, error)
	Insert(ctx context.Context, product *Product) error
	Get(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}
