package order

import "context"

type Repository interface {
	NextID(ctx context.Context) (int64, error)
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
	ListByProduct(ctx context.Context, productID int64) ([]*Order, error)
	Update(ctx context.Context, order *Order) error
	Count(ctx context.Context) (int, error)
}
