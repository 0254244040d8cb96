package order

import (
	"time"

	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/domainerr"
)

var (
	ErrNotFound        = domainerr.New(domainerr.ErrNotFound, "Order not found")
	ErrInvalidQuantity = domainerr.New(domainerr.ErrValidation, "quantity must be greater than zero")
	ErrInvalidProduct  = domainerr.New(domainerr.ErrValidation, "product_id must be a positive integer")
)

type Order struct {
	ID        int64
	ProductID int64
	Quantity  int
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds a PENDING order. Stock is handled by the caller.
func New(id, productID int64, quantity int) (*Order, error) {
	if productID <= 0 {
		return nil, ErrInvalidProduct
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	return &Order{
		ID:        id,
		ProductID: productID,
		Quantity:  quantity,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// TransitionTo moves the order to next if the lifecycle table allows it.
func (o *Order) TransitionTo(next Status) error {
	if err := CheckTransition(o.Status, next); err != nil {
		return err
	}
	o.Status = next
	o.touch()
	return nil
}

// Active reports whether the order still holds a claim on its product.
func (o *Order) Active() bool {
	return o.Status == StatusPending || o.Status == StatusPaid
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
