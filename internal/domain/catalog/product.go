package catalog

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/domainerr"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = domainerr.New(domainerr.ErrNotFound, "Product not found")
	ErrDuplicateSKU      = domainerr.New(domainerr.ErrConflict, "Product with this SKU already exists")
	ErrHasActiveOrders   = domainerr.New(domainerr.ErrPrecondition, "Cannot delete product with pending or paid orders")
	ErrWouldGoNegative   = domainerr.New(domainerr.ErrConflict, "Stock cannot go below zero")
	ErrStockOverflow     = domainerr.New(domainerr.ErrConflict, "Stock would exceed the maximum allowed value")
	ErrInsufficientStock = domainerr.New(domainerr.ErrConflict, "Insufficient stock")
	ErrInvalidSKU        = domainerr.New(domainerr.ErrValidation, "sku must not be empty")
	ErrInvalidName       = domainerr.New(domainerr.ErrValidation, "name must not be empty")
	ErrInvalidPrice      = domainerr.New(domainerr.ErrValidation, "price must be greater than zero")
	ErrInvalidStock      = domainerr.New(domainerr.ErrValidation, "stock must be zero or greater")
	ErrInvalidQuantity   = domainerr.New(domainerr.ErrValidation, "quantity must be greater than zero")
)

// InsufficientStockError reports a reservation larger than the available stock.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string { return e.Detail() }

func (e *InsufficientStockError) Detail() string {
	return fmt.Sprintf("Insufficient stock. Available: %d, Requested: %d", e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type Product struct {
	ID          int64
	SKU         string
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int
	// Version increases with every committed change and orders stock events.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProductInput carries the caller-supplied fields of a new product.
type NewProductInput struct {
	SKU         string
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int
}

func NewProduct(id int64, in NewProductInput) (*Product, error) {
	if err := validateSKU(in.SKU); err != nil {
		return nil, err
	}
	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	if err := validateStock(in.Stock); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Product{
		ID:          id,
		SKU:         in.SKU,
		Name:        in.Name,
		Description: cloneString(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Patch is a partial update. Nil fields were not supplied by the caller and
// leave the current value untouched.
type Patch struct {
	SKU         *string
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
}

func (p Patch) Empty() bool {
	return p.SKU == nil && p.Name == nil && p.Description == nil && p.Price == nil && p.Stock == nil
}

// Validate checks every supplied field without mutating anything.
func (p Patch) Validate() error {
	if p.SKU != nil {
		if err := validateSKU(*p.SKU); err != nil {
			return err
		}
	}
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Price != nil {
		if err := validatePrice(*p.Price); err != nil {
			return err
		}
	}
	if p.Stock != nil {
		if err := validateStock(*p.Stock); err != nil {
			return err
		}
	}
	return nil
}

// Apply validates the patch and then copies the supplied fields onto the product.
func (pr *Product) Apply(p Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.SKU != nil {
		pr.SKU = *p.SKU
	}
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Description != nil {
		pr.Description = cloneString(p.Description)
	}
	if p.Price != nil {
		pr.Price = *p.Price
	}
	if p.Stock != nil {
		pr.Stock = *p.Stock
	}
	pr.touch()
	return nil
}

// Reserve takes quantity units out of stock for an order.
func (pr *Product) Reserve(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > pr.Stock {
		return &InsufficientStockError{Available: pr.Stock, Requested: quantity}
	}
	pr.Stock -= quantity
	pr.touch()
	return nil
}

// Release puts quantity units back, e.g. when an order is canceled.
func (pr *Product) Release(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > math.MaxInt-pr.Stock {
		return ErrStockOverflow
	}
	pr.Stock += quantity
	pr.touch()
	return nil
}

// AdjustStock applies a signed manual correction.
func (pr *Product) AdjustStock(delta int) error {
	if delta > 0 && delta > math.MaxInt-pr.Stock {
		return ErrStockOverflow
	}
	if delta < 0 && -delta > pr.Stock {
		return ErrWouldGoNegative
	}
	pr.Stock += delta
	pr.touch()
	return nil
}

func (pr *Product) Clone() *Product {
	if pr == nil {
		return nil
	}
	clone := *pr
	clone.Description = cloneString(pr.Description)
	return &clone
}

func (pr *Product) touch() {
	pr.Version++
	pr.UpdatedAt = time.Now().UTC()
}

func validateSKU(sku string) error {
	if strings.TrimSpace(sku) == "" {
		return ErrInvalidSKU
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
