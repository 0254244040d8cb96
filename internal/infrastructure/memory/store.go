package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Zhima-Mochi/minishop-inventory/internal/application"
	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/order"
)

var ErrReadOnly = errors.New("memory: write attempted in a read-only view")

// Store owns every product and order of the process. All access goes through
// Atomic or View so the stock/order pair is never observed half-applied.
type Store struct {
	mu         sync.RWMutex
	products   map[int64]*catalog.Product
	skus       map[string]int64
	orders     map[int64]*order.Order
	productSeq int64
	orderSeq   int64
}

var _ application.UnitOfWork = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		products: make(map[int64]*catalog.Product),
		skus:     make(map[string]int64),
		orders:   make(map[int64]*order.Order),
	}
}

// Atomic runs fn under the write lock. Writes made by fn are undone in reverse
// order if fn returns an error or panics.
func (s *Store) Atomic(ctx context.Context, fn func(tx application.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{s: s, writable: true}
	committed := false
	defer func() {
		if !committed {
			t.rollback()
		}
	}()

	if err := fn(t); err != nil {
		return err
	}
	committed = true
	return nil
}

// View runs fn under the read lock.
func (s *Store) View(ctx context.Context, fn func(tx application.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&tx{s: s})
}

type tx struct {
	s        *Store
	writable bool
	undo     []func()
}

func (t *tx) Products() catalog.Repository { return &productRepository{tx: t} }

func (t *tx) Orders() order.Repository { return &orderRepository{tx: t} }

func (t *tx) write(undo func()) error {
	if !t.writable {
		return ErrReadOnly
	}
	t.undo = append(t.undo, undo)
	return nil
}

func (t *tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}
