package application

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/domainerr"
	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-inventory/internal/domain/outbox"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// Tx exposes the repositories bound to one unit of work.
type Tx interface {
	Products() catalog.Repository
	Orders() order.Repository
}

// UnitOfWork runs callbacks against the shared product/order state.
//
// Atomic callbacks run with exclusive access; if the callback returns an
// error none of its writes are visible afterwards. View callbacks run with
// shared access and must not write.
type UnitOfWork interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

const (
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond
)

// Event and Publisher mirror the outbox ports so use cases depend on one package.
type (
	Event     = domoutbox.Event
	Publisher = domoutbox.Publisher
)

// statusOf derives the span/log status text from an error kind.
func statusOf(err error) string {
	switch {
	case errors.Is(err, domainerr.ErrValidation):
		return "VALIDATION_FAILED"
	case errors.Is(err, domainerr.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, domainerr.ErrConflict):
		return "CONFLICT"
	case errors.Is(err, domainerr.ErrPrecondition):
		return "PRECONDITION_FAILED"
	case errors.Is(err, domainerr.ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, domainerr.ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case errors.Is(err, domainerr.ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CONTEXT_CANCELED"
	default:
		return "FAILED"
	}
}
