package order

import (
	"fmt"

	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/domainerr"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusShipped  Status = "SHIPPED"
	StatusCanceled Status = "CANCELED"
)

var (
	ErrInvalidTransition = domainerr.New(domainerr.ErrInvalidTransition, "Invalid status transition")
	ErrUnknownStatus     = domainerr.New(domainerr.ErrValidation, "status must be one of PENDING, PAID, SHIPPED, CANCELED")
)

// transitions is the order lifecycle. PAID cannot be canceled because the
// payment has already been captured.
var transitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusPaid:     true,
		StatusCanceled: true,
	},
	StatusPaid: {
		StatusShipped: true,
	},
	StatusShipped:  {},
	StatusCanceled: {},
}

// TransitionError reports a move the lifecycle table does not allow.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string { return e.Detail() }

func (e *TransitionError) Detail() string {
	return fmt.Sprintf("Invalid status transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ParseStatus validates a status coming from outside the domain.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", ErrUnknownStatus
	}
	return st, nil
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// CancelError reports a cancel request for an order that can no longer be
// canceled.
type CancelError struct {
	Status Status
}

func (e *CancelError) Error() string { return e.Detail() }

func (e *CancelError) Detail() string {
	return fmt.Sprintf("Cannot cancel order with status: %s", e.Status)
}

func (e *CancelError) Unwrap() error { return ErrInvalidTransition }
