// Package domainerr defines the failure kinds shared by every bounded context.
// Domain packages declare their own sentinels on top of these kinds and the
// presentation layer maps kinds to transport status codes.
package domainerr

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrPrecondition      = errors.New("precondition failed")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
)

// Error is a client-facing failure: Msg is safe to return to callers and Kind
// classifies it.
type Error struct {
	Kind error
	Msg  string
}

func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func (e *Error) Detail() string { return e.Msg }

// Validation builds an ad-hoc validation failure.
func Validation(msg string) error {
	return New(ErrValidation, msg)
}

// Detailer is implemented by errors that carry a client-facing message.
type Detailer interface {
	Detail() string
}

// Detail returns the outermost client-facing message carried by err, if any.
func Detail(err error) (string, bool) {
	var d Detailer
	if errors.As(err, &d) {
		return d.Detail(), true
	}
	return "", false
}
