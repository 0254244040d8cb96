package payment

import "context"

// ReplayGuard remembers processed webhook deliveries.
type ReplayGuard interface {
	// Claim atomically records key and reports whether this caller was first.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a retry of a failed delivery can be processed.
	Release(ctx context.Context, key string) error
}
