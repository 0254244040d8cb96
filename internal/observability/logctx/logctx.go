// Package logctx carries the request- or event-scoped logger through context,
// so repositories and domain steps log with the request_id, trace ids and
// order/product fields bound upstream.
package logctx

import (
	"context"

	"github.com/Zhima-Mochi/minishop-inventory/internal/observability"
)

type loggerKey struct{}

// With returns ctx carrying logger. A nil logger leaves ctx unchanged.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	l, _ := ctx.Value(loggerKey{}).(observability.Logger)
	return l
}

// FromOr prefers the scoped logger. Handlers pass their component logger as
// fallback for requests that bypassed the middleware.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if l := From(ctx); l != nil {
		return l
	}
	return fallback
}

// Enrich binds fields such as order_id onto the scoped logger and stores the
// result, so later entries in the same request or event carry them.
func Enrich(ctx context.Context, fallback observability.Logger, fields ...observability.Field) context.Context {
	l := FromOr(ctx, fallback)
	if l == nil {
		return ctx
	}
	return With(ctx, l.With(fields...))
}
