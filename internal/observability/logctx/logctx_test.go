package logctx

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-inventory/internal/observability"
	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	observability.Logger
	fields []observability.Field
}

func (r *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{fields: append(append([]observability.Field{}, r.fields...), fields...)}
}

func TestFromOrFallsBack(t *testing.T) {
	fallback := &recordingLogger{}
	assert.Same(t, fallback, FromOr(context.Background(), fallback))
	assert.Nil(t, From(context.Background()))

	scoped := &recordingLogger{}
	ctx := With(context.Background(), scoped)
	assert.Same(t, scoped, FromOr(ctx, fallback))
}

func TestEnrichStacksFields(t *testing.T) {
	ctx := Enrich(context.Background(), &recordingLogger{}, observability.F("request_id", "r1"))
	ctx = Enrich(ctx, nil, observability.F("order_id", 3))

	got := From(ctx).(*recordingLogger)
	assert.Equal(t, []observability.Field{
		observability.F("request_id", "r1"),
		observability.F("order_id", 3),
	}, got.fields)
}

func TestEnrichWithoutLogger(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, Enrich(ctx, nil, observability.F("k", "v")))
}
