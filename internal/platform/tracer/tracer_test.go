package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"credo/internal/platform/tracer"
)

func TestNoopTracer(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanVerify,
		tracer.String(tracer.AttrCID, "bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy"),
		tracer.Bool(tracer.AttrCacheHit, true),
	)
	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.String(tracer.AttrOutcome, "verified"))
	span.AddEvent(tracer.EventDigestComputed, tracer.Int64(tracer.AttrBytes, 42))
	span.End(errors.New("boom"))
}

func TestOTelTracerWithNoopProvider(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	ctx, span := tr.Start(context.Background(), tracer.SpanContentFetch,
		tracer.String(tracer.AttrCID, "cid"),
		tracer.Int64(tracer.AttrBytes, 10),
		tracer.Float64("ratio", 0.5),
	)
	require.NotNil(t, ctx)
	require.NotNil(t, span)
	span.SetAttributes(tracer.Duration("latency", 150*time.Millisecond))
	span.End(nil)
}

func TestAttributeConstructors(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		attr := tracer.String("key", "value")
		assert.Equal(t, "key", attr.Key)
		assert.Equal(t, "value", attr.Value)
	})

	t.Run("Int64", func(t *testing.T) {
		attr := tracer.Int64("count", 42)
		assert.Equal(t, int64(42), attr.Value)
	})

	t.Run("Duration", func(t *testing.T) {
		attr := tracer.Duration("latency", 150*time.Millisecond)
		assert.Equal(t, "latency", attr.Key)
		assert.Equal(t, int64(150), attr.Value)
	})
}
