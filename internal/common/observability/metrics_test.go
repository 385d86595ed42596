package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestZeroValueIsUsable(t *testing.T) {
	var o Observability
	ctx, span := o.StartSpan(context.Background(), "aggregate", attribute.Int("categories", 2))
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		o.RecordJobProcessed(ctx, "spin-roulette", "completed")
		o.RecordJobDuration(ctx, "spin-roulette", 12*time.Millisecond, "completed")
		o.Shutdown(context.Background())
	})
}

func TestNewWithoutJaeger(t *testing.T) {
	o := New("lunch-roulette-test", "")
	assert.Nil(t, o.tracerProvider)

	_, span := o.StartSpan(context.Background(), "search")
	span.End()
	o.RecordJobProcessed(context.Background(), "search-nearby-places", "completed")
	o.Shutdown(context.Background())
}
