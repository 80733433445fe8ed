package infra

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestTracerClient_NilReceiverReturnsUsableSpan(t *testing.T) {
	var tc *TracerClient
	ctx := context.Background()

	gotCtx, span := tc.Start(ctx, "op")
	assert.Equal(t, ctx, gotCtx)
	assert.NotNil(t, span)
}

func TestTracerClient_StartReturnsDerivedContext(t *testing.T) {
	tc := &TracerClient{tracer: noop.NewTracerProvider().Tracer("test")}

	gotCtx, span := tc.Start(context.Background(), "op")
	assert.NotNil(t, gotCtx)
	assert.NotNil(t, span)
}
