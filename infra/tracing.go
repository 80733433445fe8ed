package infra

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/OrcaBus/service-filemanager/config"
)

// TracerClient wraps an OTel tracer the same way LoggerClient wraps slog:
// a thin, optional client the pipeline can ask for a span without importing
// the SDK directly.
type TracerClient struct {
	tracer trace.Tracer
}

func InitTracerClient(cfg *config.EnvConfig) *TracerClient {
	exporter, err := otlptracehttp.New(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to init OTLP trace exporter: %v\n", err)
		return &TracerClient{tracer: otel.Tracer("filemanager")}
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	return &TracerClient{tracer: provider.Tracer("filemanager")}
}

// Start begins a span, matching the ctx-in/ctx-out shape every call site
// in this codebase already uses for cancellation and deadlines.
func (t *TracerClient) Start(ctx context.Context, name string) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, name)
}
