package infra

import (
	"context"
	"fmt"
	"os"

	runtimemetrics "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/OrcaBus/service-filemanager/config"
)

// MetricsClient publishes the pipeline's throughput counters over OTLP,
// the metric-signal counterpart to LoggerClient's log bridge.
type MetricsClient struct {
	EventsWritten    metric.Int64Counter
	Duplicates       metric.Int64Counter
	Reordered        metric.Int64Counter
	EnrichmentErrors metric.Int64Counter
	CrawlObjects     metric.Int64Counter
	InventoryRows    metric.Int64Counter
}

func InitMetricsClient(cfg *config.EnvConfig) *MetricsClient {
	exporter, err := otlpmetrichttp.New(context.Background())
	if err != nil {
		// Same fallback stance as the logger: an unreachable collector
		// must not stop the consumer from starting.
		fmt.Fprintf(os.Stderr, "warning: failed to init OTLP metric exporter: %v\n", err)
		return buildMetricsClient(noop.NewMeterProvider().Meter("filemanager"))
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	if err := runtimemetrics.Start(runtimemetrics.WithMeterProvider(provider)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to start Go runtime metrics: %v\n", err)
	}
	return buildMetricsClient(provider.Meter("filemanager"))
}

func buildMetricsClient(meter metric.Meter) *MetricsClient {
	mc := &MetricsClient{}
	mc.EventsWritten, _ = meter.Int64Counter("filemanager.events_written", metric.WithDescription("StoreEvent rows committed"))
	mc.Duplicates, _ = meter.Int64Counter("filemanager.events_duplicate", metric.WithDescription("events suppressed as duplicates of an already-persisted event"))
	mc.Reordered, _ = meter.Int64Counter("filemanager.events_reordered", metric.WithDescription("events delivered out of sequencer order"))
	mc.EnrichmentErrors, _ = meter.Int64Counter("filemanager.enrichment_errors", metric.WithDescription("Metadata Enricher lookups that did not resolve"))
	mc.CrawlObjects, _ = meter.Int64Counter("filemanager.crawl_objects", metric.WithDescription("objects discovered by a crawl control job"))
	mc.InventoryRows, _ = meter.Int64Counter("filemanager.inventory_rows", metric.WithDescription("rows emitted from an inventory manifest"))
	return mc
}

func (m *MetricsClient) IncEventsWritten(ctx context.Context, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.EventsWritten.Add(ctx, n)
}

func (m *MetricsClient) IncDuplicates(ctx context.Context, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.Duplicates.Add(ctx, n)
}

func (m *MetricsClient) IncReordered(ctx context.Context, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.Reordered.Add(ctx, n)
}

func (m *MetricsClient) IncEnrichmentErrors(ctx context.Context, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.EnrichmentErrors.Add(ctx, n)
}

func (m *MetricsClient) IncCrawlObjects(ctx context.Context, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.CrawlObjects.Add(ctx, n)
}

func (m *MetricsClient) IncInventoryRows(ctx context.Context, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.InventoryRows.Add(ctx, n)
}
