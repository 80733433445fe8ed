package worker

import (
	"context"

	"github.com/OrcaBus/service-filemanager/entity"
	"github.com/OrcaBus/service-filemanager/enrich"
	"github.com/OrcaBus/service-filemanager/ingest"
	"github.com/OrcaBus/service-filemanager/lineage"
)

// runPipeline is the enrich -> write -> reconcile sequence shared by every
// consumer that feeds FlatEvents into the Ingest Writer (event stream,
// crawl control, inventory control). Each tag write-back is attempted once
// after commit; those that fail are dropped with a warning and are not
// persisted or retried later — the locally recorded lineage_id already
// committed is authoritative regardless, per §4.E step 4.
func runPipeline(ctx context.Context, enricher *enrich.Enricher, writer *ingest.Writer, tracker *lineage.Tracker, logger ingest.Logger, events []*entity.FlatEvent) error {
	for _, fe := range events {
		enricher.Enrich(ctx, fe)
	}

	pending, err := writer.WriteBatch(ctx, events)
	if err != nil {
		return err
	}

	if len(pending) > 0 {
		stillPending := tracker.Reconcile(ctx, pending)
		if len(stillPending) > 0 {
			logger.WarningWithContextf(ctx, "dropping %d failed lineage tag write-backs", len(stillPending))
		}
	}

	return nil
}
