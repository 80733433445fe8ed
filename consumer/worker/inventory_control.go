package worker

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/OrcaBus/service-filemanager/entity"
	"github.com/OrcaBus/service-filemanager/enrich"
	"github.com/OrcaBus/service-filemanager/infra"
	"github.com/OrcaBus/service-filemanager/ingest"
	"github.com/OrcaBus/service-filemanager/inventory"
	"github.com/OrcaBus/service-filemanager/lineage"
)

// InventoryControlConsumer drains inventory manifest jobs and runs the
// Inventory Reader (§4.F) over every file the manifest names, feeding
// decoded batches through the same enrich/write pipeline as the event
// stream and crawler.
type InventoryControlConsumer struct {
	channel  *amqp.Channel
	infra    *infra.Infra
	reader   *inventory.Reader
	enricher *enrich.Enricher
	writer   *ingest.Writer
	tracker  *lineage.Tracker
}

func NewInventoryControlConsumer(channel *amqp.Channel, i *infra.Infra, reader *inventory.Reader, enricher *enrich.Enricher, writer *ingest.Writer, tracker *lineage.Tracker) *InventoryControlConsumer {
	return &InventoryControlConsumer{
		channel:  channel,
		infra:    i,
		reader:   reader,
		enricher: enricher,
		writer:   writer,
		tracker:  tracker,
	}
}

func (c *InventoryControlConsumer) Start(ctx context.Context) error {
	if err := c.startConsumer(ctx); err != nil {
		return fmt.Errorf("failed to start inventory control consumer: %w", err)
	}
	return nil
}

func (c *InventoryControlConsumer) startConsumer(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		infra.InventoryControlQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register inventory control consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Inventory Control Consumer] Started listening on queue: %s", infra.InventoryControlQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Inventory Control Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Inventory Control Consumer] Channel closed")
					return
				}
				c.handle(ctx, msg)
			}
		}
	}()

	return nil
}

// handle treats the delivery body as the manifest JSON itself (§6): the
// control plane publishing the job is expected to have already resolved
// the manifest location to its contents.
func (c *InventoryControlConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	maxRetries := 3
	var summary *inventory.Summary
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		summary, err = c.reader.ReadManifest(ctx, msg.Body, c.sink(ctx))
		if err == nil {
			break
		}
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Inventory Control Consumer] Attempt %d/%d failed: %v", attempt, maxRetries, err)
		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}

	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Inventory Control Consumer] Failed after %d attempts, requeueing message", maxRetries)
		_ = msg.Nack(false, true)
		return
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Inventory Control Consumer] Processed manifest: %d files ok, %d skipped, %d rows", summary.FilesOK, summary.FilesSkipped, summary.RowsEmitted)
	for _, fileErr := range summary.Errors {
		c.infra.Logger.WarningWithContextf(ctx, "[Inventory Control Consumer] Skipped file: %v", fileErr)
	}
	_ = msg.Ack(false)
}

func (c *InventoryControlConsumer) sink(ctx context.Context) func([]*entity.FlatEvent) error {
	return func(batch []*entity.FlatEvent) error {
		if err := runPipeline(ctx, c.enricher, c.writer, c.tracker, c.infra.Logger, batch); err != nil {
			return err
		}
		c.infra.Metrics.IncInventoryRows(ctx, int64(len(batch)))
		return nil
	}
}
