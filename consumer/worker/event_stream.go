package worker

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/OrcaBus/service-filemanager/decode"
	"github.com/OrcaBus/service-filemanager/entity"
	"github.com/OrcaBus/service-filemanager/enrich"
	"github.com/OrcaBus/service-filemanager/infra"
	"github.com/OrcaBus/service-filemanager/ingest"
	"github.com/OrcaBus/service-filemanager/lineage"
)

// EventStreamConsumer drains the object-store event notification queue,
// running each delivery through the Event Decoder (§4.A), Metadata
// Enricher (§4.B), and Ingest Writer (§4.D/E), in that order.
type EventStreamConsumer struct {
	channel  *amqp.Channel
	infra    *infra.Infra
	enricher *enrich.Enricher
	writer   *ingest.Writer
	tracker  *lineage.Tracker
}

func NewEventStreamConsumer(channel *amqp.Channel, i *infra.Infra, enricher *enrich.Enricher, writer *ingest.Writer, tracker *lineage.Tracker) *EventStreamConsumer {
	return &EventStreamConsumer{
		channel:  channel,
		infra:    i,
		enricher: enricher,
		writer:   writer,
		tracker:  tracker,
	}
}

func (c *EventStreamConsumer) Start(ctx context.Context) error {
	if err := c.startConsumer(ctx); err != nil {
		return fmt.Errorf("failed to start event stream consumer: %w", err)
	}
	return nil
}

func (c *EventStreamConsumer) startConsumer(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		infra.EventStreamQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register event stream consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Event Stream Consumer] Started listening on queue: %s", infra.EventStreamQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Event Stream Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Event Stream Consumer] Channel closed")
					return
				}
				c.handle(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *EventStreamConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	fe, err := decode.DecodeStoreEvent(msg.Body)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Event Stream Consumer] Failed to decode notification: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	maxRetries := 3
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = c.execute(ctx, fe)
		if err == nil {
			c.infra.Logger.InfoWithContextf(ctx, "[Event Stream Consumer] Ingested %s event for %s/%s version=%s", fe.EventType, fe.Bucket, fe.Key, fe.VersionID)
			_ = msg.Ack(false)
			return
		}

		c.infra.Logger.ErrorWithContextf(ctx, err, "[Event Stream Consumer] Attempt %d/%d failed: %v", attempt, maxRetries, err)

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}

	c.infra.Logger.ErrorWithContextf(ctx, err, "[Event Stream Consumer] Failed after %d attempts, requeueing message", maxRetries)
	_ = msg.Nack(false, true)
}

func (c *EventStreamConsumer) execute(ctx context.Context, fe *entity.FlatEvent) error {
	return runPipeline(ctx, c.enricher, c.writer, c.tracker, c.infra.Logger, []*entity.FlatEvent{fe})
}
