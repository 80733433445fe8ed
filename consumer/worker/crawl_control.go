package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/OrcaBus/service-filemanager/crawl"
	"github.com/OrcaBus/service-filemanager/enrich"
	"github.com/OrcaBus/service-filemanager/infra"
	"github.com/OrcaBus/service-filemanager/ingest"
	"github.com/OrcaBus/service-filemanager/lineage"
)

// crawlControlMessage is the §6 crawl control request: a bucket and prefix
// to walk, answered with a {nObjects, nBytes} summary logged on completion.
type crawlControlMessage struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
}

// CrawlControlConsumer drains crawl requests and runs the Crawler (§4.G)
// against the requested prefix, feeding every record it finds through the
// same enrich/write pipeline as the event stream.
type CrawlControlConsumer struct {
	channel  *amqp.Channel
	infra    *infra.Infra
	crawler  *crawl.Crawler
	enricher *enrich.Enricher
	writer   *ingest.Writer
	tracker  *lineage.Tracker
}

func NewCrawlControlConsumer(channel *amqp.Channel, i *infra.Infra, crawler *crawl.Crawler, enricher *enrich.Enricher, writer *ingest.Writer, tracker *lineage.Tracker) *CrawlControlConsumer {
	return &CrawlControlConsumer{
		channel:  channel,
		infra:    i,
		crawler:  crawler,
		enricher: enricher,
		writer:   writer,
		tracker:  tracker,
	}
}

func (c *CrawlControlConsumer) Start(ctx context.Context) error {
	if err := c.startConsumer(ctx); err != nil {
		return fmt.Errorf("failed to start crawl control consumer: %w", err)
	}
	return nil
}

func (c *CrawlControlConsumer) startConsumer(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		infra.CrawlControlQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register crawl control consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Crawl Control Consumer] Started listening on queue: %s", infra.CrawlControlQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Crawl Control Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Crawl Control Consumer] Channel closed")
					return
				}
				c.handle(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *CrawlControlConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	var payload crawlControlMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Crawl Control Consumer] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}
	if payload.Bucket == "" {
		c.infra.Logger.ErrorWithContextf(ctx, nil, "[Crawl Control Consumer] Missing bucket in crawl request")
		_ = msg.Nack(false, false)
		return
	}

	maxRetries := 3
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = c.execute(ctx, payload)
		if err == nil {
			_ = msg.Ack(false)
			return
		}

		c.infra.Logger.ErrorWithContextf(ctx, err, "[Crawl Control Consumer] Attempt %d/%d failed: %v", attempt, maxRetries, err)

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}

	c.infra.Logger.ErrorWithContextf(ctx, err, "[Crawl Control Consumer] Failed after %d attempts, requeueing message", maxRetries)
	_ = msg.Nack(false, true)
}

func (c *CrawlControlConsumer) execute(ctx context.Context, payload crawlControlMessage) error {
	events, summary, err := c.crawler.Crawl(ctx, payload.Bucket, payload.Prefix)
	if err != nil {
		return fmt.Errorf("crawling %s/%s: %w", payload.Bucket, payload.Prefix, err)
	}

	if len(events) == 0 {
		c.infra.Logger.InfoWithContextf(ctx, "[Crawl Control Consumer] No objects found under %s/%s", payload.Bucket, payload.Prefix)
		return nil
	}

	if err := runPipeline(ctx, c.enricher, c.writer, c.tracker, c.infra.Logger, events); err != nil {
		return err
	}
	c.infra.Metrics.IncCrawlObjects(ctx, int64(summary.NObjects))

	c.infra.Logger.InfoWithContextf(ctx, "[Crawl Control Consumer] Crawled %s/%s: %d objects, %d bytes", payload.Bucket, payload.Prefix, summary.NObjects, summary.NBytes)
	return nil
}
