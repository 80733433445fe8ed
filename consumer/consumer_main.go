package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/OrcaBus/service-filemanager/annotate"
	"github.com/OrcaBus/service-filemanager/config"
	"github.com/OrcaBus/service-filemanager/consumer/worker"
	"github.com/OrcaBus/service-filemanager/crawl"
	"github.com/OrcaBus/service-filemanager/enrich"
	infraPkg "github.com/OrcaBus/service-filemanager/infra"
	"github.com/OrcaBus/service-filemanager/ingest"
	"github.com/OrcaBus/service-filemanager/inventory"
	"github.com/OrcaBus/service-filemanager/lineage"
	"github.com/OrcaBus/service-filemanager/repository"
)

func main() {
	err := godotenv.Load("../staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra.Postgres.DB)

	tracker := lineage.NewTracker(infra.ObjectStore, cfg.EnvConfig.Ingest.TagKeyName)
	enricher := enrich.NewEnricher(
		infra.ObjectStore,
		cfg.EnvConfig.Ingest.MaxEnrichmentAttempts,
		time.Duration(cfg.EnvConfig.Ingest.EnrichmentTimeoutMs)*time.Millisecond,
		10,
		infra.Redis,
		infra.Logger,
	)
	writer := ingest.NewWriter(repo, tracker, infra.Logger, infra.Metrics, infra.Tracer)
	crawler := crawl.NewCrawler(infra.ObjectStore)
	invReader := inventory.NewReader(infra.ObjectStore, cfg.EnvConfig.Ingest.BatchSize)
	annotationStore := annotate.NewStore(repo, tracker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventStreamConsumer := worker.NewEventStreamConsumer(infra.RabbitMQ.Channel, infra, enricher, writer, tracker)
	if err := eventStreamConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start event stream consumer: %v", err)
		log.Fatalf("Failed to start event stream consumer: %v", err)
	}

	crawlConsumer := worker.NewCrawlControlConsumer(infra.RabbitMQ.Channel, infra, crawler, enricher, writer, tracker)
	if err := crawlConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start crawl control consumer: %v", err)
		log.Fatalf("Failed to start crawl control consumer: %v", err)
	}

	inventoryConsumer := worker.NewInventoryControlConsumer(infra.RabbitMQ.Channel, infra, invReader, enricher, writer, tracker)
	if err := inventoryConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start inventory control consumer: %v", err)
		log.Fatalf("Failed to start inventory control consumer: %v", err)
	}

	annotationConsumer := worker.NewAnnotationConsumer(infra.RabbitMQ.Channel, infra, annotationStore)
	if err := annotationConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start annotation consumer: %v", err)
		log.Fatalf("Failed to start annotation consumer: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel()

	infra.Logger.InfoWithContextf(ctx, "Consumer exited properly")
}
