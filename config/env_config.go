package config

import (
	"os"
	"strconv"
)

// EnvConfig holds every environment-sourced setting recognized by the
// engine (§6): store_event_source_endpoint, db_endpoint, db_user,
// tag_key_name, max_enrichment_attempts, enrichment_timeout_ms,
// batch_size, log_level, plus the connection settings for the ambient
// infrastructure (Postgres, Redis, RabbitMQ, the S3-compatible endpoint).
type EnvConfig struct {
	Postgres struct {
		Host     string
		Database string
		Username string
		Password string
		Port     string
	}
	Redis struct {
		Host     string
		Port     string
		Password string
		Database int
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	ObjectStore struct {
		Endpoint        string
		AccessKeyID     string
		SecretAccessKey string
		UseSSL          bool
	}
	Ingest struct {
		// TagKeyName is the fixed object tag under which the lineage
		// identifier is stored. Default: umccr-org:OrcaBusFileManagerIngestId.
		TagKeyName string
		// MaxEnrichmentAttempts bounds the Metadata Enricher's retry
		// budget for transient store errors before falling back to NULL
		// metadata.
		MaxEnrichmentAttempts int
		// EnrichmentTimeoutMs bounds each individual enrichment call.
		EnrichmentTimeoutMs int
		// BatchSize bounds how many rows the Inventory Reader buffers
		// before handing a batch on. The Ingest Writer does not use it; it
		// commits one transaction per (bucket, key) group.
		BatchSize int
	}
	LogLevel string
}

func LoadEnvConfig() *EnvConfig {
	var c EnvConfig

	c.Postgres.Host = getEnv("DB_ENDPOINT", "localhost")
	c.Postgres.Database = getEnv("DB_NAME", "filemanager")
	c.Postgres.Username = getEnv("DB_USER", "filemanager")
	c.Postgres.Password = getEnv("DB_PASSWORD", "")
	c.Postgres.Port = getEnv("DB_PORT", "5432")

	c.Redis.Host = getEnv("REDIS_HOST", "localhost")
	c.Redis.Port = getEnv("REDIS_PORT", "6379")
	c.Redis.Password = getEnv("REDIS_PASSWORD", "")
	c.Redis.Database = getEnvInt("REDIS_DB", 0)

	c.RabbitMQ.Host = getEnv("RABBITMQ_HOST", "localhost")
	c.RabbitMQ.Port = getEnv("RABBITMQ_PORT", "5672")
	c.RabbitMQ.Username = getEnv("RABBITMQ_USER", "guest")
	c.RabbitMQ.Password = getEnv("RABBITMQ_PASSWORD", "guest")

	c.ObjectStore.Endpoint = getEnv("STORE_EVENT_SOURCE_ENDPOINT", getEnv("OBJECT_STORE_ENDPOINT", "localhost:9000"))
	c.ObjectStore.AccessKeyID = getEnv("OBJECT_STORE_ACCESS_KEY", "")
	c.ObjectStore.SecretAccessKey = getEnv("OBJECT_STORE_SECRET_KEY", "")
	c.ObjectStore.UseSSL = getEnvBool("OBJECT_STORE_USE_SSL", false)

	c.Ingest.TagKeyName = getEnv("TAG_KEY_NAME", "umccr-org:OrcaBusFileManagerIngestId")
	c.Ingest.MaxEnrichmentAttempts = getEnvInt("MAX_ENRICHMENT_ATTEMPTS", 3)
	c.Ingest.EnrichmentTimeoutMs = getEnvInt("ENRICHMENT_TIMEOUT_MS", 2000)
	c.Ingest.BatchSize = getEnvInt("BATCH_SIZE", 500)

	c.LogLevel = getEnv("LOG_LEVEL", "info")

	return &c
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
