package infra

import (
	"github.com/OrcaBus/service-filemanager/config"
	"github.com/OrcaBus/service-filemanager/store"
)

// Infra bundles every ambient client the engine's pipelines depend on,
// mirroring the teacher's single-struct-of-clients shape but trimmed to
// this domain's surface: no IAM/upload services, an object-store client
// in place of a bucket-admin MinIO wrapper.
type Infra struct {
	Redis       *RedisClient
	Postgres    *PostgresClient
	Logger      *LoggerClient
	Metrics     *MetricsClient
	Tracer      *TracerClient
	RabbitMQ    *RabbitMQClient
	ObjectStore *store.Client
}

var infraInstance *Infra

func InitInfra(cfg *config.Config) *Infra {
	if infraInstance != nil {
		return infraInstance
	}

	redis := InitRedisClient(cfg.EnvConfig)
	if redis == nil {
		panic("Failed to initialize Redis service")
	}

	postgres := InitPostgresClient(cfg.EnvConfig)
	if postgres == nil {
		panic("Failed to initialize Postgres service")
	}

	logger := InitLoggerClient(cfg.EnvConfig)
	if logger == nil {
		panic("Failed to initialize Logger service")
	}

	metrics := InitMetricsClient(cfg.EnvConfig)
	tracer := InitTracerClient(cfg.EnvConfig)

	rabbitMQ := InitRabbitMQClient(cfg.EnvConfig)
	if rabbitMQ == nil {
		panic("Failed to initialize RabbitMQ service")
	}

	objectStore := store.InitClient(cfg.EnvConfig)
	if objectStore == nil {
		panic("Failed to initialize object store client")
	}

	infraInstance = &Infra{
		Redis:       redis,
		Postgres:    postgres,
		Logger:      logger,
		Metrics:     metrics,
		Tracer:      tracer,
		RabbitMQ:    rabbitMQ,
		ObjectStore: objectStore,
	}

	return infraInstance
}

func GetClient() *Infra {
	if infraInstance == nil {
		panic("Infra not initialized. Call InitInfra() first.")
	}
	return infraInstance
}
