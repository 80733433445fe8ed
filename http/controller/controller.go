// Package controller implements the ambient HTTP surface: liveness and
// readiness endpoints for the engine's consumer process. Mirrors the
// teacher's single Controller-struct-of-dependencies shape, trimmed to the
// operations this domain actually exposes over HTTP — the query/read API
// named in spec Non-goals has no home here, and every domain operation
// (ingest, crawl, annotate) is reached over RabbitMQ, not HTTP.
package controller

import (
	"github.com/OrcaBus/service-filemanager/config"
	"github.com/OrcaBus/service-filemanager/infra"
	"github.com/OrcaBus/service-filemanager/repository"
)

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
}

func NewController(cfg *config.Config, i *infra.Infra, repo *repository.Repository) *Controller {
	if repo == nil {
		panic("Failed to initialize Repository")
	}
	return &Controller{
		Config:     cfg,
		Infra:      i,
		Repository: repo,
	}
}
