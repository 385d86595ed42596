// internal/workers/recommendation/search-nearby-places/handler.go
package searchnearbyplaces

import (
	"context"
	"fmt"

	apperrors "lunch-roulette/internal/common/errors"
	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/common/observability"
	"lunch-roulette/internal/models"
	"lunch-roulette/internal/providers/geolocation"
	"lunch-roulette/internal/workers/jobs"
	"lunch-roulette/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "search-nearby-places"

// Searcher aggregates category searches around a position.
type Searcher interface {
	Search(ctx context.Context, origin models.Coordinates, filters models.Filters) (models.CandidateSet, error)
}

type Handler struct {
	config   *Config
	searcher Searcher
	runner   *jobs.Runner
	logger   logger.Logger
}

func NewHandler(cfg *Config, searcher Searcher, reg *registry.ActivityRegistry, log logger.Logger, obs *observability.Observability) *Handler {
	runner := jobs.NewRunner(TaskType, reg, cfg.Timeout, log, obs)
	return &Handler{
		config:   cfg,
		searcher: searcher,
		runner:   runner,
		logger:   runner.Logger(),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	jobs.Run(h.runner, client, job, h.execute)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if !geolocation.Valid(input.Lat, input.Lng) {
		return nil, apperrors.NewInvalidRequestError(fmt.Sprintf("invalid position (%v, %v)", input.Lat, input.Lng))
	}

	set, err := h.searcher.Search(ctx, models.Coordinates{Lat: input.Lat, Lng: input.Lng}, models.Filters{
		Categories:   input.Categories,
		RadiusMeters: input.Radius,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Debug("candidates aggregated", map[string]interface{}{
		"categories": input.Categories,
		"count":      len(set),
	})
	return &Output{Candidates: set, CandidateCount: len(set)}, nil
}
