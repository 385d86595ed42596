// internal/workers/recommendation/enrich-place-details/handler.go
package enrichplacedetails

import (
	"context"
	"time"

	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/common/observability"
	"lunch-roulette/internal/models"
	"lunch-roulette/internal/workers/jobs"
	"lunch-roulette/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "enrich-place-details"

type Enricher interface {
	PlaceDetails(ctx context.Context, name string, lat, lng float64) (*models.PlaceDetails, error)
}

type Handler struct {
	config   *Config
	enricher Enricher
	runner   *jobs.Runner
	logger   logger.Logger
	now      func() time.Time
}

func NewHandler(cfg *Config, enricher Enricher, reg *registry.ActivityRegistry, log logger.Logger, obs *observability.Observability) *Handler {
	runner := jobs.NewRunner(TaskType, reg, cfg.Timeout, log, obs)
	return &Handler{
		config:   cfg,
		enricher: enricher,
		runner:   runner,
		logger:   runner.Logger(),
		now:      time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	jobs.Run(h.runner, client, job, h.execute)
}

// execute never returns an error: missing details are an ordinary outcome.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	details, err := h.enricher.PlaceDetails(ctx, input.Name, input.Lat, input.Lng)
	if err != nil || details.Empty() {
		h.logger.Info("no details for place", map[string]interface{}{
			"name":  input.Name,
			"error": err,
		})
		return &Output{Enriched: false, TodayHours: models.HoursUnknown}, nil
	}
	return &Output{
		Details:    details,
		Enriched:   true,
		TodayHours: details.TodayHours(h.now()),
	}, nil
}
