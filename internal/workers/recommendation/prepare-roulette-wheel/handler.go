// internal/workers/recommendation/prepare-roulette-wheel/handler.go
package prepareroulettewheel

import (
	"context"

	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/common/observability"
	"lunch-roulette/internal/models"
	"lunch-roulette/internal/recommendation"
	"lunch-roulette/internal/workers/jobs"
	"lunch-roulette/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "prepare-roulette-wheel"

type Handler struct {
	config   *Config
	selector *recommendation.Selector
	runner   *jobs.Runner
	logger   logger.Logger
}

func NewHandler(cfg *Config, selector *recommendation.Selector, reg *registry.ActivityRegistry, log logger.Logger, obs *observability.Observability) *Handler {
	runner := jobs.NewRunner(TaskType, reg, cfg.Timeout, log, obs)
	return &Handler{
		config:   cfg,
		selector: selector,
		runner:   runner,
		logger:   runner.Logger(),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	jobs.Run(h.runner, client, job, h.execute)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	slots, err := h.selector.NewRoulette().Prepare(models.CandidateSet(input.Candidates))
	if err != nil {
		h.logger.Info("not enough candidates for the wheel", map[string]interface{}{
			"candidates": len(input.Candidates),
			"required":   recommendation.WheelSize,
		})
		return nil, err
	}
	return &Output{WheelSlots: slots}, nil
}
