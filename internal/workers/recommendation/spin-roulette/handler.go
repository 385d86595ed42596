// internal/workers/recommendation/spin-roulette/handler.go
package spinroulette

import (
	"context"
	"strconv"

	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/common/metrics"
	"lunch-roulette/internal/common/observability"
	"lunch-roulette/internal/models"
	"lunch-roulette/internal/recommendation"
	"lunch-roulette/internal/workers/jobs"
	"lunch-roulette/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "spin-roulette"

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

// execute rebuilds the wheel from its slots, draws once and commits.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	wheel := h.selector.NewRoulette()
	if _, err := wheel.Prepare(models.CandidateSet(input.WheelSlots)); err != nil {
		return nil, err
	}
	idx, err := wheel.Spin()
	if err != nil {
		return nil, err
	}
	sel, err := wheel.Commit()
	if err != nil {
		return nil, err
	}

	metrics.RouletteSpins.WithLabelValues(strconv.Itoa(idx)).Inc()
	h.logger.Debug("roulette spun", map[string]interface{}{
		"winningIndex": idx,
		"placeId":      sel.Place.ID,
	})
	return &Output{WinningIndex: idx, Selection: sel}, nil
}
