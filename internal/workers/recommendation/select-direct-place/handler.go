// internal/workers/recommendation/select-direct-place/handler.go
package selectdirectplace

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

const TaskType = "select-direct-place"

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

// execute fails with EMPTY_CANDIDATE_SET, which is thrown to the process
// rather than retried.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	sel, err := h.selector.Direct(models.CandidateSet(input.Candidates))
	if err != nil {
		return nil, err
	}
	h.logger.Debug("place selected", map[string]interface{}{
		"placeId":   sel.Place.ID,
		"slotIndex": sel.SlotIndex,
	})
	return &Output{Selection: sel}, nil
}
