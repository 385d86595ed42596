// Package jobs holds the job plumbing shared by the recommendation workers:
// variable decoding against the registry schema, completion, failure
// handling and job metrics.
package jobs

import (
	"context"
	"time"

	apperrors "lunch-roulette/internal/common/errors"
	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/common/metrics"
	"lunch-roulette/internal/common/observability"
	"lunch-roulette/internal/common/validation"
	"lunch-roulette/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
)

const defaultTimeout = 10 * time.Second

// Runner executes jobs of one task type.
type Runner struct {
	taskType string
	schema   map[string]interface{}
	timeout  time.Duration
	logger   logger.Logger
	errors   *apperrors.ErrorHandler
	obs      *observability.Observability
}

// NewRunner looks up the task type in reg for its input schema and timeout.
// A zero timeout falls back to the registry's, then to ten seconds.
func NewRunner(taskType string, reg *registry.ActivityRegistry, timeout time.Duration, log logger.Logger, obs *observability.Observability) *Runner {
	r := &Runner{
		taskType: taskType,
		timeout:  timeout,
		logger:   log.WithFields(map[string]interface{}{"taskType": taskType}),
		obs:      obs,
	}
	r.errors = apperrors.NewErrorHandler(r.logger)
	if r.obs == nil {
		r.obs = &observability.Observability{}
	}

	if reg != nil {
		if a, ok := reg.Find(taskType); ok {
			r.schema = a.InputSchema
			if r.timeout == 0 {
				r.timeout = a.TimeoutDuration(defaultTimeout)
			}
		}
	}
	if r.timeout == 0 {
		r.timeout = defaultTimeout
	}
	return r
}

func (r *Runner) TaskType() string { return r.taskType }

func (r *Runner) Logger() logger.Logger { return r.logger }

// Decode validates the job variables against the input schema and
// unmarshals them into dst.
func (r *Runner) Decode(variables string, dst interface{}) error {
	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &vars); err != nil {
		return apperrors.NewInvalidRequestError("parse input: " + err.Error())
	}
	if res := validation.ValidateInput(vars, r.schema); !res.Valid {
		return apperrors.NewInvalidRequestError(res.Error())
	}
	if err := json.Unmarshal([]byte(variables), dst); err != nil {
		return apperrors.NewInvalidRequestError("parse input: " + err.Error())
	}
	return nil
}

// Run decodes the job into I, executes exec and completes the job with its
// output or hands the error to the error handler.
func Run[I any, O any](r *Runner, client worker.JobClient, job entities.Job, exec func(context.Context, *I) (*O, error)) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(r.taskType).Dec()

	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	ctx, span := r.obs.StartSpan(ctx, r.taskType,
		attribute.Int64("job.key", job.Key),
		attribute.Int64("process.instance.key", job.ProcessInstanceKey),
	)
	defer span.End()

	var input I
	if err := r.Decode(job.Variables, &input); err != nil {
		r.fail(ctx, client, job, err, start)
		return
	}

	output, err := exec(ctx, &input)
	if err != nil {
		span.RecordError(err)
		r.fail(ctx, client, job, err, start)
		return
	}
	r.complete(ctx, client, job, output, start)
}

func (r *Runner) complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}, start time.Time) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		r.fail(ctx, client, job, apperrors.NewInternalError(err), start)
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(time.Since(start).Seconds())
	r.obs.RecordJobProcessed(ctx, r.taskType, "completed")
	r.obs.RecordJobDuration(ctx, r.taskType, time.Since(start), "completed")
	r.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

func (r *Runner) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	code := apperrors.FromDomain(err).Code
	metrics.WorkerJobsFailed.WithLabelValues(r.taskType, string(code)).Inc()
	metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(time.Since(start).Seconds())
	r.obs.RecordJobProcessed(ctx, r.taskType, "failed")
	r.obs.RecordJobDuration(ctx, r.taskType, time.Since(start), "failed")

	r.errors.HandleJobError(ctx, client, job, err)
}
