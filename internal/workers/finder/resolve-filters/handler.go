// internal/workers/finder/resolve-filters/handler.go
package resolvefilters

import (
	"context"
	"encoding/json"
	"fmt"

	"phone-finder-workers/internal/common/errors"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/metrics"
	"phone-finder-workers/internal/filters"
	"phone-finder-workers/internal/finder"
	"phone-finder-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "resolve-filters"

type Handler struct {
	config   *Config
	resolver *filters.Resolver
	errors   *errors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, resolver *filters.Resolver, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		resolver: resolver,
		errors:   errors.NewErrorHandler(log),
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		err = errors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err))
		h.failJob(client, job, err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return err
	}

	return h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.resolver.ResolveDetailed(ctx, filters.Request{
		Answers:   models.NewAnswerSet(input.Answers),
		Utterance: input.Utterance,
		History:   input.History,
	})
	if err != nil {
		return nil, err
	}

	f := res.Filter
	if input.BudgetParsed != nil {
		if *input.BudgetParsed && input.Budget != nil && *input.Budget > 0 {
			f.MaxPrice = models.IntPtr(*input.Budget)
		} else {
			f.MaxPrice = nil
		}
	}

	dropped := res.Dropped
	if dropped == nil {
		dropped = []string{}
	}

	h.logger.Info("filters resolved", map[string]interface{}{
		"filter":  f.String(),
		"dropped": dropped,
	})

	return &Output{Filter: f, DroppedFields: dropped}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	return nil
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	h.errors.HandleJobError(context.Background(), client, job, finder.StandardError(err))
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
