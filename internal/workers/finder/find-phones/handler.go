// internal/workers/finder/find-phones/handler.go
package findphones

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"phone-finder-workers/internal/common/errors"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/metrics"
	"phone-finder-workers/internal/finder"
	"phone-finder-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "find-phones"

type Handler struct {
	config   *Config
	pipeline *finder.Pipeline
	errors   *errors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, pipeline *finder.Pipeline, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		pipeline: pipeline,
		errors:   errors.NewErrorHandler(log),
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
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

	if err := h.completeJob(client, job, output); err != nil {
		return err
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"found":      output.Found,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.pipeline.Find(ctx, finder.Request{
		Answers:   models.NewAnswerSet(input.Answers),
		Utterance: input.Utterance,
		History:   input.History,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		Filter:        result.Filter,
		Budget:        result.Budget,
		BudgetParsed:  result.BudgetParsed,
		DroppedFields: result.DroppedFields,
		Results:       result.Results,
		Found:         !result.Results.Empty(),
		Message:       result.Message,
	}, nil
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
