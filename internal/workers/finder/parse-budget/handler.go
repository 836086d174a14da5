// internal/workers/finder/parse-budget/handler.go
package parsebudget

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"phone-finder-workers/internal/budget"
	"phone-finder-workers/internal/common/errors"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/metrics"
	"phone-finder-workers/internal/finder"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "parse-budget"

type Handler struct {
	config *Config
	parser *budget.Parser
	errors *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, parser *budget.Parser, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		parser: parser,
		errors: errors.NewErrorHandler(log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(client, job, err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(client, job, err)
		return err
	}

	return h.completeJob(client, job, output)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// execute never fails on an unreadable budget: the process continues
// without a price ceiling and budgetParsed tells the gateway which way to go.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	value, rule, err := h.parser.ParseWithRule(ctx, input.BudgetText)
	switch {
	case err == nil:
	case stderrors.Is(err, budget.ErrNotParsed):
		h.logger.Info("budget not parsed", map[string]interface{}{"text": input.BudgetText})
		return &Output{BudgetRule: string(budget.RuleNone)}, nil
	default:
		return nil, err
	}

	h.logger.Info("budget parsed", map[string]interface{}{
		"budget": value,
		"rule":   string(rule),
	})

	return &Output{Budget: value, BudgetParsed: true, BudgetRule: string(rule)}, nil
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
