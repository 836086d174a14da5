// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"phone-finder-workers/internal/common/config"
	"phone-finder-workers/internal/common/errors"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/metrics"
	"phone-finder-workers/internal/common/observability"
	"phone-finder-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler completes or fails the job itself. The returned error is only
// used for accounting.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

// HandlerFunc adapts a function to JobHandler.
type HandlerFunc func(client worker.JobClient, job entities.Job) error

func (f HandlerFunc) Handle(client worker.JobClient, job entities.Job) error {
	return f(client, job)
}

// Worker wraps a finder handler with input validation against the activity
// registry and job metrics.
type Worker struct {
	taskType  string
	handler   JobHandler
	activity  *registry.Activity
	errors    *errors.ErrorHandler
	obs       *observability.Observability
	logger    logger.Logger
	jobWorker worker.JobWorker
}

func NewWorker(
	taskType string,
	handler JobHandler,
	reg *registry.ActivityRegistry,
	obs *observability.Observability,
	log logger.Logger,
) *Worker {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})

	activity, ok := reg.Find(taskType)
	if !ok {
		log.Warn("task type not in activity registry, input will not be validated", nil)
	}

	return &Worker{
		taskType: taskType,
		handler:  handler,
		activity: activity,
		errors:   errors.NewErrorHandler(log),
		obs:      obs,
		logger:   log,
	}
}

// Validate checks the job variables against the registered input schema.
func (w *Worker) Validate(job entities.Job) error {
	vars := map[string]interface{}{}
	if job.Variables != "" {
		if err := json.Unmarshal([]byte(job.Variables), &vars); err != nil {
			return errors.NewInputValidationFailedError("variables are not a JSON object: " + err.Error())
		}
	}
	return w.activity.ValidateInput(vars)
}

// Handle runs one job through validation and the wrapped handler.
func (w *Worker) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	ctx := context.Background()

	active := metrics.WorkerJobsActive.WithLabelValues(w.taskType)
	active.Inc()
	defer active.Dec()

	status := "completed"
	var err error
	if err = w.Validate(job); err != nil {
		w.errors.HandleJobError(ctx, client, job, err)
	} else {
		err = w.handler.Handle(client, job)
	}

	if err != nil {
		status = "failed"
		metrics.WorkerJobsFailed.WithLabelValues(w.taskType, string(errors.Normalize(err).Code)).Inc()
	}

	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(w.taskType).Observe(elapsed.Seconds())
	w.obs.RecordJobProcessed(ctx, w.taskType, status)
	w.obs.RecordJobDuration(ctx, w.taskType, elapsed, status)
}

// Open starts polling the broker for jobs of this worker's type.
func (w *Worker) Open(client zbc.Client, wcfg config.WorkerConfig) {
	w.jobWorker = client.NewJobWorker().
		JobType(w.taskType).
		Handler(w.Handle).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Name(fmt.Sprintf("%s-worker", w.taskType)).
		Open()

	w.logger.Info("worker started", map[string]interface{}{
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeoutMs":     wcfg.Timeout,
	})
}

func (w *Worker) Close() {
	if w.jobWorker == nil {
		return
	}
	w.logger.Info("stopping worker", nil)
	w.jobWorker.Close()
	w.jobWorker.AwaitClose()
}
