// Package filters resolves user answers or free text into a validated
// search filter by asking the oracle for a JSON object.
package filters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"phone-finder-workers/internal/budget"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/metrics"
	"phone-finder-workers/internal/common/oracle"
	"phone-finder-workers/internal/models"
)

var (
	ErrFilterResolution = errors.New("FILTER_RESOLUTION_FAILED")
	ErrEmptyRequest     = errors.New("INVALID_FILTER_FORMAT")
)

// ResolutionError reports that the oracle reply could not become a filter.
// errors.Is matches ErrFilterResolution.
type ResolutionError struct {
	Reason  string
	Timeout bool
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return "filter resolution failed: " + e.Reason
	}
	return fmt.Sprintf("filter resolution failed: %s: %v", e.Reason, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrFilterResolution
}

const systemPrompt = "Convierte el JSON de respuestas del usuario a filtros. Devuelve SOLO el objeto: " +
	"brand, max_price, min_storage, min_ram, min_camera_mp (null si no aplica)."

// BudgetKey carries the locally parsed budget next to the raw answers.
const BudgetKey = "budget_cop"

// Request selects the resolution mode: Answers when set, otherwise Utterance
// with its preceding History.
type Request struct {
	Answers   models.AnswerSet `json:"answers,omitempty"`
	Utterance string           `json:"utterance,omitempty"`
	History   []oracle.Message `json:"history,omitempty"`
}

// IsEmpty reports whether the request carries nothing to resolve.
func (r Request) IsEmpty() bool {
	return len(r.Answers) == 0 && strings.TrimSpace(r.Utterance) == ""
}

// Resolution is the resolved filter plus the oracle fields that were rejected.
type Resolution struct {
	Filter  models.Filter
	Dropped []string
}

type Resolver struct {
	oracle   oracle.Oracle
	jsonMode bool
	logger   logger.Logger
}

func NewResolver(o oracle.Oracle, jsonMode bool, log logger.Logger) *Resolver {
	return &Resolver{
		oracle:   o,
		jsonMode: jsonMode,
		logger:   log.WithFields(map[string]interface{}{"component": "filter-resolver"}),
	}
}

// Resolve asks the oracle for a filter. The reply is only ever decoded as JSON.
func (r *Resolver) Resolve(ctx context.Context, req Request) (models.Filter, error) {
	res, err := r.ResolveDetailed(ctx, req)
	if err != nil {
		return models.Filter{}, err
	}
	return res.Filter, nil
}

// ResolveDetailed is Resolve that also reports dropped fields.
func (r *Resolver) ResolveDetailed(ctx context.Context, req Request) (Resolution, error) {
	if req.IsEmpty() {
		return Resolution{}, ErrEmptyRequest
	}

	messages, err := buildMessages(req)
	if err != nil {
		return Resolution{}, &ResolutionError{Reason: "encode answers", Err: err}
	}

	reply, err := r.oracle.Complete(ctx, oracle.CompletionRequest{
		Call:        "filters",
		Messages:    messages,
		Temperature: 0,
		JSONMode:    r.jsonMode,
	})
	if err != nil {
		timeout := errors.Is(err, oracle.ErrOracleTimeout) || errors.Is(ctx.Err(), context.DeadlineExceeded)
		return Resolution{}, &ResolutionError{Reason: "oracle call", Timeout: timeout, Err: err}
	}

	decoded, err := Decode(reply)
	if err != nil {
		r.logger.Warn("oracle reply rejected", map[string]interface{}{
			"error": err.Error(),
			"chars": len(reply),
		})
		return Resolution{}, &ResolutionError{Reason: "decode reply", Err: err}
	}

	for _, field := range decoded.Dropped {
		metrics.FilterFieldsDropped.WithLabelValues(field).Inc()
		r.logger.Warn("filter field dropped", map[string]interface{}{"field": field})
	}

	r.logger.Debug("filter resolved", map[string]interface{}{
		"filter":  decoded.Filter.String(),
		"dropped": len(decoded.Dropped),
	})

	return Resolution{Filter: decoded.Filter, Dropped: decoded.Dropped}, nil
}

func buildMessages(req Request) ([]oracle.Message, error) {
	messages := []oracle.Message{{Role: oracle.RoleSystem, Content: systemPrompt}}

	if len(req.Answers) > 0 {
		payload, err := AnswersPayload(req.Answers)
		if err != nil {
			return nil, err
		}
		return append(messages, oracle.Message{Role: oracle.RoleUser, Content: payload}), nil
	}

	for _, m := range req.History {
		if m.Role == oracle.RoleSystem || strings.TrimSpace(m.Content) == "" {
			continue
		}
		messages = append(messages, m)
	}
	return append(messages, oracle.Message{Role: oracle.RoleUser, Content: req.Utterance}), nil
}

// AnswersPayload renders answers as a JSON object with sorted keys. A budget
// that parses without the oracle is added under BudgetKey.
func AnswersPayload(answers models.AnswerSet) (string, error) {
	doc := make(map[string]interface{}, len(answers)+1)
	for _, k := range answers.Keys() {
		doc[k] = answers[k]
	}
	if raw, ok := answers.Get(models.QuestionBudget); ok {
		if cop, _, ok := budget.ParseLocal(raw); ok && cop > 0 {
			doc[BudgetKey] = cop
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
