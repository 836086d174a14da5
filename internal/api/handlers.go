// internal/api/handlers.go
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"phone-finder-workers/internal/budget"
	"phone-finder-workers/internal/common/errors"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/oracle"
	"phone-finder-workers/internal/filters"
	"phone-finder-workers/internal/finder"
	"phone-finder-workers/internal/models"
	"phone-finder-workers/internal/search"
)

type Handler struct {
	parser     *budget.Parser
	formParser *budget.Parser
	resolver   *filters.Resolver
	engine     *search.Engine
	pipeline   *finder.Pipeline
	logger     logger.Logger
}

type BudgetRequest struct {
	Text string `json:"text"`
}

type BudgetResponse struct {
	Budget int    `json:"budget"`
	Parsed bool   `json:"parsed"`
	Rule   string `json:"rule"`
}

type ResolveRequest struct {
	Answers   map[string]string `json:"answers"`
	Utterance string            `json:"utterance"`
	History   []oracle.Message  `json:"history"`
}

type ResolveResponse struct {
	Filter        models.Filter `json:"filter"`
	DroppedFields []string      `json:"droppedFields"`
}

// SearchRequest takes either a resolved filter or raw form fields. Form
// wins when both are present.
type SearchRequest struct {
	Filter *models.Filter         `json:"filter"`
	Form   map[string]interface{} `json:"form"`
}

type SearchResponse struct {
	Filter  models.Filter    `json:"filter"`
	Results models.ResultSet `json:"results"`
	Message string           `json:"message,omitempty"`
}

func (h *Handler) Questions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": models.Questions})
}

func (h *Handler) ParseBudget(w http.ResponseWriter, r *http.Request) {
	var req BudgetRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	value, rule, err := h.parser.ParseWithRule(r.Context(), req.Text)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, BudgetResponse{Budget: value, Parsed: true, Rule: string(rule)})
	case stderrors.Is(err, budget.ErrNotParsed):
		writeJSON(w, http.StatusOK, BudgetResponse{Parsed: false, Rule: string(budget.RuleNone)})
	default:
		h.writeError(w, r, err)
	}
}

func (h *Handler) ResolveFilters(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.resolver.ResolveDetailed(r.Context(), filters.Request{
		Answers:   models.NewAnswerSet(req.Answers),
		Utterance: req.Utterance,
		History:   req.History,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	dropped := res.Dropped
	if dropped == nil {
		dropped = []string{}
	}
	writeJSON(w, http.StatusOK, ResolveResponse{Filter: res.Filter, DroppedFields: dropped})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	var f models.Filter
	switch {
	case req.Form != nil:
		parsed, err := finder.FormFilter(r.Context(), h.formParser, req.Form)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		f = parsed
	case req.Filter != nil:
		f = req.Filter.Normalize()
	default:
		h.writeError(w, r, errors.NewInvalidFilterFormatError("filter or form is required"))
		return
	}

	rs, err := h.engine.Search(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := SearchResponse{Filter: f, Results: rs, Message: rs.Explanation}
	if rs.Empty() {
		resp.Message = finder.NoMatchMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	var req finder.Request
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.pipeline.Find(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func health(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": service,
			"time":    time.Now().Format(time.RFC3339),
		})
	}
}

func ready(checks map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not ready"
		}
		writeJSON(w, status, map[string]interface{}{
			"status": state,
			"checks": results,
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
