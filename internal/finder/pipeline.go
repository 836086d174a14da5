// Package finder runs one phone request end to end: budget parsing, filter
// resolution and catalog search.
package finder

import (
	"context"
	"errors"
	"strconv"

	"phone-finder-workers/internal/budget"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/oracle"
	"phone-finder-workers/internal/filters"
	"phone-finder-workers/internal/models"
	"phone-finder-workers/internal/search"
)

// NoMatchMessage is returned when neither search path found a phone.
const NoMatchMessage = "No encontré celulares con esos criterios. Intenta ajustar tu presupuesto o requisitos."

type Request struct {
	Answers   models.AnswerSet `json:"answers,omitempty"`
	Utterance string           `json:"utterance,omitempty"`
	History   []oracle.Message `json:"history,omitempty"`
}

type Result struct {
	Filter        models.Filter    `json:"filter"`
	Budget        int              `json:"budget"`
	BudgetParsed  bool             `json:"budgetParsed"`
	DroppedFields []string         `json:"droppedFields"`
	Results       models.ResultSet `json:"results"`
	Message       string           `json:"message,omitempty"`
}

type Pipeline struct {
	parser   *budget.Parser
	resolver *filters.Resolver
	engine   *search.Engine
	logger   logger.Logger
}

func NewPipeline(parser *budget.Parser, resolver *filters.Resolver, engine *search.Engine, log logger.Logger) *Pipeline {
	return &Pipeline{
		parser:   parser,
		resolver: resolver,
		engine:   engine,
		logger:   log.WithFields(map[string]interface{}{"component": "finder"}),
	}
}

// Find resolves the request into a filter and searches the catalog. A budget
// answer is parsed first and pins max_price: a parsed budget becomes the
// ceiling and an unparsed one leaves the price open.
func (p *Pipeline) Find(ctx context.Context, req Request) (*Result, error) {
	out := &Result{DroppedFields: []string{}}

	freq := filters.Request{Answers: req.Answers, Utterance: req.Utterance, History: req.History}

	raw, hasBudget := req.Answers.Get(models.QuestionBudget)
	if hasBudget {
		value, err := p.parser.Parse(ctx, raw)
		switch {
		case err == nil:
			out.Budget, out.BudgetParsed = value, true
			freq.Answers = req.Answers.With(models.QuestionBudget, strconv.Itoa(value))
		case errors.Is(err, budget.ErrNotParsed):
			p.logger.Info("budget not parsed, searching without price ceiling", map[string]interface{}{"text": raw})
		default:
			return nil, err
		}
	}

	res, err := p.resolver.ResolveDetailed(ctx, freq)
	if err != nil {
		return nil, err
	}

	f := res.Filter
	if hasBudget {
		if out.BudgetParsed {
			f.MaxPrice = models.IntPtr(out.Budget)
		} else {
			f.MaxPrice = nil
		}
	}
	out.Filter = f
	if len(res.Dropped) > 0 {
		out.DroppedFields = res.Dropped
	}

	rs, err := p.engine.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	out.Results = rs

	switch {
	case rs.Empty():
		out.Message = NoMatchMessage
	case rs.Explanation != "":
		out.Message = rs.Explanation
	}

	p.logger.Info("find completed", map[string]interface{}{
		"filter":  f.String(),
		"path":    string(rs.Path),
		"results": len(rs.Phones),
	})

	return out, nil
}
