// internal/workers/finder/resolve-filters/models.go
package resolvefilters

import (
	"phone-finder-workers/internal/common/oracle"
	"phone-finder-workers/internal/models"
)

// Input accepts the parse-budget outputs as well, so a process can pin the
// price ceiling without a second budget read.
type Input struct {
	Answers      map[string]string `json:"answers"`
	Utterance    string            `json:"utterance"`
	History      []oracle.Message  `json:"history"`
	Budget       *int              `json:"budget"`
	BudgetParsed *bool             `json:"budgetParsed"`
}

type Output struct {
	Filter        models.Filter `json:"filter"`
	DroppedFields []string      `json:"droppedFields"`
}
