// internal/workers/finder/find-phones/models.go
package findphones

import (
	"phone-finder-workers/internal/common/oracle"
	"phone-finder-workers/internal/models"
)

type Input struct {
	Answers   map[string]string `json:"answers"`
	Utterance string            `json:"utterance"`
	History   []oracle.Message  `json:"history"`
}

type Output struct {
	Filter        models.Filter    `json:"filter"`
	Budget        int              `json:"budget"`
	BudgetParsed  bool             `json:"budgetParsed"`
	DroppedFields []string         `json:"droppedFields"`
	Results       models.ResultSet `json:"results"`
	Found         bool             `json:"found"`
	Message       string           `json:"message,omitempty"`
}
