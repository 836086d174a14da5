// internal/workers/finder/parse-budget/models.go
package parsebudget

type Input struct {
	BudgetText string `json:"budgetText"`
}

type Output struct {
	Budget       int    `json:"budget"`
	BudgetParsed bool   `json:"budgetParsed"`
	BudgetRule   string `json:"budgetRule"`
}
