// internal/workers/finder/search-catalog/models.go
package searchcatalog

import "phone-finder-workers/internal/models"

type Input struct {
	Filter models.Filter `json:"filter"`
}

// Output carries found for the process gateway next to the result set.
type Output struct {
	Results models.ResultSet `json:"results"`
	Found   bool             `json:"found"`
	Relaxed bool             `json:"relaxed"`
	Message string           `json:"message,omitempty"`
}
