// internal/workers/finder/parse-search-filters/models.go
package parsesearchfilters

import "phone-finder-workers/internal/models"

// Input holds the raw form fields: budget, brand, storage, ram and camera.
type Input struct {
	RawFilters map[string]interface{} `json:"rawFilters"`
}

type Output struct {
	Filter models.Filter `json:"filter"`
}
