// internal/workers/finder/find-phones/config.go
package findphones

import (
	"time"

	"phone-finder-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig covers the budget fallback (10s), the filter resolution (30s)
// and the catalog queries.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 50 * time.Second
	}
	return &Config{Timeout: timeout}
}
