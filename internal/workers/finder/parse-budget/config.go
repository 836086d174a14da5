// internal/workers/finder/parse-budget/config.go
package parsebudget

import (
	"time"

	"phone-finder-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig reads the worker's timeout, leaving room for one oracle call.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 35 * time.Second
	}
	return &Config{Timeout: timeout}
}
