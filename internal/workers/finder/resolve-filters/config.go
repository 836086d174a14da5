// internal/workers/finder/resolve-filters/config.go
package resolvefilters

import (
	"time"

	"phone-finder-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 35 * time.Second
	}
	return &Config{Timeout: timeout}
}
