// internal/workers/analysis/generate-trend/config.go
package generatetrend

import (
	"time"

	"coaching-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		// A hierarchical run makes one synthesis call per chunk, so the job
		// timeout is much larger than a single synthesis timeout.
		Timeout: 10 * time.Minute,
	}
}

// ConfigFromWorker derives the worker config from the application config,
// falling back to defaults for unset values.
func ConfigFromWorker(wc config.WorkerConfig) *Config {
	cfg := LoadConfig()
	if wc.Timeout > 0 {
		cfg.Timeout = time.Duration(wc.Timeout) * time.Millisecond
	}
	return cfg
}
