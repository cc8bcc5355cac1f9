// internal/workers/analysis/generate-aggregate-trend/config.go
package generateaggregatetrend

import (
	"time"

	"coaching-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		// Aggregate batches are usually hierarchical, so allow for one
		// synthesis call per chunk plus the reduce.
		Timeout: 15 * time.Minute,
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
