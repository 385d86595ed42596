// internal/workers/recommendation/search-nearby-places/config.go
package searchnearbyplaces

import (
	"time"

	"lunch-roulette/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig reads the worker section; a zero timeout defers to the
// activity registry.
func LoadConfig(wc config.WorkerConfig) *Config {
	return &Config{Timeout: config.GetDuration(wc.Timeout)}
}
