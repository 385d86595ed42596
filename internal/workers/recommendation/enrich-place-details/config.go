// internal/workers/recommendation/enrich-place-details/config.go
package enrichplacedetails

import (
	"time"

	"lunch-roulette/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wc config.WorkerConfig) *Config {
	return &Config{Timeout: config.GetDuration(wc.Timeout)}
}
