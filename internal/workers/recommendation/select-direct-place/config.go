// internal/workers/recommendation/select-direct-place/config.go
package selectdirectplace

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
