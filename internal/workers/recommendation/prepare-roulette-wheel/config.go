// internal/workers/recommendation/prepare-roulette-wheel/config.go
package prepareroulettewheel

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
