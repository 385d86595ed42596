package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("KAKAO_REST_API_KEY", "rest-key")

	cfg, err := LoadFromFile(writeConfig(t, `
app:
  name: lunch-roulette
redis:
  address: ${REDIS_ADDRESS}
workers:
  spin-roulette:
    enabled: true
    max_retries: 0
`))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, "rest-key", cfg.APIs.Kakao.APIKey)
	assert.Equal(t, 800, cfg.Recommendation.DefaultRadius)
	assert.Equal(t, DefaultCategories, cfg.Recommendation.Categories)
	assert.Len(t, cfg.Recommendation.RadiusPresets, 3)
	assert.Equal(t, 3, cfg.Map.Level)

	spin := cfg.Workers["spin-roulette"]
	assert.Equal(t, 10000, spin.Timeout)
	assert.Equal(t, 0, spin.MaxRetries)
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("REDIS_ADDRESS", "redis:6379")

	cfg, err := LoadFromFile(writeConfig(t, `
session:
  store: redis
redis:
  address: ${REDIS_ADDRESS}
`))
	require.NoError(t, err)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown store", body: "session:\n  store: disk\n"},
		{name: "radius too large", body: "recommendation:\n  default_radius: 25000\n"},
		{name: "camunda without broker", body: "camunda:\n  enabled: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"spin-roulette": {Enabled: false}}}
	assert.False(t, GetWorkerConfig(cfg, "spin-roulette").Enabled)

	fallback := GetWorkerConfig(cfg, "search-nearby-places")
	assert.True(t, fallback.Enabled)
	assert.Equal(t, 10000, fallback.Timeout)
}
