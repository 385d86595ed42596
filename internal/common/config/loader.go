// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and lets environment variables override individual keys.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Printf("loaded .env from: %s\n", path)
				return
			}
		}
	}
}

// findProjectRoot walks up until it finds go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders inside string values. Unset
// variables expand to empty so defaults still apply.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			v.Set(key, os.ExpandEnv(strVal))
		}
	}
}

// overrideEmptyConfig fills API keys from the variable names the web
// frontend already uses.
func overrideEmptyConfig(cfg *Config) {
	if cfg.APIs.Kakao.APIKey == "" {
		cfg.APIs.Kakao.APIKey = os.Getenv("KAKAO_REST_API_KEY")
	}
	if cfg.APIs.Google.APIKey == "" {
		cfg.APIs.Google.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if cfg.Map.JSKey == "" {
		if val := os.Getenv("KAKAO_JS_KEY"); val != "" {
			cfg.Map.JSKey = val
		} else {
			cfg.Map.JSKey = os.Getenv("NEXT_PUBLIC_KAKAOMAP_JS_KEY")
		}
	}
	if cfg.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Redis.Address = val
		}
	}
}

// DefaultCategories is the food-type catalogue offered by the filter dialog.
var DefaultCategories = []string{
	"한식", "중식", "일식", "양식", "아시아음식", "분식",
	"패스트푸드", "치킨", "피자", "뷔페", "카페", "술집",
}

// DefaultRadiusPresets are the walking-distance choices offered by the filter dialog.
var DefaultRadiusPresets = []RadiusPreset{
	{Meters: 500, Label: "가까워요", WalkTime: "약 5분"},
	{Meters: 800, Label: "적당해요", WalkTime: "약 10분"},
	{Meters: 2000, Label: "조금 멀어요", WalkTime: "약 25분"},
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "lunch-roulette"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Server.RateLimitRequests == 0 {
		cfg.Server.RateLimitRequests = 60
	}
	if cfg.Server.RateLimitWindow == 0 {
		cfg.Server.RateLimitWindow = 60000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Session.Store == "" {
		cfg.Session.Store = "memory"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 30 * 60 * 1000
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}

	if cfg.APIs.Kakao.BaseURL == "" {
		cfg.APIs.Kakao.BaseURL = "https://dapi.kakao.com"
	}
	if cfg.APIs.Kakao.Timeout == 0 {
		cfg.APIs.Kakao.Timeout = 5000
	}
	if cfg.APIs.Google.BaseURL == "" {
		cfg.APIs.Google.BaseURL = "https://maps.googleapis.com"
	}
	if cfg.APIs.Google.Timeout == 0 {
		cfg.APIs.Google.Timeout = 5000
	}
	if cfg.APIs.Google.Language == "" {
		cfg.APIs.Google.Language = "ko"
	}
	if cfg.APIs.Google.PhotoMaxWidth == 0 {
		cfg.APIs.Google.PhotoMaxWidth = 400
	}
	if cfg.APIs.Google.MaxPhotos == 0 {
		cfg.APIs.Google.MaxPhotos = 3
	}
	for _, p := range []*ProviderConfig{&cfg.APIs.Kakao, &cfg.APIs.Google.ProviderConfig} {
		if p.BreakerMaxFailures == 0 {
			p.BreakerMaxFailures = 5
		}
		if p.BreakerOpenTimeout == 0 {
			p.BreakerOpenTimeout = 30000
		}
	}

	if cfg.Recommendation.DefaultCategory == "" {
		cfg.Recommendation.DefaultCategory = "음식점"
	}
	if len(cfg.Recommendation.Categories) == 0 {
		cfg.Recommendation.Categories = append([]string(nil), DefaultCategories...)
	}
	if cfg.Recommendation.DefaultRadius == 0 {
		cfg.Recommendation.DefaultRadius = 800
	}
	if len(cfg.Recommendation.RadiusPresets) == 0 {
		cfg.Recommendation.RadiusPresets = append([]RadiusPreset(nil), DefaultRadiusPresets...)
	}
	if cfg.Recommendation.MaxConcurrentSearches == 0 {
		cfg.Recommendation.MaxConcurrentSearches = 4
	}

	if cfg.Map.DefaultLat == 0 && cfg.Map.DefaultLng == 0 {
		cfg.Map.DefaultLat = 36.3504
		cfg.Map.DefaultLng = 127.3845
	}
	if cfg.Map.Level == 0 {
		cfg.Map.Level = 3
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 10000
		}
		cfg.Workers[key] = worker
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("session.store must be memory or redis, got %q", cfg.Session.Store)
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	if cfg.Recommendation.DefaultRadius < 1 || cfg.Recommendation.DefaultRadius > MaxRadiusMeters {
		return fmt.Errorf("recommendation.default_radius must be within 1..%d", MaxRadiusMeters)
	}
	if cfg.Recommendation.MaxConcurrentSearches < 1 {
		return fmt.Errorf("recommendation.max_concurrent_searches must be positive")
	}

	if cfg.App.Environment == "production" {
		if cfg.APIs.Kakao.APIKey == "" {
			return fmt.Errorf("apis.kakao.api_key (KAKAO_REST_API_KEY) is required")
		}
	}
	return nil
}

// MaxRadiusMeters is the largest radius the keyword search API accepts.
const MaxRadiusMeters = 20000

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       10000,
		MaxRetries:    3,
	}
}
