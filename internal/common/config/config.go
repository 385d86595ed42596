// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App            AppConfig               `mapstructure:"app"`
	Server         ServerConfig            `mapstructure:"server"`
	Camunda        CamundaConfig           `mapstructure:"camunda"`
	Redis          RedisConfig             `mapstructure:"redis"`
	Session        SessionConfig           `mapstructure:"session"`
	Workers        map[string]WorkerConfig `mapstructure:"workers"`
	APIs           APIsConfig              `mapstructure:"apis"`
	Recommendation RecommendationConfig    `mapstructure:"recommendation"`
	Map            MapConfig               `mapstructure:"map"`
	Logging        LoggingConfig           `mapstructure:"logging"`
	Tracing        TracingConfig           `mapstructure:"tracing"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address            string   `mapstructure:"address"`
	ReadTimeout        int      `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout       int      `mapstructure:"write_timeout"` // milliseconds
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int      `mapstructure:"rate_limit_requests"`
	RateLimitWindow    int      `mapstructure:"rate_limit_window"` // milliseconds
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig selects where recommendation sessions live between requests.
type SessionConfig struct {
	Store string `mapstructure:"store"` // "memory" or "redis"
	TTL   int    `mapstructure:"ttl"`   // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// ProviderConfig is shared by the upstream place APIs.
type ProviderConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds

	BreakerMaxFailures int `mapstructure:"breaker_max_failures"`
	BreakerOpenTimeout int `mapstructure:"breaker_open_timeout"` // milliseconds
}

// APIsConfig holds settings for the keyword-search and place-details APIs.
type APIsConfig struct {
	Kakao  ProviderConfig `mapstructure:"kakao"`
	Google GoogleConfig   `mapstructure:"google"`
}

type GoogleConfig struct {
	ProviderConfig `mapstructure:",squash"`
	Language       string `mapstructure:"language"`
	PhotoMaxWidth  int    `mapstructure:"photo_max_width"`
	MaxPhotos      int    `mapstructure:"max_photos"`
}

// RecommendationConfig holds the filter catalogue and selection settings.
type RecommendationConfig struct {
	DefaultCategory       string         `mapstructure:"default_category"`
	Categories            []string       `mapstructure:"categories"`
	DefaultRadius         int            `mapstructure:"default_radius"`
	RadiusPresets         []RadiusPreset `mapstructure:"radius_presets"`
	MaxConcurrentSearches int            `mapstructure:"max_concurrent_searches"`
}

type RadiusPreset struct {
	Meters   int    `mapstructure:"meters" json:"meters"`
	Label    string `mapstructure:"label" json:"label"`
	WalkTime string `mapstructure:"walk_time" json:"walkTime"`
}

// MapConfig is handed to the browser map SDK.
type MapConfig struct {
	JSKey      string  `mapstructure:"js_key"`
	DefaultLat float64 `mapstructure:"default_lat"`
	DefaultLng float64 `mapstructure:"default_lng"`
	Level      int     `mapstructure:"level"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type TracingConfig struct {
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}
