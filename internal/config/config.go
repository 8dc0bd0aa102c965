// Package config defines service configuration and its loading order.
//
// Precedence (low -> high): built-in defaults, optional YAML file pointed at
// by ROADRANK_CONFIG, then ROADRANK_-prefixed environment variables.
package config

import "time"

// Config contains process configuration for the RoadRank service.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Port is the HTTP listen port.
	Port string `koanf:"port"`

	// DataDir holds the SQLite store and optional scoring artifacts.
	DataDir string `koanf:"data_dir"`

	// ModelPath optionally points at a model artifact JSON. Empty means the
	// built-in baseline artifact. A configured path that fails to load is
	// fatal at startup.
	ModelPath string `koanf:"model_path"`

	// EncoderPath optionally points at an encoder table JSON.
	EncoderPath string `koanf:"encoder_path"`

	// SafeThreshold and ModerateThreshold are the category cut points:
	// hdi >= SafeThreshold -> safe, >= ModerateThreshold -> moderate,
	// otherwise risky.
	SafeThreshold     int `koanf:"safe_threshold"`
	ModerateThreshold int `koanf:"moderate_threshold"`

	// TaskCooldown is the window within which re-completing the same task
	// for the same driver is rejected.
	TaskCooldown time.Duration `koanf:"task_cooldown"`

	// RequestTimeout bounds each request, including model inference and the
	// store append. Timed-out requests fail; they are never retried here.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// CacheTTL is the TTL of the /predict response cache.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// Redis settings for distributed rate limiting. Empty addr falls back to
	// in-memory token buckets.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// IPLimitPerMin caps requests per client IP per minute.
	IPLimitPerMin int `koanf:"ip_limit_per_min"`

	// DriverCompletionsPerHour caps task completions per driver per hour.
	DriverCompletionsPerHour int `koanf:"driver_completions_per_hour"`

	// MaxDriversLimit caps GET /drivers?limit.
	MaxDriversLimit int `koanf:"max_drivers_limit"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		Port:                     "8080",
		DataDir:                  "./data",
		SafeThreshold:            80,
		ModerateThreshold:        50,
		TaskCooldown:             24 * time.Hour,
		RequestTimeout:           30 * time.Second,
		CacheTTL:                 15 * time.Minute,
		IPLimitPerMin:            60,
		DriverCompletionsPerHour: 10,
		MaxDriversLimit:          100,
	}
}
