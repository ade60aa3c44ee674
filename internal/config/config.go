package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// SerpAPI credentials are injected from the environment only and never
	// sent to the browser.
	SerpAPIKey      string        `mapstructure:"SERPAPI_KEY"`
	SerpAPIBaseURL  string        `mapstructure:"SERPAPI_BASE_URL"`
	SerpAPIEngine   string        `mapstructure:"SERPAPI_ENGINE"`
	Currency        string        `mapstructure:"CURRENCY"`
	ProviderTimeout time.Duration `mapstructure:"PROVIDER_TIMEOUT"`
	DealsBaseURL    string        `mapstructure:"DEALS_BASE_URL"`

	SessionBackend string        `mapstructure:"SESSION_BACKEND"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	RedisHost      string        `mapstructure:"REDIS_HOST"`
	RedisPort      string        `mapstructure:"REDIS_PORT"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"REDIS_DB"`

	// RateLimitRPS of 0 disables the per-client limiter.
	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

var ErrMissingAPIKey = errors.New("config: SERPAPI_KEY must be set")

var defaults = map[string]interface{}{
	"PORT":             "8080",
	"ENV":              "development",
	"LOG_LEVEL":        "info",
	"SERPAPI_KEY":      "",
	"SERPAPI_BASE_URL": "https://serpapi.com",
	"SERPAPI_ENGINE":   "google_flights",
	"CURRENCY":         "USD",
	"PROVIDER_TIMEOUT": "30s",
	"DEALS_BASE_URL":   "https://www.google.com/travel/flights",
	"SESSION_BACKEND":  "memory",
	"SESSION_TTL":      "30m",
	"REDIS_HOST":       "localhost",
	"REDIS_PORT":       "6379",
	"REDIS_PASSWORD":   "",
	"REDIS_DB":         0,
	"RATE_LIMIT_RPS":   0,
	"RATE_LIMIT_BURST": 10,
}

// Load reads an optional config.yaml from the working directory or
// ./config, then lets environment variables override it.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.SessionBackend = strings.ToLower(cfg.SessionBackend)
	if cfg.SerpAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
