package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/doxx-org/doxx-app-sub000/internal/fixedpoint"
)

// Config holds all configuration for the quote engine and its harness
type Config struct {
	ServiceName   string              `mapstructure:"service_name"`
	Engine        EngineConfig        `mapstructure:"engine"`
	Snapshot      SnapshotConfig      `mapstructure:"snapshot"`
	Tokens        []TokenEntry        `mapstructure:"tokens"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// EngineConfig holds route engine settings
type EngineConfig struct {
	DefaultSlippageBps int   `mapstructure:"default_slippage_bps"`
	Concurrency        int   `mapstructure:"concurrency"`   // in-flight pool quotes per route
	BatchWorkers       int   `mapstructure:"batch_workers"` // concurrent route requests in a batch
	TickArraySize      int32 `mapstructure:"tick_array_size"`
	MaxSteps           int   `mapstructure:"max_steps"` // tick-walk segments per swap
}

// DefaultSlippage returns the configured slippage tolerance.
func (e EngineConfig) DefaultSlippage() fixedpoint.BPS {
	return fixedpoint.BPS(e.DefaultSlippageBps)
}

// SnapshotConfig holds pool snapshot settings
type SnapshotConfig struct {
	Path string `mapstructure:"path"`

	RetryAttempts   int           `mapstructure:"retry_attempts"`
	RetryBaseDelay  time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay   time.Duration `mapstructure:"retry_max_delay"`
	BreakerFailures int           `mapstructure:"breaker_failures"` // consecutive failures before a pool is cut off
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"` // fetches per second, 0 for none
	RateBurst       int           `mapstructure:"rate_burst"`
	StaleTTL        time.Duration `mapstructure:"stale_ttl"` // 0 disables the last-good fallback
	StaleCacheSize  int           `mapstructure:"stale_cache_size"`
}

// TokenEntry registers a token beyond the built-in registry
type TokenEntry struct {
	Symbol     string `mapstructure:"symbol"`
	Mint       string `mapstructure:"mint"`
	Decimals   uint8  `mapstructure:"decimals"`
	Stablecoin bool   `mapstructure:"stablecoin"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// MetricsConfig holds metrics settings
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TracingConfig holds tracing settings
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Sampler  string `mapstructure:"sampler"` // always, never, ratio:<f>
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ENGINE_CONCURRENCY overrides engine.concurrency, and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not fatal; defaults and env still apply
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "quote-engine")

	// Engine defaults
	v.SetDefault("engine.default_slippage_bps", 50)
	v.SetDefault("engine.concurrency", 8)
	v.SetDefault("engine.batch_workers", 4)
	v.SetDefault("engine.tick_array_size", 60)
	v.SetDefault("engine.max_steps", 512)

	// Snapshot defaults
	v.SetDefault("snapshot.path", "config/pools.yaml")
	v.SetDefault("snapshot.retry_attempts", 3)
	v.SetDefault("snapshot.retry_base_delay", "50ms")
	v.SetDefault("snapshot.retry_max_delay", "1s")
	v.SetDefault("snapshot.breaker_failures", 5)
	v.SetDefault("snapshot.breaker_timeout", "30s")
	v.SetDefault("snapshot.rate_limit", 0)
	v.SetDefault("snapshot.rate_burst", 10)
	v.SetDefault("snapshot.stale_ttl", "10s")
	v.SetDefault("snapshot.stale_cache_size", 1000)

	// Observability defaults
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.metrics.enabled", false)
	v.SetDefault("observability.metrics.port", 9091)
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sampler", "always")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}

	// Engine validation
	if !c.Engine.DefaultSlippage().Valid() {
		return fmt.Errorf("default slippage must be within 0-10000 bps, got %d", c.Engine.DefaultSlippageBps)
	}
	if c.Engine.Concurrency < 1 {
		return fmt.Errorf("engine concurrency must be >= 1, got %d", c.Engine.Concurrency)
	}
	if c.Engine.BatchWorkers < 1 {
		return fmt.Errorf("batch workers must be >= 1, got %d", c.Engine.BatchWorkers)
	}
	if c.Engine.TickArraySize < 1 {
		return fmt.Errorf("tick array size must be >= 1, got %d", c.Engine.TickArraySize)
	}
	if c.Engine.MaxSteps < 1 {
		return fmt.Errorf("max steps must be >= 1, got %d", c.Engine.MaxSteps)
	}

	// Snapshot validation
	if c.Snapshot.RetryAttempts < 1 {
		return fmt.Errorf("snapshot retry attempts must be >= 1, got %d", c.Snapshot.RetryAttempts)
	}
	if c.Snapshot.RetryBaseDelay < 0 || c.Snapshot.RetryMaxDelay < c.Snapshot.RetryBaseDelay {
		return fmt.Errorf("snapshot retry delays must satisfy 0 <= base <= max, got %s and %s",
			c.Snapshot.RetryBaseDelay, c.Snapshot.RetryMaxDelay)
	}
	if c.Snapshot.BreakerFailures < 1 {
		return fmt.Errorf("snapshot breaker failures must be >= 1, got %d", c.Snapshot.BreakerFailures)
	}
	if c.Snapshot.RateLimit < 0 {
		return fmt.Errorf("snapshot rate limit must be >= 0, got %g", c.Snapshot.RateLimit)
	}
	if c.Snapshot.StaleTTL < 0 {
		return fmt.Errorf("snapshot stale ttl must be >= 0, got %s", c.Snapshot.StaleTTL)
	}

	// Token validation
	for i, tok := range c.Tokens {
		if tok.Symbol == "" || tok.Mint == "" {
			return fmt.Errorf("token %d: symbol and mint are required", i)
		}
	}

	// Observability validation
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Observability.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Observability.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Observability.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Observability.Logging.Format)
	}

	if c.Observability.Metrics.Enabled && (c.Observability.Metrics.Port < 1 || c.Observability.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.Observability.Metrics.Port)
	}
	if c.Observability.Tracing.Enabled && c.Observability.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}

	return nil
}
