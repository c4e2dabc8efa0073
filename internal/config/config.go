// Package config provides configuration management for the screener.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"options-screener/internal/cache"
	apperrors "options-screener/internal/errors"
	"options-screener/internal/logging"
	"options-screener/internal/marketdata"
	"options-screener/internal/resilience"
	"options-screener/internal/screener"
	"options-screener/pkg/utils"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig     `mapstructure:"server"`
	MarketData  MarketDataConfig `mapstructure:"market_data"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Screener    ScreenerConfig   `mapstructure:"screener"`
	Logging     LoggingConfig    `mapstructure:"logging"`
	Credentials Credentials      `mapstructure:"-"` // Loaded separately
	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	CORSOrigin      string        `mapstructure:"cors_origin"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MarketDataConfig holds market-data source configuration.
type MarketDataConfig struct {
	Source           string        `mapstructure:"source"` // simulated, nse, kite
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	SimulatedLatency bool          `mapstructure:"simulated_latency"`
	NSEBaseURL       string        `mapstructure:"nse_base_url"`
	Retry            RetryConfig   `mapstructure:"retry"`
	Breaker          BreakerConfig `mapstructure:"circuit_breaker"`
}

// RetryConfig holds retry settings for upstream calls.
type RetryConfig struct {
	Attempts     int           `mapstructure:"attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Factor       float64       `mapstructure:"factor"`
}

// BreakerConfig holds circuit breaker settings for upstream calls.
type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

// CacheConfig holds result cache configuration.
type CacheConfig struct {
	Backend     string        `mapstructure:"backend"` // memory, sqlite, redis, none
	TTL         time.Duration `mapstructure:"ttl"`
	SQLitePath  string        `mapstructure:"sqlite_path"`
	RedisURL    string        `mapstructure:"redis_url"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
}

// ScreenerConfig holds screening pipeline configuration.
type ScreenerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MaxSymbols  int `mapstructure:"max_symbols"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	JSON       bool   `mapstructure:"json"`
	File       bool   `mapstructure:"file"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Credentials holds API credentials.
type Credentials struct {
	Zerodha ZerodhaCredentials `mapstructure:"zerodha"`
}

// ZerodhaCredentials holds Kite Connect credentials. The access token comes
// from a completed Kite login and is valid for one trading day.
type ZerodhaCredentials struct {
	APIKey      string `mapstructure:"api_key"`
	AccessToken string `mapstructure:"access_token"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-screener"
	}
	return filepath.Join(home, ".config", "options-screener")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. Missing files
// are created from templates and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// .env files never override variables already set in the environment.
	loadDotEnv(".env", filepath.Join(configDir, ".env"))

	cfg := &Config{Dir: configDir}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no files exist.
func Default() *Config {
	cfg := &Config{Dir: DefaultConfigDir()}
	v := viper.New()
	setDefaults(v, cfg.Dir)
	_ = v.Unmarshal(cfg)
	return cfg
}

func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("server.address", ":5000")
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("market_data.source", marketdata.SourceSimulated)
	v.SetDefault("market_data.request_timeout", "10s")
	v.SetDefault("market_data.simulated_latency", true)
	v.SetDefault("market_data.nse_base_url", "https://www.nseindia.com")
	v.SetDefault("market_data.retry.attempts", 3)
	v.SetDefault("market_data.retry.initial_delay", "200ms")
	v.SetDefault("market_data.retry.max_delay", "2s")
	v.SetDefault("market_data.retry.factor", 2.0)
	v.SetDefault("market_data.circuit_breaker.failure_threshold", 5)
	v.SetDefault("market_data.circuit_breaker.success_threshold", 2)
	v.SetDefault("market_data.circuit_breaker.cooldown", "30s")

	v.SetDefault("cache.backend", cache.BackendMemory)
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("cache.sqlite_path", filepath.Join(configDir, "cache.db"))
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.redis_prefix", "screener:result:")

	v.SetDefault("screener.concurrency", 4)
	v.SetDefault("screener.max_symbols", screener.DefaultMaxSymbols)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.json", false)
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.path", filepath.Join(configDir, "logs", "screener.log"))
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 14)
}

func loadConfigFile(configDir string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := createTemplate(configDir, "config.toml", configTemplate, 0644); err != nil {
			return err
		}
	}

	return v.Unmarshal(cfg)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Use restricted permissions for credentials file
		return createTemplate(configDir, "credentials.toml", credentialsTemplate, 0600)
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MARKET_DATA_SOURCE"); v != "" {
		cfg.MarketData.Source = strings.ToLower(v)
	} else if os.Getenv("USE_MOCK_DATA") == "false" {
		cfg.MarketData.Source = marketdata.SourceNSE
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Address = ":" + v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// Zerodha credentials
	if v := os.Getenv("ZERODHA_API_KEY"); v != "" {
		cfg.Credentials.Zerodha.APIKey = v
	}
	if v := os.Getenv("ZERODHA_ACCESS_TOKEN"); v != "" {
		cfg.Credentials.Zerodha.AccessToken = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.MarketData.Source {
	case marketdata.SourceSimulated, marketdata.SourceNSE:
	case marketdata.SourceKite:
		if c.Credentials.Zerodha.APIKey == "" || c.Credentials.Zerodha.AccessToken == "" {
			return apperrors.Wrap(apperrors.ErrConfigInvalid, "kite source requires zerodha api_key and access_token")
		}
	default:
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "invalid market data source: %s (must be 'simulated', 'nse' or 'kite')", c.MarketData.Source)
	}

	switch c.Cache.Backend {
	case cache.BackendMemory, cache.BackendSQLite, cache.BackendRedis, cache.BackendNone:
	default:
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "invalid cache backend: %s", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "cache.ttl must be positive")
	}

	if c.Screener.Concurrency <= 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "screener.concurrency must be positive")
	}
	if c.Screener.MaxSymbols <= 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "screener.max_symbols must be positive")
	}
	if c.MarketData.Retry.Attempts < 1 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "market_data.retry.attempts must be at least 1")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// MarketDataSource returns the settings for marketdata.New.
func (c *Config) MarketDataSource() marketdata.Config {
	md := c.MarketData
	return marketdata.Config{
		Source:    md.Source,
		Simulated: marketdata.SimulatedConfig{Latency: md.SimulatedLatency},
		NSE:       marketdata.NSEConfig{BaseURL: md.NSEBaseURL, Timeout: md.RequestTimeout},
		Kite: marketdata.KiteConfig{
			APIKey:      c.Credentials.Zerodha.APIKey,
			AccessToken: c.Credentials.Zerodha.AccessToken,
		},
		Retry: utils.RetryConfig{
			MaxAttempts:   md.Retry.Attempts,
			InitialDelay:  md.Retry.InitialDelay,
			MaxDelay:      md.Retry.MaxDelay,
			BackoffFactor: md.Retry.Factor,
		},
		Breaker: resilience.CircuitBreakerConfig{
			FailureThreshold: md.Breaker.FailureThreshold,
			SuccessThreshold: md.Breaker.SuccessThreshold,
			Cooldown:         md.Breaker.Cooldown,
		},
	}
}

// CacheBackend returns the settings for cache.New.
func (c *Config) CacheBackend() cache.Config {
	return cache.Config{
		Backend:     c.Cache.Backend,
		SQLitePath:  c.Cache.SQLitePath,
		RedisURL:    c.Cache.RedisURL,
		RedisPrefix: c.Cache.RedisPrefix,
	}
}

// ScreenerOptions returns the settings for screener.New.
func (c *Config) ScreenerOptions() screener.Options {
	return screener.Options{
		CacheTTL:    c.Cache.TTL,
		Concurrency: c.Screener.Concurrency,
		MaxSymbols:  c.Screener.MaxSymbols,
	}
}

// LogConfig returns the settings for logging.NewLoggerWithConfig.
func (c *Config) LogConfig() logging.LogConfig {
	l := c.Logging
	return logging.LogConfig{
		Level:      l.Level,
		Console:    l.Console,
		JSON:       l.JSON,
		File:       l.File,
		FilePath:   l.Path,
		MaxSize:    l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAge:     l.MaxAgeDays,
	}
}
