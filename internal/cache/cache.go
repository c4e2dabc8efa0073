// Package cache stores screening results for a short time so repeated
// requests for the same symbol, strategy and expiry skip the upstream.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"options-screener/internal/models"
)

// Backend names accepted in configuration.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Cache maps a screening key to a result. Get reports a miss with ok=false
// and a nil error; expired entries are misses.
type Cache interface {
	Get(ctx context.Context, key string) (result *models.AnalysisResult, ok bool, err error)
	Set(ctx context.Context, key string, result *models.AnalysisResult, ttl time.Duration) error
	Close() error
}

// Key builds the cache key for one screening request of one symbol.
func Key(symbol string, strategy models.Strategy, expiryMonth int) string {
	return fmt.Sprintf("%s-%s-%d", symbol, strategy, expiryMonth)
}

// Config selects and configures a cache backend.
type Config struct {
	Backend     string
	SQLitePath  string
	RedisURL    string
	RedisPrefix string
}

// New opens the configured backend.
func New(ctx context.Context, cfg Config) (Cache, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendMemory, "":
		return NewMemoryCache(), nil
	case BackendSQLite:
		return NewSQLiteCache(cfg.SQLitePath)
	case BackendRedis:
		return NewRedisCache(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case BackendNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (*models.AnalysisResult, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, *models.AnalysisResult, time.Duration) error { return nil }

func (Nop) Close() error { return nil }
