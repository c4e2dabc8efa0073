// Package marketdata provides spot prices and option chains from the
// configured upstream: a simulator, the public NSE site or Zerodha Kite.
package marketdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"options-screener/internal/models"
	"options-screener/internal/resilience"
	"options-screener/pkg/utils"
)

// Source names accepted in configuration.
const (
	SourceSimulated = "simulated"
	SourceNSE       = "nse"
	SourceKite      = "kite"
)

// Source fetches market data for one underlying. Implementations return an
// error wrapping errors.ErrDataUnavailable when the upstream answered but has
// no data for the symbol.
type Source interface {
	Name() string
	FetchSpotPrice(ctx context.Context, symbol string) (float64, error)
	FetchOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error)
}

// Config selects and configures a source.
type Config struct {
	Source    string
	Simulated SimulatedConfig
	NSE       NSEConfig
	Kite      KiteConfig
	Retry     utils.RetryConfig
	Breaker   resilience.CircuitBreakerConfig
}

// New builds the configured source wrapped with retry and circuit breaking.
// The choice is made once at startup and passed explicitly to consumers.
func New(cfg Config, logger zerolog.Logger) (Source, error) {
	var inner Source
	switch strings.ToLower(cfg.Source) {
	case SourceSimulated, "":
		inner = NewSimulatedSource(cfg.Simulated)
	case SourceNSE:
		inner = NewNSESource(cfg.NSE)
	case SourceKite:
		kite, err := NewKiteSource(cfg.Kite)
		if err != nil {
			return nil, err
		}
		inner = kite
	default:
		return nil, fmt.Errorf("unknown market data source: %s", cfg.Source)
	}

	logger.Info().Str("source", inner.Name()).Msg("Market data source initialized")
	return NewResilientSource(inner, cfg.Retry, cfg.Breaker, logger), nil
}
