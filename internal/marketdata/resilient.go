package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	apperrors "options-screener/internal/errors"
	"options-screener/internal/logging"
	"options-screener/internal/models"
	"options-screener/internal/resilience"
	"options-screener/pkg/utils"
)

// ResilientSource decorates a Source with retries and a circuit breaker per
// symbol. Missing data is an answer, not a failure: it is neither retried nor
// counted against the breaker.
type ResilientSource struct {
	inner    Source
	retry    utils.RetryConfig
	breakers *resilience.CircuitBreakerRegistry
	logger   zerolog.Logger
}

// NewResilientSource wraps inner.
func NewResilientSource(inner Source, retry utils.RetryConfig, breaker resilience.CircuitBreakerConfig, logger zerolog.Logger) *ResilientSource {
	retry.Retryable = isTransient
	breaker.IsFailure = isUpstreamFailure
	breaker.OnStateChange = func(name string, from, to resilience.CircuitState) {
		event := logger.Info()
		if to == resilience.CircuitOpen {
			event = logger.Warn()
		}
		event.Str("breaker", name).Str("from", string(from)).Str("to", string(to)).Msg("Circuit breaker state changed")
	}
	return &ResilientSource{
		inner:    inner,
		retry:    retry,
		breakers: resilience.NewCircuitBreakerRegistry(breaker),
		logger:   logger,
	}
}

// Name implements Source.
func (r *ResilientSource) Name() string {
	return r.inner.Name()
}

// Breaker returns the circuit breaker guarding symbol.
func (r *ResilientSource) Breaker(symbol string) *resilience.CircuitBreaker {
	return r.breakers.Get(r.inner.Name() + ":" + symbol)
}

// Breakers returns the registry of per-symbol breakers.
func (r *ResilientSource) Breakers() *resilience.CircuitBreakerRegistry {
	return r.breakers
}

// FetchSpotPrice implements Source.
func (r *ResilientSource) FetchSpotPrice(ctx context.Context, symbol string) (float64, error) {
	return call(ctx, r, symbol, "spot:"+symbol, func(ctx context.Context) (float64, error) {
		return r.inner.FetchSpotPrice(ctx, symbol)
	})
}

// FetchOptionChain implements Source.
func (r *ResilientSource) FetchOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	return call(ctx, r, symbol, "option_chain:"+symbol, func(ctx context.Context) (*models.OptionChain, error) {
		return r.inner.FetchOptionChain(ctx, symbol)
	})
}

func call[T any](ctx context.Context, r *ResilientSource, symbol, endpoint string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	breaker := r.Breaker(symbol)
	result, err := utils.RetryWithResult(ctx, r.retry, func() (T, error) {
		return resilience.ExecuteWithResult(ctx, breaker, fn)
	})
	logging.LogAPICall(r.logger, r.inner.Name(), endpoint, time.Since(start), err)
	return result, err
}

func isUpstreamFailure(err error) bool {
	return !apperrors.Is(err, apperrors.ErrDataUnavailable) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func isTransient(err error) bool {
	return isUpstreamFailure(err) && !errors.Is(err, resilience.ErrCircuitOpen)
}
