package screener

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"

	"options-screener/internal/cache"
	apperrors "options-screener/internal/errors"
	"options-screener/internal/logging"
	"options-screener/internal/marketdata"
	"options-screener/internal/models"
	"options-screener/internal/options"
)

// Per-symbol failure messages.
const (
	msgSpotUnavailable  = "Spot price not available"
	msgChainUnavailable = "Option chain not available"
	msgNoContract       = "No suitable ITM option found"
)

// Options tunes a Pipeline.
type Options struct {
	CacheTTL    time.Duration
	Concurrency int
	MaxSymbols  int
	// Now overrides the clock used for days to expiry.
	Now func() time.Time
}

// DefaultOptions returns the defaults used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		CacheTTL:    30 * time.Second,
		Concurrency: 4,
		MaxSymbols:  DefaultMaxSymbols,
	}
}

// Pipeline screens symbols against one market-data source.
type Pipeline struct {
	source marketdata.Source
	cache  cache.Cache
	opts   Options
	logger zerolog.Logger
}

// New creates a pipeline. A nil cache disables caching.
func New(source marketdata.Source, c cache.Cache, opts Options, logger zerolog.Logger) *Pipeline {
	if c == nil {
		c = cache.Nop{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultOptions().Concurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		source: source,
		cache:  c,
		opts:   opts,
		logger: logger,
	}
}

// outcome is the tagged result of screening one symbol.
type outcome struct {
	result *models.AnalysisResult
	err    *apperrors.ScreenError
}

// Run validates req and screens every symbol. The only error returned is a
// validation error; per-symbol failures are reported in Response.Errors.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Response, error) {
	req.Symbols = req.normalizedSymbols()
	if err := req.Validate(p.opts.MaxSymbols); err != nil {
		return nil, err
	}
	strategy := models.Strategy(req.Strategy)
	expiryMonth := *req.ExpiryMonth

	logger := logging.WithOperation(p.logger, "screen")
	logger.Debug().
		Int("symbols", len(req.Symbols)).
		Str("strategy", req.Strategy).
		Int("expiry_month", expiryMonth).
		Msg("Screening started")

	mapper := iter.Mapper[string, outcome]{MaxGoroutines: p.opts.Concurrency}
	outcomes := mapper.Map(req.Symbols, func(symbol *string) outcome {
		return p.screenSafely(ctx, *symbol, strategy, expiryMonth)
	})

	resp := &Response{
		Results:   make([]models.AnalysisResult, 0, len(outcomes)),
		Timestamp: p.opts.Now().UTC(),
	}
	for _, o := range outcomes {
		if o.err != nil {
			resp.Errors = append(resp.Errors, SymbolError{
				Symbol: o.err.Symbol,
				Error:  o.err.Message,
				Kind:   o.err.Kind,
			})
			continue
		}
		resp.Results = append(resp.Results, *o.result)
	}
	sort.SliceStable(resp.Results, func(i, j int) bool {
		return resp.Results[i].EVPercentage > resp.Results[j].EVPercentage
	})

	logger.Info().
		Int("results", len(resp.Results)).
		Int("errors", len(resp.Errors)).
		Msg("Screening completed")

	return resp, nil
}

// screenSafely turns a panic in one symbol into that symbol's error.
func (p *Pipeline) screenSafely(ctx context.Context, symbol string, strategy models.Strategy, expiryMonth int) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Str("symbol", symbol).Interface("panic", r).Msg("Recovered panic while screening")
			o = outcome{err: apperrors.NewScreenError(symbol, apperrors.ErrCollaboratorFailure,
				fmt.Sprintf("internal error: %v", r), nil)}
		}
	}()

	result, err := p.ScreenSymbol(ctx, symbol, strategy, expiryMonth)
	if err != nil {
		var se *apperrors.ScreenError
		if !apperrors.As(err, &se) {
			se = apperrors.NewScreenError(symbol, apperrors.ErrCollaboratorFailure, err.Error(), err)
		}
		return outcome{err: se}
	}
	return outcome{result: result}
}

// ScreenSymbol screens one already-normalized symbol. Failures are returned
// as *errors.ScreenError.
func (p *Pipeline) ScreenSymbol(ctx context.Context, symbol string, strategy models.Strategy, expiryMonth int) (*models.AnalysisResult, error) {
	logger := logging.WithSymbol(p.logger, symbol)
	key := cache.Key(symbol, strategy, expiryMonth)

	cached, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
	} else if ok {
		logger.Debug().Str("key", key).Msg("Cache hit")
		return cached, nil
	}

	spot, err := p.source.FetchSpotPrice(ctx, symbol)
	if err != nil {
		return nil, classify(symbol, err, msgSpotUnavailable)
	}
	if spot <= 0 {
		return nil, apperrors.NewScreenError(symbol, apperrors.ErrDataUnavailable, msgSpotUnavailable, nil)
	}

	chain, err := p.source.FetchOptionChain(ctx, symbol)
	if err != nil {
		return nil, classify(symbol, err, msgChainUnavailable)
	}
	if chain == nil {
		return nil, apperrors.NewScreenError(symbol, apperrors.ErrDataUnavailable, msgChainUnavailable, nil)
	}

	monthly := options.SelectMonthlyExpiries(chain.ExpiryDates)
	if expiryMonth < 0 || expiryMonth >= len(monthly) {
		return nil, apperrors.NewScreenError(symbol, apperrors.ErrExpiryUnavailable,
			fmt.Sprintf("Expiry month %d not available", expiryMonth), nil)
	}
	expiry := monthly[expiryMonth]
	days := options.DaysToExpiry(expiry, p.opts.Now())

	result, ok := options.Screen(symbol, spot, chain.Records, expiry, strategy, days)
	if !ok {
		return nil, apperrors.NewScreenError(symbol, apperrors.ErrNoSuitableContract, msgNoContract, nil)
	}

	if err := p.cache.Set(ctx, key, result, p.opts.CacheTTL); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	logging.LogScreen(logger, symbol, string(strategy), result.EVPercentage, string(result.Recommendation))
	return result, nil
}

// MonthlyExpiries lists the monthly expiry slots currently offered for
// symbol.
func (p *Pipeline) MonthlyExpiries(ctx context.Context, symbol string) ([]models.MonthlyExpiry, error) {
	symbol = NormalizeSymbol(symbol)
	chain, err := p.source.FetchOptionChain(ctx, symbol)
	if err != nil {
		return nil, classify(symbol, err, msgChainUnavailable)
	}
	if chain == nil {
		return nil, apperrors.NewScreenError(symbol, apperrors.ErrDataUnavailable, msgChainUnavailable, nil)
	}

	now := p.opts.Now()
	monthly := options.SelectMonthlyExpiries(chain.ExpiryDates)
	out := make([]models.MonthlyExpiry, len(monthly))
	for i, d := range monthly {
		out[i] = models.MonthlyExpiry{Month: i, Date: d, DaysToExpiry: options.DaysToExpiry(d, now)}
	}
	return out, nil
}

// Source returns the market-data source the pipeline reads from.
func (p *Pipeline) Source() marketdata.Source {
	return p.source
}

// classify maps a market-data error to a ScreenError. Missing data gets the
// fixed message; anything else surfaces the collaborator's own message.
func classify(symbol string, err error, unavailable string) *apperrors.ScreenError {
	if apperrors.Is(err, apperrors.ErrDataUnavailable) {
		return apperrors.NewScreenError(symbol, apperrors.ErrDataUnavailable, unavailable, err)
	}
	msg := err.Error()
	var de *apperrors.DataError
	if apperrors.As(err, &de) && de.Message != "" {
		msg = de.Message
	}
	return apperrors.NewScreenError(symbol, apperrors.ErrCollaboratorFailure, msg, err)
}
