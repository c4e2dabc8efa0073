package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"

	apperrors "options-screener/internal/errors"
	"options-screener/internal/models"
	"options-screener/internal/options"
)

const (
	defaultNSEBaseURL = "https://www.nseindia.com"
	nseUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// nseIndexNames maps derivative symbols to the index names used by
// /api/allIndices.
var nseIndexNames = map[string]string{
	"NIFTY":      "NIFTY 50",
	"BANKNIFTY":  "NIFTY BANK",
	"FINNIFTY":   "NIFTY FIN SERVICE",
	"MIDCPNIFTY": "NIFTY MID SELECT",
}

// NSEConfig holds configuration for the NSE source.
type NSEConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NSESource reads quotes and option chains from the public NSE website API.
// The site requires session cookies, which are primed from the home page
// before the first API call. Concurrent callers share one priming request.
type NSESource struct {
	client *resty.Client

	session singleflight.Group
	primed  atomic.Bool
}

// NewNSESource creates an NSE source.
func NewNSESource(cfg NSEConfig) *NSESource {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultNSEBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", nseUserAgent).
		SetHeader("Accept", "application/json, text/plain, */*").
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetHeader("Referer", baseURL+"/option-chain")

	return &NSESource{client: client}
}

// Name implements Source.
func (n *NSESource) Name() string {
	return SourceNSE
}

type nseAllIndices struct {
	Data []struct {
		Index string  `json:"index"`
		Last  float64 `json:"last"`
	} `json:"data"`
}

type nseEquityQuote struct {
	PriceInfo struct {
		LastPrice float64 `json:"lastPrice"`
	} `json:"priceInfo"`
}

type nseOptionChain struct {
	Records struct {
		ExpiryDates []string         `json:"expiryDates"`
		Data        []nseStrikeEntry `json:"data"`
	} `json:"records"`
}

type nseStrikeEntry struct {
	StrikePrice float64   `json:"strikePrice"`
	ExpiryDate  string    `json:"expiryDate"`
	CE          *nseQuote `json:"CE"`
	PE          *nseQuote `json:"PE"`
}

type nseQuote struct {
	LastPrice    float64 `json:"lastPrice"`
	OpenInterest float64 `json:"openInterest"`
	Change       float64 `json:"change"`
}

func (q *nseQuote) toModel() *models.Quote {
	if q == nil {
		return nil
	}
	return &models.Quote{
		LastPrice:    q.LastPrice,
		OpenInterest: int64(q.OpenInterest),
		Change:       q.Change,
	}
}

// FetchSpotPrice returns the last traded price of an index or equity.
func (n *NSESource) FetchSpotPrice(ctx context.Context, symbol string) (float64, error) {
	if err := n.prime(ctx); err != nil {
		return 0, err
	}

	if options.IsIndex(symbol) {
		var out nseAllIndices
		if err := n.get(ctx, "/api/allIndices", nil, &out); err != nil {
			return 0, n.dataError("spot", symbol, err)
		}
		want := nseIndexNames[strings.ToUpper(symbol)]
		for _, idx := range out.Data {
			if idx.Index == want && idx.Last > 0 {
				return idx.Last, nil
			}
		}
		return 0, n.unavailable("spot", symbol)
	}

	var out nseEquityQuote
	if err := n.get(ctx, "/api/quote-equity", map[string]string{"symbol": symbol}, &out); err != nil {
		return 0, n.dataError("spot", symbol, err)
	}
	if out.PriceInfo.LastPrice <= 0 {
		return 0, n.unavailable("spot", symbol)
	}
	return out.PriceInfo.LastPrice, nil
}

// FetchOptionChain returns the full option chain across all listed expiries.
func (n *NSESource) FetchOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	if err := n.prime(ctx); err != nil {
		return nil, err
	}

	path := "/api/option-chain-equities"
	if options.IsIndex(symbol) {
		path = "/api/option-chain-indices"
	}

	var out nseOptionChain
	if err := n.get(ctx, path, map[string]string{"symbol": symbol}, &out); err != nil {
		return nil, n.dataError("option_chain", symbol, err)
	}
	if len(out.Records.Data) == 0 {
		return nil, n.unavailable("option_chain", symbol)
	}

	chain := &models.OptionChain{Symbol: symbol}
	for _, raw := range out.Records.ExpiryDates {
		d, err := models.ParseExpiryDate(raw)
		if err != nil {
			continue
		}
		chain.ExpiryDates = append(chain.ExpiryDates, d)
	}

	chain.Records = make([]models.StrikeRecord, 0, len(out.Records.Data))
	for _, entry := range out.Records.Data {
		expiry, err := models.ParseExpiryDate(entry.ExpiryDate)
		if err != nil {
			continue
		}
		chain.Records = append(chain.Records, models.StrikeRecord{
			StrikePrice: entry.StrikePrice,
			ExpiryDate:  expiry,
			Call:        entry.CE.toModel(),
			Put:         entry.PE.toModel(),
		})
	}

	return chain, nil
}

// prime opens the cookie session once. A caller whose ctx ends while the
// shared request is in flight returns early; the request itself is bounded by
// the client timeout and completes for the remaining callers.
func (n *NSESource) prime(ctx context.Context) error {
	if n.primed.Load() {
		return nil
	}

	ch := n.session.DoChan("prime", func() (interface{}, error) {
		if n.primed.Load() {
			return nil, nil
		}
		if err := n.openSession(context.WithoutCancel(ctx)); err != nil {
			return nil, err
		}
		n.primed.Store(true)
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (n *NSESource) openSession(ctx context.Context) error {
	resp, err := n.client.R().SetContext(ctx).Get("/")
	if err != nil {
		return apperrors.NewDataError(SourceNSE, "session", "", "Failed to open NSE session", err)
	}
	if resp.IsError() {
		return apperrors.NewDataError(SourceNSE, "session", "", "Failed to open NSE session",
			fmt.Errorf("status %d", resp.StatusCode()))
	}
	return nil
}

func (n *NSESource) get(ctx context.Context, path string, query map[string]string, out interface{}) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		ForceContentType("application/json").
		SetResult(out).
		Get(path)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		// Session cookies expired; prime again on the next call.
		n.primed.Store(false)
		return fmt.Errorf("status %d", resp.StatusCode())
	case resp.StatusCode() == http.StatusNotFound:
		return apperrors.ErrDataUnavailable
	case resp.IsError():
		return fmt.Errorf("status %d", resp.StatusCode())
	}
	return nil
}

func (n *NSESource) dataError(dataType, symbol string, err error) error {
	if apperrors.Is(err, apperrors.ErrDataUnavailable) {
		return n.unavailable(dataType, symbol)
	}
	return apperrors.NewDataError(SourceNSE, dataType, symbol,
		fmt.Sprintf("Failed to fetch %s for %s", strings.ReplaceAll(dataType, "_", " "), symbol), err)
}

func (n *NSESource) unavailable(dataType, symbol string) error {
	return apperrors.NewDataError(SourceNSE, dataType, symbol,
		fmt.Sprintf("No %s data for %s", strings.ReplaceAll(dataType, "_", " "), symbol), apperrors.ErrDataUnavailable)
}
