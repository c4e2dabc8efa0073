package marketdata

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	apperrors "options-screener/internal/errors"
	"options-screener/internal/models"
)

// quoteBatchSize is the instrument limit of a single Kite quote request.
const quoteBatchSize = 500

// KiteConfig holds configuration for the Zerodha Kite source.
type KiteConfig struct {
	APIKey      string
	AccessToken string
	BaseURL     string
	// InstrumentsTTL bounds how long the NFO instrument dump is reused.
	InstrumentsTTL time.Duration
}

// kiteAPI is the subset of the Kite Connect client used here.
type kiteAPI interface {
	GetLTP(instruments ...string) (kiteconnect.QuoteLTP, error)
	GetQuote(instruments ...string) (kiteconnect.Quote, error)
	GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error)
}

// KiteSource reads market data through Zerodha Kite Connect. Option chains
// are assembled from the NFO instrument list and batched quotes.
type KiteSource struct {
	api kiteAPI
	ttl time.Duration
	now func() time.Time

	mu          sync.Mutex
	instruments kiteconnect.Instruments
	loadedAt    time.Time
}

// NewKiteSource creates a Kite source from an API key and a session access
// token.
func NewKiteSource(cfg KiteConfig) (*KiteSource, error) {
	if cfg.APIKey == "" || cfg.AccessToken == "" {
		return nil, apperrors.Wrap(apperrors.ErrNotAuthenticated, "kite source requires api_key and access_token")
	}

	client := kiteconnect.New(cfg.APIKey)
	client.SetAccessToken(cfg.AccessToken)
	if cfg.BaseURL != "" {
		client.SetBaseURI(cfg.BaseURL)
	}
	return newKiteSource(client, cfg.InstrumentsTTL), nil
}

func newKiteSource(api kiteAPI, ttl time.Duration) *KiteSource {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &KiteSource{api: api, ttl: ttl, now: time.Now}
}

// Name implements Source.
func (k *KiteSource) Name() string {
	return SourceKite
}

// FetchSpotPrice returns the last traded price on NSE.
func (k *KiteSource) FetchSpotPrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	key := kiteSpotKey(symbol)
	ltp, err := k.api.GetLTP(key)
	if err != nil {
		return 0, apperrors.NewDataError(SourceKite, "spot", symbol,
			fmt.Sprintf("Failed to fetch spot price for %s", symbol), err)
	}

	q, ok := ltp[key]
	if !ok || q.LastPrice <= 0 {
		return 0, apperrors.NewDataError(SourceKite, "spot", symbol,
			fmt.Sprintf("No spot data for %s", symbol), apperrors.ErrDataUnavailable)
	}
	return q.LastPrice, nil
}

// FetchOptionChain returns every listed option of the underlying grouped by
// strike and expiry.
func (k *KiteSource) FetchOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	instruments, err := k.nfoInstruments(ctx)
	if err != nil {
		return nil, apperrors.NewDataError(SourceKite, "option_chain", symbol,
			fmt.Sprintf("Failed to fetch instruments for %s", symbol), err)
	}

	name := strings.ToUpper(symbol)
	var contracts []kiteconnect.Instrument
	for _, inst := range instruments {
		if inst.Name != name {
			continue
		}
		if inst.InstrumentType != "CE" && inst.InstrumentType != "PE" {
			continue
		}
		contracts = append(contracts, inst)
	}
	if len(contracts) == 0 {
		return nil, apperrors.NewDataError(SourceKite, "option_chain", symbol,
			fmt.Sprintf("No option chain data for %s", symbol), apperrors.ErrDataUnavailable)
	}

	quotes := make(kiteconnect.Quote, len(contracts))
	for start := 0; start < len(contracts); start += quoteBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + quoteBatchSize
		if end > len(contracts) {
			end = len(contracts)
		}
		keys := make([]string, 0, end-start)
		for _, inst := range contracts[start:end] {
			keys = append(keys, "NFO:"+inst.Tradingsymbol)
		}
		batch, err := k.api.GetQuote(keys...)
		if err != nil {
			return nil, apperrors.NewDataError(SourceKite, "option_chain", symbol,
				fmt.Sprintf("Failed to fetch option quotes for %s", symbol), err)
		}
		for key, q := range batch {
			quotes[key] = q
		}
	}

	return buildKiteChain(name, contracts, quotes), nil
}

type strikeKey struct {
	strike float64
	expiry time.Time
}

func buildKiteChain(symbol string, contracts []kiteconnect.Instrument, quotes kiteconnect.Quote) *models.OptionChain {
	chain := &models.OptionChain{Symbol: symbol}
	index := make(map[strikeKey]int)
	seenExpiry := make(map[time.Time]bool)

	for _, inst := range contracts {
		q, ok := quotes["NFO:"+inst.Tradingsymbol]
		if !ok {
			continue
		}
		expiry := models.ExpiryDateOf(inst.Expiry.Time)
		if !seenExpiry[expiry] {
			seenExpiry[expiry] = true
			chain.ExpiryDates = append(chain.ExpiryDates, expiry)
		}

		key := strikeKey{strike: inst.StrikePrice, expiry: expiry}
		i, ok := index[key]
		if !ok {
			chain.Records = append(chain.Records, models.StrikeRecord{StrikePrice: inst.StrikePrice, ExpiryDate: expiry})
			i = len(chain.Records) - 1
			index[key] = i
		}

		quote := &models.Quote{
			LastPrice:    q.LastPrice,
			OpenInterest: int64(q.OI),
			Change:       q.NetChange,
		}
		if inst.InstrumentType == "CE" {
			chain.Records[i].Call = quote
		} else {
			chain.Records[i].Put = quote
		}
	}
	return chain
}

func (k *KiteSource) nfoInstruments(ctx context.Context) (kiteconnect.Instruments, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.instruments != nil && k.now().Sub(k.loadedAt) < k.ttl {
		return k.instruments, nil
	}

	instruments, err := k.api.GetInstrumentsByExchange(string(models.NFO))
	if err != nil {
		return nil, err
	}
	k.instruments = instruments
	k.loadedAt = k.now()
	return instruments, nil
}

func kiteSpotKey(symbol string) string {
	if name, ok := nseIndexNames[strings.ToUpper(symbol)]; ok {
		return "NSE:" + name
	}
	return "NSE:" + strings.ToUpper(symbol)
}
