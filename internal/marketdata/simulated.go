package marketdata

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"options-screener/internal/models"
	"options-screener/pkg/utils"
)

var basePrices = map[string]float64{
	"NIFTY":      21500,
	"BANKNIFTY":  45000,
	"FINNIFTY":   19500,
	"MIDCPNIFTY": 10500,
	"RELIANCE":   2450,
	"TCS":        3650,
	"HDFCBANK":   1580,
	"INFY":       1420,
	"ICICIBANK":  980,
	"HINDUNILVR": 2380,
	"ITC":        425,
	"SBIN":       615,
	"BHARTIARTL": 895,
	"KOTAKBANK":  1755,
	"LT":         3180,
	"AXISBANK":   1025,
	"BAJFINANCE": 6850,
	"MARUTI":     10250,
	"SUNPHARMA":  1145,
	"TITAN":      3250,
	"TATAMOTORS": 725,
	"WIPRO":      445,
	"ADANIENT":   2380,
	"ONGC":       185,
}

const (
	defaultBasePrice  = 1000
	strikesEachSide   = 5
	simulatedExpiries = 4
)

// SimulatedConfig holds configuration for the simulated source.
type SimulatedConfig struct {
	// Latency adds network-like delays to every fetch.
	Latency bool
	// Seed fixes the random stream; zero seeds from the clock.
	Seed int64
	// Now overrides the clock used to list expiries.
	Now func() time.Time
}

// SimulatedSource generates plausible prices and chains around fixed base
// prices for development and demos. A chain is centred on the last spot
// quoted for the symbol so the two stay consistent.
type SimulatedSource struct {
	latency bool
	now     func() time.Time

	mu        sync.Mutex
	rng       *rand.Rand
	lastSpots map[string]float64
}

// NewSimulatedSource creates a simulated source.
func NewSimulatedSource(cfg SimulatedConfig) *SimulatedSource {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &SimulatedSource{
		latency:   cfg.Latency,
		now:       now,
		rng:       rand.New(rand.NewSource(seed)),
		lastSpots: make(map[string]float64),
	}
}

// Name implements Source.
func (s *SimulatedSource) Name() string {
	return SourceSimulated
}

// FetchSpotPrice returns the base price moved by up to ±2%.
func (s *SimulatedSource) FetchSpotPrice(ctx context.Context, symbol string) (float64, error) {
	if err := s.delay(ctx, 300*time.Millisecond, 200*time.Millisecond); err != nil {
		return 0, err
	}
	return s.spot(symbol), nil
}

// FetchOptionChain returns eleven strikes around the symbol's last quoted
// spot for each of the next four monthly expiries.
func (s *SimulatedSource) FetchOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	if err := s.delay(ctx, 500*time.Millisecond, 300*time.Millisecond); err != nil {
		return nil, err
	}

	s.mu.Lock()
	spot, ok := s.lastSpots[strings.ToUpper(symbol)]
	s.mu.Unlock()
	if !ok {
		spot = s.spot(symbol)
	}
	expiries := nextMonthlyExpiries(s.now().In(utils.IndiaLocation), simulatedExpiries)
	interval := StrikeInterval(symbol, spot)
	start := math.Floor(spot/interval)*interval - interval*strikesEachSide

	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]models.StrikeRecord, 0, len(expiries)*(2*strikesEachSide+1))
	for _, expiry := range expiries {
		for i := 0; i <= 2*strikesEachSide; i++ {
			strike := start + float64(i)*interval
			records = append(records, models.StrikeRecord{
				StrikePrice: strike,
				ExpiryDate:  expiry,
				Call:        s.quoteLocked(math.Max(spot-strike, 0)),
				Put:         s.quoteLocked(math.Max(strike-spot, 0)),
			})
		}
	}

	return &models.OptionChain{
		Symbol:      symbol,
		ExpiryDates: expiries,
		Records:     records,
	}, nil
}

// StrikeInterval returns the listed strike spacing for an underlying.
func StrikeInterval(symbol string, spot float64) float64 {
	switch {
	case strings.Contains(strings.ToUpper(symbol), "NIFTY"):
		return 50
	case spot > 5000:
		return 100
	case spot > 1000:
		return 50
	case spot > 100:
		return 10
	default:
		return 5
	}
}

func (s *SimulatedSource) spot(symbol string) float64 {
	key := strings.ToUpper(symbol)
	base, ok := basePrices[key]
	if !ok {
		base = defaultBasePrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	spot := roundTo(base+base*(s.rng.Float64()*0.04-0.02), 2)
	s.lastSpots[key] = spot
	return spot
}

func (s *SimulatedSource) quoteLocked(intrinsic float64) *models.Quote {
	timeValue := s.rng.Float64()*50 + 10
	return &models.Quote{
		LastPrice:    roundTo(intrinsic+timeValue, 2),
		OpenInterest: s.rng.Int63n(100000),
		Change:       roundTo(s.rng.Float64()*10-5, 2),
	}
}

func (s *SimulatedSource) delay(ctx context.Context, base, jitter time.Duration) error {
	if !s.latency {
		return ctx.Err()
	}
	s.mu.Lock()
	d := base + time.Duration(s.rng.Int63n(int64(jitter)))
	s.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// nextMonthlyExpiries lists the last Thursday of the current month and the
// following n-1 months.
func nextMonthlyExpiries(now time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		first := time.Date(now.Year(), now.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		out = append(out, utils.LastThursday(first.Year(), first.Month()))
	}
	return out
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
