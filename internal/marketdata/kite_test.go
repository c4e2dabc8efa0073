package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	kitemodels "github.com/zerodha/gokiteconnect/v4/models"

	apperrors "options-screener/internal/errors"
)

type fakeKite struct {
	ltp         kiteconnect.QuoteLTP
	quotes      kiteconnect.Quote
	instruments kiteconnect.Instruments
	quoteCalls  int
	dumpCalls   int
	err         error
}

func (f *fakeKite) GetLTP(instruments ...string) (kiteconnect.QuoteLTP, error) {
	return f.ltp, f.err
}

func (f *fakeKite) GetQuote(instruments ...string) (kiteconnect.Quote, error) {
	f.quoteCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(kiteconnect.Quote)
	for _, key := range instruments {
		if q, ok := f.quotes[key]; ok {
			out[key] = q
		}
	}
	return out, nil
}

func (f *fakeKite) GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error) {
	f.dumpCalls++
	return f.instruments, f.err
}

func nfoOption(symbol, name, typ string, strike float64, expiry time.Time) kiteconnect.Instrument {
	return kiteconnect.Instrument{
		Tradingsymbol:  symbol,
		Name:           name,
		InstrumentType: typ,
		StrikePrice:    strike,
		Expiry:         kitemodels.Time{Time: expiry},
		Exchange:       "NFO",
	}
}

func newFakeKite() *fakeKite {
	jan := time.Date(2024, time.January, 25, 0, 0, 0, 0, time.UTC)
	f := &fakeKite{
		ltp: kiteconnect.QuoteLTP{},
		instruments: kiteconnect.Instruments{
			nfoOption("TCS24JAN3600CE", "TCS", "CE", 3600, jan),
			nfoOption("TCS24JAN3600PE", "TCS", "PE", 3600, jan),
			nfoOption("TCS24JAN3700PE", "TCS", "PE", 3700, jan),
			nfoOption("TCS24JANFUT", "TCS", "FUT", 0, jan),
			nfoOption("INFY24JAN1400CE", "INFY", "CE", 1400, jan),
		},
		quotes: kiteconnect.Quote{},
	}

	ltp := f.ltp["NSE:TCS"]
	ltp.LastPrice = 3650.25
	f.ltp["NSE:TCS"] = ltp

	for key, price := range map[string]float64{
		"NFO:TCS24JAN3600CE": 72.5,
		"NFO:TCS24JAN3600PE": 18,
		"NFO:TCS24JAN3700PE": 61,
	} {
		q := f.quotes[key]
		q.LastPrice = price
		q.OI = 1200
		f.quotes[key] = q
	}
	return f
}

func TestKiteSpotPrice(t *testing.T) {
	src := newKiteSource(newFakeKite(), time.Hour)

	spot, err := src.FetchSpotPrice(context.Background(), "tcs")
	if err != nil || spot != 3650.25 {
		t.Errorf("spot = %v, %v", spot, err)
	}

	_, err = src.FetchSpotPrice(context.Background(), "NIFTY")
	if !apperrors.Is(err, apperrors.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestKiteOptionChainGroupsLegs(t *testing.T) {
	fake := newFakeKite()
	src := newKiteSource(fake, time.Hour)

	chain, err := src.FetchOptionChain(context.Background(), "TCS")
	if err != nil {
		t.Fatalf("FetchOptionChain: %v", err)
	}
	if len(chain.ExpiryDates) != 1 {
		t.Errorf("expiries = %v", chain.ExpiryDates)
	}
	if len(chain.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(chain.Records))
	}

	first := chain.Records[0]
	if first.StrikePrice != 3600 || first.Call == nil || first.Put == nil {
		t.Errorf("3600 strike should carry both legs: %+v", first)
	}
	if first.Call.LastPrice != 72.5 || first.Call.OpenInterest != 1200 {
		t.Errorf("unexpected call quote %+v", first.Call)
	}
	if chain.Records[1].Call != nil {
		t.Error("3700 strike has no call leg")
	}

	// The instrument dump is reused within its TTL.
	if _, err := src.FetchOptionChain(context.Background(), "TCS"); err != nil {
		t.Fatal(err)
	}
	if fake.dumpCalls != 1 {
		t.Errorf("instrument dump fetched %d times, want 1", fake.dumpCalls)
	}
}

func TestKiteOptionChainErrors(t *testing.T) {
	src := newKiteSource(newFakeKite(), time.Hour)
	_, err := src.FetchOptionChain(context.Background(), "WIPRO")
	if !apperrors.Is(err, apperrors.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}

	failing := newFakeKite()
	failing.err = errors.New("TokenException")
	src = newKiteSource(failing, time.Hour)
	_, err = src.FetchOptionChain(context.Background(), "TCS")
	if err == nil || apperrors.Is(err, apperrors.ErrDataUnavailable) {
		t.Errorf("expected upstream failure, got %v", err)
	}
}

func TestNewKiteSourceRequiresCredentials(t *testing.T) {
	if _, err := NewKiteSource(KiteConfig{APIKey: "key"}); !apperrors.Is(err, apperrors.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestKiteSpotKey(t *testing.T) {
	if got := kiteSpotKey("banknifty"); got != "NSE:NIFTY BANK" {
		t.Errorf("kiteSpotKey = %q", got)
	}
	if got := kiteSpotKey("ITC"); got != "NSE:ITC" {
		t.Errorf("kiteSpotKey = %q", got)
	}
}
