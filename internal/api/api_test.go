package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"options-screener/internal/cache"
	apperrors "options-screener/internal/errors"
	"options-screener/internal/marketdata"
	"options-screener/internal/models"
	"options-screener/internal/resilience"
	"options-screener/internal/screener"
	"options-screener/pkg/utils"
)

var fixedNow = time.Date(2024, time.January, 10, 5, 0, 0, 0, time.UTC) // 10:30 IST, Wednesday

func newTestServer(t *testing.T, src marketdata.Source) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	clock := func() time.Time { return fixedNow }
	if src == nil {
		src = marketdata.NewSimulatedSource(marketdata.SimulatedConfig{Seed: 11, Now: clock})
	}
	opts := screener.DefaultOptions()
	opts.Now = clock
	pipeline := screener.New(src, cache.NewMemoryCache(), opts, zerolog.Nop())

	s := NewServer(Config{CORSOrigin: "http://localhost:3000"}, pipeline, zerolog.Nop())
	s.now = clock
	return s
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
		}
	}
	return w, out
}

func TestHealth(t *testing.T) {
	w, body := do(t, newTestServer(t, nil), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["status"] != "OK" || body["market"] != "OPEN" || body["source"] != "simulated" {
		t.Errorf("unexpected body %v", body)
	}
	if body["timestamp"] != "2024-01-10T05:00:00.000Z" {
		t.Errorf("timestamp = %v", body["timestamp"])
	}
}

func TestListStocks(t *testing.T) {
	w, body := do(t, newTestServer(t, nil), http.MethodGet, "/api/stocks", "")
	if w.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("status = %d body = %v", w.Code, body)
	}
	stocks := body["stocks"].([]interface{})
	if len(stocks) != 24 {
		t.Errorf("stocks = %d, want 24", len(stocks))
	}
	first := stocks[0].(map[string]interface{})
	if first["symbol"] != "NIFTY" || first["type"] != "INDEX" {
		t.Errorf("first stock = %v", first)
	}
}

func TestScreen(t *testing.T) {
	s := newTestServer(t, nil)
	w, body := do(t, s, http.MethodPost, "/api/screen", `{"symbols":["NIFTY","reliance","TCS"],"strategy":"ACC","expiryMonth":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if body["success"] != true {
		t.Fatalf("body = %v", body)
	}
	if _, ok := body["errors"]; ok {
		t.Errorf("errors should be omitted when empty: %v", body["errors"])
	}

	results := body["results"].([]interface{})
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	prev := 1e9
	for _, r := range results {
		row := r.(map[string]interface{})
		if row["optionType"] != "CALL" {
			t.Errorf("ACC must screen calls: %v", row)
		}
		ev := row["evPercentage"].(float64)
		if ev > prev {
			t.Errorf("results not sorted by evPercentage: %v after %v", ev, prev)
		}
		prev = ev
	}
}

func TestScreenValidation(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		body string
		msg  string
	}{
		{``, "Symbols array is required"},
		{`{"symbols":[],"strategy":"CCP","expiryMonth":0}`, "Symbols array is required"},
		{`{"symbols":"NIFTY","strategy":"CCP","expiryMonth":0}`, "Symbols array is required"},
		{`{"symbols":["NIFTY"],"strategy":"XYZ","expiryMonth":0}`, "Strategy must be CCP or ACC"},
		{`{"symbols":["NIFTY"],"strategy":"CCP"}`, "Expiry month must be 0, 1, 2, or 3"},
		{`{"symbols":["NIFTY"],"strategy":"CCP","expiryMonth":"1"}`, "Expiry month must be 0, 1, 2, or 3"},
		{`{"symbols":["NIFTY"],"strategy":"CCP","expiryMonth":7}`, "Expiry month must be 0, 1, 2, or 3"},
		{`{"symbols":`, "Invalid JSON body"},
	}
	for _, tt := range tests {
		w, body := do(t, s, http.MethodPost, "/api/screen", tt.body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", tt.body, w.Code)
			continue
		}
		if body["success"] != false || body["error"] != tt.msg {
			t.Errorf("%s: body = %v, want error %q", tt.body, body, tt.msg)
		}
	}
}

func TestExpiries(t *testing.T) {
	w, body := do(t, newTestServer(t, nil), http.MethodGet, "/api/expiries/nifty", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["symbol"] != "NIFTY" {
		t.Errorf("symbol = %v", body["symbol"])
	}
	expiries := body["expiries"].([]interface{})
	if len(expiries) != 4 {
		t.Fatalf("expiries = %d, want 4", len(expiries))
	}
	first := expiries[0].(map[string]interface{})
	if first["month"] != float64(0) || first["date"] != "2024-01-25" || first["daysToExpiry"] != float64(15) {
		t.Errorf("first expiry = %v", first)
	}
}

type emptySource struct{}

func (emptySource) Name() string { return "empty" }

func (emptySource) FetchSpotPrice(context.Context, string) (float64, error) {
	return 0, apperrors.ErrDataUnavailable
}

func (emptySource) FetchOptionChain(_ context.Context, symbol string) (*models.OptionChain, error) {
	return nil, apperrors.NewDataError("empty", "option_chain", symbol, "No option chain data", apperrors.ErrDataUnavailable)
}

func TestExpiriesNotFound(t *testing.T) {
	w, body := do(t, newTestServer(t, emptySource{}), http.MethodGet, "/api/expiries/TCS", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if body["error"] != "Option chain not available" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestScreenReportsPerSymbolErrors(t *testing.T) {
	w, body := do(t, newTestServer(t, emptySource{}), http.MethodPost, "/api/screen", `{"symbols":["TCS"],"strategy":"CCP","expiryMonth":0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	errs := body["errors"].([]interface{})
	first := errs[0].(map[string]interface{})
	if first["symbol"] != "TCS" || first["error"] != "Spot price not available" {
		t.Errorf("errors = %v", errs)
	}
	if results := body["results"].([]interface{}); len(results) != 0 {
		t.Errorf("results = %v", results)
	}
}

func TestCORSPreflight(t *testing.T) {
	w, _ := do(t, newTestServer(t, nil), http.MethodOptions, "/api/screen", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}
}

type brokenSource struct{ emptySource }

func (brokenSource) FetchOptionChain(context.Context, string) (*models.OptionChain, error) {
	return nil, errors.New("upstream 500")
}

func TestExpiriesUpstreamFailureIsLogged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	pipeline := screener.New(brokenSource{}, nil, screener.DefaultOptions(), zerolog.Nop())
	s := NewServer(Config{}, pipeline, zerolog.New(&logs))

	w, body := do(t, s, http.MethodGet, "/api/expiries/TCS", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if body["success"] != false {
		t.Errorf("body = %v", body)
	}
	if !strings.Contains(logs.String(), "Expiries failed") || !strings.Contains(logs.String(), `"symbol":"TCS"`) {
		t.Errorf("handler did not log through the request logger:\n%s", logs.String())
	}
}

func TestHealthReportsTrippedBreakers(t *testing.T) {
	retry := utils.RetryConfig{MaxAttempts: 1}
	breaker := resilience.CircuitBreakerConfig{FailureThreshold: 1, Cooldown: time.Hour}
	s := newTestServer(t, marketdata.NewResilientSource(brokenSource{}, retry, breaker, zerolog.Nop()))

	do(t, s, http.MethodGet, "/api/expiries/TCS", "")
	_, body := do(t, s, http.MethodGet, "/health", "")

	breakers, ok := body["circuitBreakers"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing circuitBreakers in %v", body)
	}
	tripped := breakers["tripped"].([]interface{})
	if breakers["tracked"] != float64(1) || len(tripped) != 1 {
		t.Fatalf("circuitBreakers = %v", breakers)
	}
	if first := tripped[0].(map[string]interface{}); first["name"] != "empty:TCS" || first["state"] != "OPEN" {
		t.Errorf("tripped = %v", tripped)
	}
}
