package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

const testConfig = `[market_data]
source = "simulated"
simulated_latency = false

[cache]
backend = "memory"

[logging]
console = false
`

// run executes the root command against a fresh config directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MARKET_DATA_SOURCE", "")
	t.Setenv("USE_MOCK_DATA", "")
	t.Setenv("CACHE_BACKEND", "")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := NewRootCmd(zerolog.Nop())
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", dir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]string
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if v["version"] != Version {
		t.Errorf("version = %q", v["version"])
	}
}

func TestScreenCommandJSON(t *testing.T) {
	out, err := run(t, "screen", "nifty", "TCS", "RELIANCE", "--strategy", "acc", "--json")
	if err != nil {
		t.Fatal(err)
	}

	var resp struct {
		Results []struct {
			Symbol         string  `json:"symbol"`
			OptionType     string  `json:"optionType"`
			EVPercentage   float64 `json:"evPercentage"`
			Recommendation string  `json:"recommendation"`
		} `json:"results"`
		Errors []struct {
			Symbol string `json:"symbol"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(resp.Results)+len(resp.Errors) != 3 {
		t.Fatalf("got %d results and %d errors", len(resp.Results), len(resp.Errors))
	}
	for i, r := range resp.Results {
		if r.OptionType != "CALL" {
			t.Errorf("%s: option type %s", r.Symbol, r.OptionType)
		}
		if r.Recommendation != "YES" && r.Recommendation != "NO" {
			t.Errorf("%s: recommendation %q", r.Symbol, r.Recommendation)
		}
		if i > 0 && r.EVPercentage > resp.Results[i-1].EVPercentage {
			t.Errorf("results not sorted by EV: %v", resp.Results)
		}
	}
}

func TestScreenCommandTable(t *testing.T) {
	out, err := run(t, "screen", "NIFTY")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"CCP screen", "SYMBOL", "NIFTY", "PUT"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestScreenCommandRejectsBadInput(t *testing.T) {
	if _, err := run(t, "screen", "NIFTY", "--strategy", "XYZ"); err == nil {
		t.Error("expected error for unknown strategy")
	}
	if _, err := run(t, "screen", "NIFTY", "--expiry", "4"); err == nil {
		t.Error("expected error for expiry slot 4")
	}
	if _, err := run(t, "screen"); err == nil {
		t.Error("expected error without symbols")
	}
}

func TestExpiriesCommand(t *testing.T) {
	out, err := run(t, "expiries", "banknifty", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var resp struct {
		Symbol   string            `json:"symbol"`
		Expiries []json.RawMessage `json:"expiries"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if resp.Symbol != "BANKNIFTY" || len(resp.Expiries) != 4 {
		t.Errorf("got %s with %d expiries", resp.Symbol, len(resp.Expiries))
	}
}

func TestStocksCommand(t *testing.T) {
	out, err := run(t, "stocks")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "MIDCPNIFTY") || !strings.Contains(out, "1.00%") || !strings.Contains(out, "2.00%") {
		t.Errorf("unexpected stocks output:\n%s", out)
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	t.Setenv("ZERODHA_API_KEY", "abcdef123456")
	out, err := run(t, "config", "show", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "abcdef123456") {
		t.Errorf("api key leaked:\n%s", out)
	}
}
