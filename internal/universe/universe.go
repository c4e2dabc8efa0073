// Package universe lists the underlyings offered for screening.
package universe

import (
	"options-screener/internal/models"
	"options-screener/internal/options"
)

var entries = []struct {
	symbol string
	name   string
}{
	{"NIFTY", "NIFTY 50"},
	{"BANKNIFTY", "BANK NIFTY"},
	{"FINNIFTY", "FIN NIFTY"},
	{"MIDCPNIFTY", "NIFTY MIDCAP SELECT"},
	{"RELIANCE", "Reliance Industries"},
	{"TCS", "Tata Consultancy Services"},
	{"HDFCBANK", "HDFC Bank"},
	{"INFY", "Infosys"},
	{"ICICIBANK", "ICICI Bank"},
	{"HINDUNILVR", "Hindustan Unilever"},
	{"ITC", "ITC Ltd"},
	{"SBIN", "State Bank of India"},
	{"BHARTIARTL", "Bharti Airtel"},
	{"KOTAKBANK", "Kotak Mahindra Bank"},
	{"LT", "Larsen & Toubro"},
	{"AXISBANK", "Axis Bank"},
	{"BAJFINANCE", "Bajaj Finance"},
	{"MARUTI", "Maruti Suzuki"},
	{"SUNPHARMA", "Sun Pharma"},
	{"TITAN", "Titan Company"},
	{"TATAMOTORS", "Tata Motors"},
	{"WIPRO", "Wipro"},
	{"ADANIENT", "Adani Enterprises"},
	{"ONGC", "ONGC"},
}

// Instruments returns the screenable universe, indices first.
func Instruments() []models.Instrument {
	out := make([]models.Instrument, len(entries))
	for i, e := range entries {
		typ := models.InstrumentStock
		if options.IsIndex(e.symbol) {
			typ = models.InstrumentIndex
		}
		out[i] = models.Instrument{Symbol: e.symbol, Name: e.name, Type: typ}
	}
	return out
}

// Lookup returns the instrument for symbol.
func Lookup(symbol string) (models.Instrument, bool) {
	for _, inst := range Instruments() {
		if inst.Symbol == symbol {
			return inst, true
		}
	}
	return models.Instrument{}, false
}

// Symbols returns the symbols of Instruments in the same order.
func Symbols() []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.symbol
	}
	return out
}
