// Package options implements the options analysis engine: monthly expiry
// selection, nearest in-the-money contract selection, intrinsic/extrinsic
// valuation and the sell recommendation.
package options

import (
	"math"
	"strings"

	"options-screener/internal/models"
)

// Recommendation thresholds on extrinsic-value percentage.
const (
	IndexThreshold = 1.0
	StockThreshold = 2.0
)

var indices = map[string]bool{
	"NIFTY":      true,
	"BANKNIFTY":  true,
	"FINNIFTY":   true,
	"MIDCPNIFTY": true,
}

// CallIntrinsic returns max(spot - strike, 0).
func CallIntrinsic(spot, strike float64) float64 {
	return math.Max(spot-strike, 0)
}

// PutIntrinsic returns max(strike - spot, 0).
func PutIntrinsic(spot, strike float64) float64 {
	return math.Max(strike-spot, 0)
}

// Intrinsic dispatches on the option side.
func Intrinsic(side models.OptionType, spot, strike float64) float64 {
	if side == models.OptionPut {
		return PutIntrinsic(spot, strike)
	}
	return CallIntrinsic(spot, strike)
}

// Extrinsic is the premium above intrinsic value. It is negative when the
// market trades below parity.
func Extrinsic(ltp, intrinsic float64) float64 {
	return ltp - intrinsic
}

// EVPercentage expresses extrinsic value as a percentage of the strike.
func EVPercentage(extrinsic, strike float64) float64 {
	if strike == 0 {
		return 0
	}
	return extrinsic / strike * 100
}

// IsIndex reports whether symbol is one of the traded NSE indices.
func IsIndex(symbol string) bool {
	return indices[strings.ToUpper(strings.TrimSpace(symbol))]
}

// Threshold returns the EV% a contract must exceed to be recommended.
func Threshold(symbol string) float64 {
	if IsIndex(symbol) {
		return IndexThreshold
	}
	return StockThreshold
}

// Recommend compares the unrounded EV% against the symbol's threshold.
func Recommend(evPercentage float64, symbol string) models.Recommendation {
	if evPercentage > Threshold(symbol) {
		return models.RecommendYes
	}
	return models.RecommendNo
}
