package options

import (
	"time"

	"github.com/shopspring/decimal"

	"options-screener/internal/models"
)

// Screen analyses the nearest ITM contract implied by strategy and returns the
// assembled result. The boolean is false when the chain holds no suitable
// contract for the expiry.
func Screen(symbol string, spot float64, records []models.StrikeRecord, expiry time.Time, strategy models.Strategy, daysToExpiry int) (*models.AnalysisResult, bool) {
	side := strategy.Side()

	contract, ok := SelectNearestITM(records, spot, expiry, side)
	if !ok {
		return nil, false
	}

	ltp := contract.QuoteFor(side).LastPrice
	intrinsic := Intrinsic(side, spot, contract.StrikePrice)
	extrinsic := Extrinsic(ltp, intrinsic)
	evPct := EVPercentage(extrinsic, contract.StrikePrice)

	return &models.AnalysisResult{
		Symbol:         symbol,
		OptionType:     side,
		StrikePrice:    contract.StrikePrice,
		OptionLTP:      ltp,
		IntrinsicValue: Round2(intrinsic),
		ExtrinsicValue: Round2(extrinsic),
		EVPercentage:   Round2(evPct),
		DaysToExpiry:   daysToExpiry,
		Recommendation: Recommend(evPct, symbol),
		SpotPrice:      Round2(spot),
	}, true
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
