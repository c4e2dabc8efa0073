package options

import (
	"time"

	"options-screener/internal/models"
)

// SelectNearestITM returns the in-the-money contract closest to spot for the
// given expiry and side: the highest strike below spot for calls, the lowest
// strike above spot for puts. Strikes without a positive last price on that
// side are ignored. The boolean is false when no strike qualifies.
func SelectNearestITM(records []models.StrikeRecord, spot float64, expiry time.Time, side models.OptionType) (models.StrikeRecord, bool) {
	var (
		best  models.StrikeRecord
		found bool
	)

	for _, rec := range records {
		if !models.SameDay(rec.ExpiryDate, expiry) {
			continue
		}
		q := rec.QuoteFor(side)
		if q == nil || q.LastPrice <= 0 {
			continue
		}
		if !inTheMoney(side, rec.StrikePrice, spot) {
			continue
		}
		if !found || nearer(side, rec.StrikePrice, best.StrikePrice) {
			best = rec
			found = true
		}
	}

	return best, found
}

// inTheMoney excludes strikes equal to spot for both sides.
func inTheMoney(side models.OptionType, strike, spot float64) bool {
	if side == models.OptionPut {
		return strike > spot
	}
	return strike < spot
}

func nearer(side models.OptionType, candidate, current float64) bool {
	if side == models.OptionPut {
		return candidate < current
	}
	return candidate > current
}
