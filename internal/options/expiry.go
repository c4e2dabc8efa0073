package options

import (
	"math"
	"sort"
	"time"

	"options-screener/internal/models"
)

// MaxMonthlyExpiries is the number of monthly slots offered: current month
// plus the next three.
const MaxMonthlyExpiries = 4

// SelectMonthlyExpiries reduces the exchange's raw expiry list to one date per
// calendar month, in ascending order, keeping the earliest listed date of each
// month. The result holds at most MaxMonthlyExpiries entries.
func SelectMonthlyExpiries(raw []time.Time) []time.Time {
	if len(raw) == 0 {
		return []time.Time{}
	}

	seenDays := make(map[time.Time]bool, len(raw))
	unique := make([]time.Time, 0, len(raw))
	for _, d := range raw {
		day := models.ExpiryDateOf(d)
		if seenDays[day] {
			continue
		}
		seenDays[day] = true
		unique = append(unique, day)
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].Before(unique[j])
	})

	type yearMonth struct {
		year  int
		month time.Month
	}
	seenMonths := make(map[yearMonth]bool)
	monthly := make([]time.Time, 0, MaxMonthlyExpiries)
	for _, day := range unique {
		key := yearMonth{day.Year(), day.Month()}
		if seenMonths[key] {
			continue
		}
		seenMonths[key] = true
		monthly = append(monthly, day)
		if len(monthly) == MaxMonthlyExpiries {
			break
		}
	}

	return monthly
}

// DaysToExpiry returns the whole days from now until expiry, rounded up and
// never negative.
func DaysToExpiry(expiry, now time.Time) int {
	days := math.Ceil(expiry.Sub(now).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return int(days)
}
