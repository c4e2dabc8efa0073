package cli

import (
	"fmt"
	"strings"
	"time"
)

// FormatIndianCurrency formats an amount with the rupee sign and Indian digit
// grouping (lakhs, crores).
func FormatIndianCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	intPart, decPart, _ := strings.Cut(str, ".")

	result := "₹" + formatIndianNumber(intPart) + "." + decPart
	if negative && strings.Trim(intPart+decPart, "0") != "" {
		result = "-" + result
	}
	return result
}

// formatIndianNumber groups an integer string as 1,00,00,000 rather than
// 10,000,000.
func formatIndianNumber(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	s = s[:n-3]
	for len(s) > 0 {
		if len(s) >= 2 {
			result = s[len(s)-2:] + "," + result
			s = s[:len(s)-2]
		} else {
			result = s + "," + result
			s = ""
		}
	}
	return result
}

// FormatEV formats an extrinsic-value percentage.
func FormatEV(ev float64) string {
	return fmt.Sprintf("%.2f%%", ev)
}

// FormatDays formats a days-to-expiry count.
func FormatDays(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// FormatExpiry formats an expiry date the way the exchange lists it.
func FormatExpiry(t time.Time) string {
	return t.Format("02-Jan-2006")
}

// FormatTimestamp formats a response timestamp in IST.
func FormatTimestamp(t time.Time) string {
	ist := time.FixedZone("IST", 5*3600+1800)
	return t.In(ist).Format("02-Jan-2006 15:04:05 MST")
}
