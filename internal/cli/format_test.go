package cli

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var indianGrouping = regexp.MustCompile(`^(\d{1,2},)*\d{1,3}$`)

func TestProperty_IndianCurrencyFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("rupee prefix, two decimals and Indian grouping", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatIndianCurrency(amount)
			if !strings.HasPrefix(formatted, "₹") {
				return false
			}
			intPart, decPart, ok := strings.Cut(strings.TrimPrefix(formatted, "₹"), ".")
			return ok && len(decPart) == 2 && indianGrouping.MatchString(intPart)
		},
		gen.Float64Range(0, 1e12),
	))

	properties.Property("grouping preserves the value", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatIndianCurrency(amount)
			plain := strings.ReplaceAll(strings.TrimPrefix(formatted, "₹"), ",", "")
			parsed, err := strconv.ParseFloat(plain, 64)
			if err != nil {
				return false
			}
			want, _ := strconv.ParseFloat(strconv.FormatFloat(amount, 'f', 2, 64), 64)
			return parsed == want
		},
		gen.Float64Range(0, 1e12),
	))

	properties.TestingRun(t)
}

func TestIndianCurrencyExamples(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "₹0.00"},
		{999, "₹999.00"},
		{1000, "₹1,000.00"},
		{21550, "₹21,550.00"},
		{100000, "₹1,00,000.00"},
		{12345678.9, "₹1,23,45,678.90"},
		{-2450.5, "-₹2,450.50"},
		{-0.001, "₹0.00"},
	}
	for _, tt := range tests {
		if got := FormatIndianCurrency(tt.in); got != tt.want {
			t.Errorf("FormatIndianCurrency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSmallFormatters(t *testing.T) {
	if got := FormatEV(2.2); got != "2.20%" {
		t.Errorf("FormatEV = %q", got)
	}
	if got := FormatDays(1); got != "1 day" {
		t.Errorf("FormatDays(1) = %q", got)
	}
	if got := FormatDays(15); got != "15 days" {
		t.Errorf("FormatDays(15) = %q", got)
	}
	if got := FormatExpiry(time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)); got != "25-Jan-2024" {
		t.Errorf("FormatExpiry = %q", got)
	}
	if got := FormatTimestamp(time.Date(2024, 1, 10, 4, 30, 0, 0, time.UTC)); got != "10-Jan-2024 10:00:00 IST" {
		t.Errorf("FormatTimestamp = %q", got)
	}
}
