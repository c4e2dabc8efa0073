// Package models provides domain models for the options screener.
package models

import (
	"strings"
	"time"
)

// Exchange represents a stock exchange segment.
type Exchange string

const (
	NSE Exchange = "NSE"
	NFO Exchange = "NFO" // F&O
)

// MarketStatus represents the current market session.
type MarketStatus string

const (
	MarketOpen    MarketStatus = "OPEN"
	MarketPreOpen MarketStatus = "PRE_OPEN"
	MarketClosed  MarketStatus = "CLOSED"
)

// InstrumentType classifies an underlying.
type InstrumentType string

const (
	InstrumentIndex InstrumentType = "INDEX"
	InstrumentStock InstrumentType = "STOCK"
)

// Instrument is an underlying that can be screened.
type Instrument struct {
	Symbol string         `json:"symbol"`
	Name   string         `json:"name"`
	Type   InstrumentType `json:"type"`
}

// Expiry date layouts accepted from market-data sources.
const (
	ISODateLayout = "2006-01-02"
	NSEDateLayout = "02-Jan-2006"
)

// NewExpiryDate returns the calendar day as a UTC midnight timestamp.
func NewExpiryDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ExpiryDateOf strips the time-of-day from t, keeping its calendar day.
func ExpiryDateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return NewExpiryDate(y, m, d)
}

// ParseExpiryDate parses an exchange expiry string in ISO or NSE format.
func ParseExpiryDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(ISODateLayout, s)
	if err == nil {
		return t, nil
	}
	t, nseErr := time.Parse(NSEDateLayout, s)
	if nseErr == nil {
		return t, nil
	}
	return time.Time{}, err
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
