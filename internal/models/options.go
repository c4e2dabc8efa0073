package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OptionType is the contract side.
type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// Strategy is an options-selling strategy.
type Strategy string

const (
	StrategyCCP Strategy = "CCP" // cash-covered put
	StrategyACC Strategy = "ACC" // asset-covered call
)

// ParseStrategy converts a user-supplied strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToUpper(strings.TrimSpace(s))) {
	case StrategyCCP:
		return StrategyCCP, nil
	case StrategyACC:
		return StrategyACC, nil
	}
	return "", fmt.Errorf("unknown strategy %q (must be CCP or ACC)", s)
}

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyCCP || s == StrategyACC
}

// Side returns the option side sold under the strategy.
func (s Strategy) Side() OptionType {
	if s == StrategyCCP {
		return OptionPut
	}
	return OptionCall
}

// Recommendation is the screening verdict.
type Recommendation string

const (
	RecommendYes Recommendation = "YES"
	RecommendNo  Recommendation = "NO"
)

// Quote is one side of a strike.
type Quote struct {
	LastPrice    float64 `json:"lastPrice"`
	OpenInterest int64   `json:"openInterest"`
	Change       float64 `json:"change"`
}

// StrikeRecord is one row of an option chain. A nil side means the exchange
// listed no quote for it.
type StrikeRecord struct {
	StrikePrice float64   `json:"strikePrice"`
	ExpiryDate  time.Time `json:"expiryDate"`
	Call        *Quote    `json:"CE,omitempty"`
	Put         *Quote    `json:"PE,omitempty"`
}

// QuoteFor returns the quote for the given side, or nil.
func (r StrikeRecord) QuoteFor(side OptionType) *Quote {
	if side == OptionPut {
		return r.Put
	}
	return r.Call
}

// OptionChain is a fetched chain spanning every listed expiry.
type OptionChain struct {
	Symbol      string         `json:"symbol"`
	ExpiryDates []time.Time    `json:"expiryDates"`
	Records     []StrikeRecord `json:"data"`
}

// AnalysisResult is the outcome of screening one symbol.
type AnalysisResult struct {
	Symbol         string         `json:"symbol"`
	OptionType     OptionType     `json:"optionType"`
	StrikePrice    float64        `json:"strikePrice"`
	OptionLTP      float64        `json:"optionLTP"`
	IntrinsicValue float64        `json:"intrinsicValue"`
	ExtrinsicValue float64        `json:"extrinsicValue"`
	EVPercentage   float64        `json:"evPercentage"`
	DaysToExpiry   int            `json:"daysToExpiry"`
	Recommendation Recommendation `json:"recommendation"`
	SpotPrice      float64        `json:"spotPrice"`
}

// MonthlyExpiry is a monthly expiry slot for a symbol.
type MonthlyExpiry struct {
	Month        int
	Date         time.Time
	DaysToExpiry int
}

// MarshalJSON renders the date as yyyy-mm-dd.
func (m MonthlyExpiry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Month        int    `json:"month"`
		Date         string `json:"date"`
		DaysToExpiry int    `json:"daysToExpiry"`
	}{m.Month, m.Date.Format(ISODateLayout), m.DaysToExpiry})
}
