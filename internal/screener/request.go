// Package screener runs the per-symbol screening pipeline: cache, spot price,
// option chain, monthly expiry slot, contract valuation.
package screener

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "options-screener/internal/errors"
	"options-screener/internal/models"
)

// DefaultMaxSymbols bounds the symbols accepted in one request.
const DefaultMaxSymbols = 50

var validate = validator.New()

// Request asks for one strategy and expiry slot across many symbols.
type Request struct {
	Symbols     []string `json:"symbols" validate:"required,min=1,dive,required"`
	Strategy    string   `json:"strategy" validate:"required,oneof=CCP ACC"`
	ExpiryMonth *int     `json:"expiryMonth" validate:"required,min=0,max=3"`
}

// NewRequest builds a request from already-typed values.
func NewRequest(symbols []string, strategy models.Strategy, expiryMonth int) Request {
	return Request{Symbols: symbols, Strategy: string(strategy), ExpiryMonth: &expiryMonth}
}

// Validate checks the request and reports the first problem as a
// ValidationError. maxSymbols <= 0 disables the size limit.
func (r Request) Validate(maxSymbols int) error {
	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if !apperrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return apperrors.NewValidationError("request", nil, err.Error())
		}
		return fieldError(fieldErrs[0])
	}
	if maxSymbols > 0 && len(r.Symbols) > maxSymbols {
		return apperrors.NewValidationError("symbols", len(r.Symbols),
			fmt.Sprintf("At most %d symbols can be screened per request", maxSymbols))
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	switch {
	case fe.StructField() == "Strategy":
		return apperrors.NewValidationError("strategy", fe.Value(), "Strategy must be CCP or ACC")
	case fe.StructField() == "ExpiryMonth":
		return apperrors.NewValidationError("expiryMonth", fe.Value(), "Expiry month must be 0, 1, 2, or 3")
	default:
		return apperrors.NewValidationError("symbols", fe.Value(), "Symbols array is required")
	}
}

// normalizedSymbols upper-cases and trims every symbol.
func (r Request) normalizedSymbols() []string {
	out := make([]string, len(r.Symbols))
	for i, s := range r.Symbols {
		out[i] = NormalizeSymbol(s)
	}
	return out
}

// NormalizeSymbol returns the canonical form of a trading symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// SymbolError reports why one symbol produced no result.
type SymbolError struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
	// Kind is the matching errors sentinel, kept out of the wire format.
	Kind error `json:"-"`
}

// Response holds the results of one screening run. Results are sorted by
// EVPercentage, highest first; Errors keep request order.
type Response struct {
	Results   []models.AnalysisResult `json:"results"`
	Errors    []SymbolError           `json:"errors,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}
