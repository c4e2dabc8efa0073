package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "options-screener/internal/errors"
	"options-screener/internal/logging"
	"options-screener/internal/marketdata"
	"options-screener/internal/models"
	"options-screener/internal/resilience"
	"options-screener/internal/screener"
	"options-screener/internal/universe"
	"options-screener/pkg/utils"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type stocksResponse struct {
	Success bool                `json:"success"`
	Stocks  []models.Instrument `json:"stocks"`
}

type screenResponse struct {
	Success bool `json:"success"`
	*screener.Response
}

type expiriesResponse struct {
	Success  bool                   `json:"success"`
	Symbol   string                 `json:"symbol"`
	Expiries []models.MonthlyExpiry `json:"expiries"`
}

type healthResponse struct {
	Status    string              `json:"status"`
	Timestamp string              `json:"timestamp"`
	Market    models.MarketStatus `json:"market"`
	Source    string              `json:"source"`
	Breakers  *breakerSummary     `json:"circuitBreakers,omitempty"`
}

type breakerSummary struct {
	Tracked int                              `json:"tracked"`
	Tripped []resilience.CircuitBreakerStats `json:"tripped"`
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Success: false, Error: msg})
}

func (s *Server) health(c *gin.Context) {
	now := s.now()
	resp := healthResponse{
		Status:    "OK",
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Market:    utils.MarketStatusAt(now),
		Source:    s.pipeline.Source().Name(),
	}
	if rs, ok := s.pipeline.Source().(*marketdata.ResilientSource); ok {
		resp.Breakers = &breakerSummary{
			Tracked: rs.Breakers().Len(),
			Tripped: rs.Breakers().Tripped(),
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listStocks(c *gin.Context) {
	c.JSON(http.StatusOK, stocksResponse{Success: true, Stocks: universe.Instruments()})
}

func (s *Server) screen(c *gin.Context) {
	var req screener.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, bindErrorMessage(err))
		return
	}

	resp, err := s.pipeline.Run(c.Request.Context(), req)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidRequest) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		logging.FromContext(c.Request.Context()).Error().Err(err).Msg("Screen failed")
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, screenResponse{Success: true, Response: resp})
}

func (s *Server) expiries(c *gin.Context) {
	symbol := screener.NormalizeSymbol(c.Param("symbol"))

	expiries, err := s.pipeline.MonthlyExpiries(c.Request.Context(), symbol)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrDataUnavailable) {
			fail(c, http.StatusNotFound, err.Error())
			return
		}
		logging.FromContext(c.Request.Context()).Error().Err(err).Str("symbol", symbol).Msg("Expiries failed")
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, expiriesResponse{Success: true, Symbol: symbol, Expiries: expiries})
}

// bindErrorMessage maps a JSON decoding failure to the validation message of
// the offending field.
func bindErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		switch typeErr.Field {
		case "strategy":
			return "Strategy must be CCP or ACC"
		case "expiryMonth":
			return "Expiry month must be 0, 1, 2, or 3"
		default:
			return "Symbols array is required"
		}
	}
	if errors.Is(err, io.EOF) {
		return "Symbols array is required"
	}
	return "Invalid JSON body"
}
