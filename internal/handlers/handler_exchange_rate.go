package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/dto"
	"github.com/famvest/portfolio_tracker_app/internal/middleware"
	"github.com/famvest/portfolio_tracker_app/internal/utils/accounting"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// exchangeRateHandler exposes the conversion service over HTTP.
type exchangeRateHandler struct {
	conversionService portssvc.ConversionSvc
}

func newExchangeRateHandler(cs portssvc.ConversionSvc) *exchangeRateHandler {
	return &exchangeRateHandler{conversionService: cs}
}

// registerExchangeRateRoutes registers exchange rate and conversion routes.
func registerExchangeRateRoutes(rg *gin.RouterGroup, conversionService portssvc.ConversionSvc) {
	h := newExchangeRateHandler(conversionService)

	rates := rg.Group("/rates")
	{
		rates.GET("", h.getRate)
		rates.GET("/annual", h.getAnnualAverageRate)
		rates.GET("/convert", h.convertAmount)
		rates.POST("/refresh", middleware.RequireMember(), h.refreshRates)
	}
}

// getRate resolves the rate for a pair on a date (today when omitted).
func (h *exchangeRateHandler) getRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	from := c.Query("from")
	to := c.Query("to")
	if len(from) != 3 || len(to) != 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be 3-letter currency codes"})
		return
	}

	date, ok := parseOptionalDate(c, "date")
	if !ok {
		return
	}

	rate, err := h.conversionService.Rate(c.Request.Context(), from, to, date)
	if err != nil {
		logger.Error("Failed to resolve rate", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve exchange rate"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fromCurrencyCode": from,
		"toCurrencyCode":   to,
		"rate":             rate,
		"date":             date.Format("2006-01-02"),
	})
}

// getAnnualAverageRate resolves the average rate for a calendar year.
func (h *exchangeRateHandler) getAnnualAverageRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	from := c.Query("from")
	to := c.Query("to")
	if len(from) != 3 || len(to) != 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be 3-letter currency codes"})
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 1970 || year > time.Now().Year() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a valid past or current year"})
		return
	}

	rate, err := h.conversionService.AnnualAverageRate(c.Request.Context(), from, to, year)
	if err != nil {
		logger.Error("Failed to resolve annual average rate", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve annual average rate"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fromCurrencyCode": from,
		"toCurrencyCode":   to,
		"rate":             rate,
		"year":             year,
	})
}

// convertAmount converts an amount between currencies at a date's rate.
func (h *exchangeRateHandler) convertAmount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	from := c.Query("from")
	to := c.Query("to")
	if len(from) != 3 || len(to) != 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be 3-letter currency codes"})
		return
	}

	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a decimal number"})
		return
	}

	date, ok := parseOptionalDate(c, "date")
	if !ok {
		return
	}

	rate, err := h.conversionService.Rate(c.Request.Context(), from, to, date)
	if err != nil {
		logger.Error("Failed to resolve rate for conversion", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to convert amount"})
		return
	}

	c.JSON(http.StatusOK, dto.ConvertAmountResponse{
		FromCurrencyCode: from,
		ToCurrencyCode:   to,
		Amount:           amount,
		Converted:        accounting.RoundMoney(amount.Mul(rate)),
		Rate:             rate,
		Date:             date,
	})
}

// refreshRates fetches and persists today's rates for the household pairs.
func (h *exchangeRateHandler) refreshRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if err := h.conversionService.RefreshDailyRates(c.Request.Context()); err != nil {
		logger.Error("Failed to refresh daily rates", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh rates"})
		return
	}
	c.Status(http.StatusNoContent)
}

// parseOptionalDate reads a YYYY-MM-DD query parameter, defaulting to zero
// (today, to the services). It writes the error response itself.
func parseOptionalDate(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return domain.Today(), true
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return date, true
}
