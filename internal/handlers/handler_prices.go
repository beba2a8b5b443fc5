package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/core/services"
	"github.com/famvest/portfolio_tracker_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// priceHandler exposes the historical price cache.
type priceHandler struct {
	priceService portssvc.PriceHistorySvc
}

func newPriceHandler(ps portssvc.PriceHistorySvc) *priceHandler {
	return &priceHandler{priceService: ps}
}

// registerPriceRoutes registers price history routes.
func registerPriceRoutes(rg *gin.RouterGroup, priceService portssvc.PriceHistorySvc) {
	h := newPriceHandler(priceService)

	prices := rg.Group("/prices")
	{
		prices.GET("/:symbol/history", h.getHistory)
		prices.GET("/:symbol/close", h.getNearestClose)
	}
}

// getHistory returns the daily series for a symbol over [from, to].
func (h *priceHandler) getHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	symbol := c.Param("symbol")
	currency := strings.ToUpper(c.DefaultQuery("currency", "USD"))

	if c.Query("from") == "" || c.Query("to") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to query parameters are required"})
		return
	}
	from, ok := parseOptionalDate(c, "from")
	if !ok {
		return
	}
	to, ok := parseOptionalDate(c, "to")
	if !ok {
		return
	}
	if from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return
	}

	points, err := h.priceService.GetHistory(c.Request.Context(), symbol, currency, from, to)
	if err != nil {
		logger.Error("Failed to load price history",
			slog.String("error", err.Error()),
			slog.String("symbol", symbol))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load price history"})
		return
	}

	c.JSON(http.StatusOK, points)
}

// getNearestClose resolves the close at or before a date.
func (h *priceHandler) getNearestClose(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	symbol := c.Param("symbol")
	currency := strings.ToUpper(c.DefaultQuery("currency", "USD"))

	date, ok := parseOptionalDate(c, "date")
	if !ok {
		return
	}

	price, err := h.priceService.NearestClose(c.Request.Context(), symbol, currency, date)
	if err != nil {
		if errors.Is(err, services.ErrPriceUnavailable) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No usable close for symbol near date"})
		} else {
			logger.Error("Failed to resolve close",
				slog.String("error", err.Error()),
				slog.String("symbol", symbol))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve close"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":       symbol,
		"currencyCode": currency,
		"date":         date.Format("2006-01-02"),
		"close":        price,
	})
}
