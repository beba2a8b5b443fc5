package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/dto"
	"github.com/famvest/portfolio_tracker_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// cacheHandler exposes cache administration: statistics and invalidation
// for both the analysis cache and the price cache.
type cacheHandler struct {
	cacheService portssvc.AnalysisCacheSvc
	priceService portssvc.PriceHistorySvc
}

func newCacheHandler(cs portssvc.AnalysisCacheSvc, ps portssvc.PriceHistorySvc) *cacheHandler {
	return &cacheHandler{cacheService: cs, priceService: ps}
}

// registerCacheRoutes registers cache administration routes.
func registerCacheRoutes(rg *gin.RouterGroup, cacheService portssvc.AnalysisCacheSvc, priceService portssvc.PriceHistorySvc) {
	h := newCacheHandler(cacheService, priceService)

	cache := rg.Group("/cache")
	{
		cache.GET("/stats", h.getStatistics)
		cache.POST("/invalidate", middleware.RequireMember(), h.invalidate)
		cache.POST("/invalidate-all", middleware.RequireMember(), h.invalidateAll)
	}
}

// getStatistics reports the population of both persisted caches.
func (h *cacheHandler) getStatistics(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	analysisStats, err := h.cacheService.Statistics(c.Request.Context())
	if err != nil {
		logger.Error("Failed to read analysis cache statistics", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read cache statistics"})
		return
	}
	priceStats, err := h.priceService.CacheStatistics(c.Request.Context())
	if err != nil {
		logger.Error("Failed to read price cache statistics", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read cache statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analysisCache": analysisStats,
		"priceCache":    priceStats,
	})
}

// invalidate drops analysis entries scoped to one account.
func (h *cacheHandler) invalidate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.InvalidateCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if err := h.cacheService.Invalidate(c.Request.Context(), req.AccountID, req.FromDate); err != nil {
		logger.Error("Failed to invalidate cache", slog.String("error", err.Error()), slog.String("account_id", req.AccountID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to invalidate cache"})
		return
	}

	c.Status(http.StatusNoContent)
}

// invalidateAll drops every analysis entry, memory and persisted.
func (h *cacheHandler) invalidateAll(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if err := h.cacheService.InvalidateAll(c.Request.Context()); err != nil {
		logger.Error("Failed to invalidate all cache entries", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to invalidate cache"})
		return
	}
	c.Status(http.StatusNoContent)
}
