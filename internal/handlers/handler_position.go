package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/famvest/portfolio_tracker_app/internal/apperrors"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// positionHandler exposes the lot engine and valuation service over HTTP.
type positionHandler struct {
	positionService  portssvc.PositionSvc
	valuationService portssvc.ValuationSvc
}

func newPositionHandler(ps portssvc.PositionSvc, vs portssvc.ValuationSvc) *positionHandler {
	return &positionHandler{positionService: ps, valuationService: vs}
}

// registerPositionRoutes registers position and valuation routes.
func registerPositionRoutes(rg *gin.RouterGroup, positionService portssvc.PositionSvc, valuationService portssvc.ValuationSvc) {
	h := newPositionHandler(positionService, valuationService)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("/:accountID/positions", h.listPositions)
		accounts.GET("/:accountID/positions/:symbol", h.getPosition)
		accounts.GET("/:accountID/snapshot", h.getAssetSnapshot)
	}
	rg.GET("/positions/:symbol", h.getTotalPosition)
}

// listPositions returns a snapshot for every symbol ever traded in the
// account, including fully-sold ones.
func (h *positionHandler) listPositions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	asOf, ok := parseOptionalDate(c, "asOf")
	if !ok {
		return
	}

	positions, err := h.positionService.ListPositions(c.Request.Context(), accountID, asOf)
	if err != nil {
		logger.Error("Failed to list positions", slog.String("error", err.Error()), slog.String("account_id", accountID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list positions"})
		return
	}

	c.JSON(http.StatusOK, positions)
}

// getPosition replays the ledger for one (account, symbol) pair.
func (h *positionHandler) getPosition(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")
	symbol := c.Param("symbol")

	asOf, ok := parseOptionalDate(c, "asOf")
	if !ok {
		return
	}

	position, err := h.positionService.GetPositionSnapshot(c.Request.Context(), symbol, accountID, asOf)
	if err != nil {
		logger.Error("Failed to compute position",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID),
			slog.String("symbol", symbol))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute position"})
		return
	}

	c.JSON(http.StatusOK, position)
}

// getTotalPosition merges one symbol's snapshots across accounts.
func (h *positionHandler) getTotalPosition(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	symbol := c.Param("symbol")

	accountIDs := splitAccountIDs(c.Query("accountIds"))
	if len(accountIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accountIds query parameter is required"})
		return
	}

	asOf, ok := parseOptionalDate(c, "asOf")
	if !ok {
		return
	}

	position, err := h.positionService.GetTotalPosition(c.Request.Context(), symbol, accountIDs, asOf)
	if err != nil {
		logger.Error("Failed to compute total position",
			slog.String("error", err.Error()),
			slog.String("symbol", symbol))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute total position"})
		return
	}

	c.JSON(http.StatusOK, position)
}

// getAssetSnapshot values an account at a date: stocks plus cash in the
// reporting currency.
func (h *positionHandler) getAssetSnapshot(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	asOf, ok := parseOptionalDate(c, "asOf")
	if !ok {
		return
	}

	snapshot, err := h.valuationService.GetAssetSnapshot(c.Request.Context(), accountID, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			logger.Error("Failed to value account", slog.String("error", err.Error()), slog.String("account_id", accountID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to value account"})
		}
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// splitAccountIDs parses the comma-separated accountIds query parameter.
func splitAccountIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
