package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/dto"
	"github.com/famvest/portfolio_tracker_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// analysisHandler exposes the period analyzer and portfolio summary, both
// memoized through the analysis cache.
type analysisHandler struct {
	periodService    portssvc.PeriodAnalyzerSvc
	portfolioService portssvc.PortfolioSvc
	cacheService     portssvc.AnalysisCacheSvc
}

func newAnalysisHandler(ps portssvc.PeriodAnalyzerSvc, pf portssvc.PortfolioSvc, cs portssvc.AnalysisCacheSvc) *analysisHandler {
	return &analysisHandler{
		periodService:    ps,
		portfolioService: pf,
		cacheService:     cs,
	}
}

// registerAnalysisRoutes registers portfolio and period analysis routes.
func registerAnalysisRoutes(rg *gin.RouterGroup, periodService portssvc.PeriodAnalyzerSvc, portfolioService portssvc.PortfolioSvc, cacheService portssvc.AnalysisCacheSvc) {
	h := newAnalysisHandler(periodService, portfolioService, cacheService)

	analysis := rg.Group("/analysis")
	{
		analysis.GET("/portfolio", h.getPortfolioSummary)
		analysis.GET("/period", h.getPeriodStats)
		analysis.GET("/periods", h.getPeriodSeries)
	}
}

// getPortfolioSummary merges holdings per symbol across accounts.
func (h *analysisHandler) getPortfolioSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accountIDs := splitAccountIDs(c.Query("accountIds"))
	if len(accountIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accountIds query parameter is required"})
		return
	}
	asOf, ok := parseOptionalDate(c, "asOf")
	if !ok {
		return
	}

	params := map[string]string{"asOf": asOf.Format("2006-01-02")}
	payload, err := h.cacheService.GetOrCompute(c.Request.Context(), domain.CachePortfolioSummary, accountIDs, params,
		func(ctx context.Context) (json.RawMessage, error) {
			summary, err := h.portfolioService.GetPortfolioSummary(ctx, accountIDs, asOf)
			if err != nil {
				return nil, err
			}
			return json.Marshal(summary)
		})
	if err != nil {
		logger.Error("Failed to compute portfolio summary", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute portfolio summary"})
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// getPeriodStats computes statistics for one reporting window.
func (h *analysisHandler) getPeriodStats(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.PeriodStatsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	accountIDs := splitAccountIDs(params.AccountIDs)
	if len(accountIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accountIds query parameter is required"})
		return
	}

	period, cacheType, err := resolvePeriod(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, err := h.cacheService.GetOrCompute(c.Request.Context(), cacheType, accountIDs, period,
		func(ctx context.Context) (json.RawMessage, error) {
			stats, err := h.periodService.GetPeriodStats(ctx, accountIDs, period)
			if err != nil {
				return nil, err
			}
			return json.Marshal(stats)
		})
	if err != nil {
		logger.Error("Failed to compute period stats",
			slog.String("error", err.Error()),
			slog.String("period", period.Label))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute period statistics"})
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// getPeriodSeries computes sub-window statistics for a year: its quarters
// by default, its months with breakdown=month.
func (h *analysisHandler) getPeriodSeries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accountIDs := splitAccountIDs(c.Query("accountIds"))
	if len(accountIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accountIds query parameter is required"})
		return
	}

	year := time.Now().UTC().Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := time.Parse("2006", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a 4-digit year"})
			return
		}
		year = parsed.Year()
	}

	breakdown := c.DefaultQuery("breakdown", "quarter")
	var periods []domain.Period
	var cacheType domain.AnalysisCacheType
	switch breakdown {
	case "quarter":
		periods = domain.QuartersOfYear(year)
		cacheType = domain.CacheQuarterlyAnalysis
	case "month":
		periods = domain.MonthsOfYear(year)
		cacheType = domain.CacheMonthlyAnalysis
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "breakdown must be quarter or month"})
		return
	}

	params := map[string]any{"year": year, "breakdown": breakdown}
	payload, err := h.cacheService.GetOrCompute(c.Request.Context(), cacheType, accountIDs, params,
		func(ctx context.Context) (json.RawMessage, error) {
			series, err := h.periodService.GetPeriodSeries(ctx, accountIDs, periods)
			if err != nil {
				return nil, err
			}
			return json.Marshal(series)
		})
	if err != nil {
		logger.Error("Failed to compute period series", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute period series"})
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// resolvePeriod maps the query parameters onto one reporting window and the
// cache family it belongs to. Precedence: custom dates, days, month,
// quarter, year.
func resolvePeriod(params dto.PeriodStatsParams) (domain.Period, domain.AnalysisCacheType, error) {
	switch {
	case params.StartDate != "" || params.EndDate != "":
		start, err := time.Parse("2006-01-02", params.StartDate)
		if err != nil {
			return domain.Period{}, "", errors.New("startDate must be YYYY-MM-DD")
		}
		end, err := time.Parse("2006-01-02", params.EndDate)
		if err != nil {
			return domain.Period{}, "", errors.New("endDate must be YYYY-MM-DD")
		}
		if end.Before(start) {
			return domain.Period{}, "", errors.New("endDate precedes startDate")
		}
		return domain.CustomPeriod(start, end), domain.CacheDailyAnalysis, nil
	case params.Days > 0:
		return domain.TrailingPeriod(params.Days), domain.CacheDailyAnalysis, nil
	case params.Month > 0:
		if params.Year == 0 {
			return domain.Period{}, "", errors.New("month requires year")
		}
		return domain.MonthPeriod(params.Year, params.Month), domain.CacheMonthlyAnalysis, nil
	case params.Quarter > 0:
		if params.Year == 0 {
			return domain.Period{}, "", errors.New("quarter requires year")
		}
		return domain.QuarterPeriod(params.Year, params.Quarter), domain.CacheQuarterlyAnalysis, nil
	case params.Year > 0:
		return domain.YearPeriod(params.Year), domain.CacheAnnualAnalysis, nil
	default:
		return domain.Period{}, "", errors.New("one of year, quarter, month, days or startDate/endDate is required")
	}
}
