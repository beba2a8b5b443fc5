package handlers

import (
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/middleware"
	"github.com/famvest/portfolio_tracker_app/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up all application routes, injecting dependencies
// through the service container interfaces.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	registerCustomValidations()

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific
// entity route registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
) {
	// API token auth attaches the member when a key is presented; mutating
	// routes additionally require one via RequireMember.
	v1 := r.Group("/api/v1", middleware.APITokenAuth(services.APIToken))

	registerAccountRoutes(v1, services.Account)
	registerTransactionRoutes(v1, services.Ledger)
	registerCurrencyRoutes(v1, services.Currency)
	registerExchangeRateRoutes(v1, services.Conversion)
	registerPositionRoutes(v1, services.Position, services.Valuation)
	registerPriceRoutes(v1, services.PriceHistory)
	registerAnalysisRoutes(v1, services.PeriodAnalyzer, services.Portfolio, services.AnalysisCache)
	registerCacheRoutes(v1, services.AnalysisCache, services.PriceHistory)
	registerAPITokenRoutes(v1, services.APIToken)
}
