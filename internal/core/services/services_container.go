package services

import (
	"github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/platform/config"
	"github.com/shopspring/decimal"
)

// NewServiceContainer wires every service with its dependencies, bottom-up:
// conversion and price history first, then the lot engine, then the
// valuation and analysis layers that compose them.
func NewServiceContainer(
	cfg *config.Config,
	repos repositories.RepositoryProvider,
	priceProvider portssvc.PriceProvider,
	fxProvider portssvc.FXProvider,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Currency = NewCurrencyService(repos.CurrencyRepo)
	container.Conversion = NewConversionService(repos.ExchangeRateRepo, fxProvider, conversionConfigFrom(cfg))
	container.PriceHistory = NewPriceHistoryService(repos.PriceRepo, priceProvider, priceHistoryConfigFrom(cfg))

	container.Position = NewPositionService(repos.TransactionRepo, container.PriceHistory)
	container.Valuation = NewValuationService(container.Position, repos.AccountRepo, repos.TransactionRepo, container.Conversion)
	container.Portfolio = NewPortfolioService(container.Position, repos.TransactionRepo, container.Conversion)
	container.PeriodAnalyzer = NewPeriodAnalyzerService(container.Valuation, container.Position, repos.TransactionRepo, container.Conversion)

	container.AnalysisCache = NewAnalysisCacheService(repos.AnalysisCacheRepo, repos.UpstreamRepo, cfg.AnalysisMemoryTTL)
	container.Ledger = NewLedgerService(repos.TransactionRepo, repos.AccountRepo, container.AnalysisCache)

	container.Account = NewAccountService(repos.AccountRepo)
	container.APIToken = NewAPITokenService(repos.APITokenRepo)

	return container
}

func conversionConfigFrom(cfg *config.Config) ConversionConfig {
	conv := DefaultConversionConfig()
	if cfg.ConversionMemoryTTL > 0 {
		conv.MemoryTTL = cfg.ConversionMemoryTTL
	}
	if rate, err := decimal.NewFromString(cfg.DefaultUSDCADRate); err == nil && rate.IsPositive() {
		conv.DefaultRates["USD/CAD"] = rate
	}
	if rate, err := decimal.NewFromString(cfg.DefaultCADUSDRate); err == nil && rate.IsPositive() {
		conv.DefaultRates["CAD/USD"] = rate
	}
	return conv
}

func priceHistoryConfigFrom(cfg *config.Config) PriceHistoryConfig {
	prices := DefaultPriceHistoryConfig()
	if cfg.PriceCoverageThreshold > 0 {
		prices.CoverageThreshold = cfg.PriceCoverageThreshold
	}
	if cfg.PriceGapExpansionDays > 0 {
		prices.GapExpansionDays = cfg.PriceGapExpansionDays
	}
	if cfg.HolidayPromotionCount > 0 {
		prices.HolidayPromotionCount = cfg.HolidayPromotionCount
	}
	if cfg.NearestCloseWindowDays > 0 {
		prices.NearestCloseWindowDays = cfg.NearestCloseWindowDays
	}
	return prices
}
