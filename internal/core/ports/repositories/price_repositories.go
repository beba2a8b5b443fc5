package repositories

import (
	"context"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
)

// PriceHistoryReader defines read operations over the persisted price cache.
type PriceHistoryReader interface {
	// ListPrices returns the cached daily rows for a symbol within
	// [start, end], ordered by trade date ascending.
	ListPrices(ctx context.Context, symbol, currencyCode string, start, end time.Time) ([]domain.PricePoint, error)

	// FindNearestCloseOnOrBefore returns the most recent cached close at
	// or before date, apperrors.ErrNotFound when nothing is cached.
	FindNearestCloseOnOrBefore(ctx context.Context, symbol, currencyCode string, date time.Time) (*domain.PricePoint, error)

	// LatestTradeDate returns the newest cached trade date for a symbol.
	LatestTradeDate(ctx context.Context, symbol, currencyCode string) (*time.Time, error)

	// LatestUpdatedAt returns the newest updated_at across price rows for
	// the given symbols (all symbols when empty), for staleness checks.
	LatestUpdatedAt(ctx context.Context, symbols []string) (*time.Time, error)

	// Statistics summarises the cache population.
	Statistics(ctx context.Context) (*domain.PriceCacheStatistics, error)
}

// PriceHistoryWriter defines write operations for the persisted price cache.
type PriceHistoryWriter interface {
	// BulkUpsertPrices inserts or updates rows keyed by
	// (symbol, currency, trade_date).
	BulkUpsertPrices(ctx context.Context, points []domain.PricePoint) error
}

// MarketHolidayReader reads confirmed holidays and accumulated evidence.
type MarketHolidayReader interface {
	// ListHolidayDates returns confirmed holiday dates for a market
	// within [start, end].
	ListHolidayDates(ctx context.Context, market domain.Market, start, end time.Time) ([]time.Time, error)

	// IsHoliday reports whether date is a confirmed holiday for market.
	IsHoliday(ctx context.Context, market domain.Market, date time.Time) (bool, error)

	// CountAttemptSymbols returns how many distinct symbols have evidence
	// recorded for (market, date).
	CountAttemptSymbols(ctx context.Context, market domain.Market, date time.Time) (int, error)
}

// MarketHolidayWriter records evidence and promotes confirmed holidays.
type MarketHolidayWriter interface {
	// RecordAttempt stores one piece of holiday evidence; duplicate
	// (market, date, symbol) rows are ignored.
	RecordAttempt(ctx context.Context, attempt domain.HolidayAttempt) error

	// SaveHoliday promotes a date to a confirmed holiday; duplicates are
	// ignored.
	SaveHoliday(ctx context.Context, holiday domain.MarketHoliday) error
}

// PriceRepositoryFacade combines price cache and holiday repository interfaces.
type PriceRepositoryFacade interface {
	PriceHistoryReader
	PriceHistoryWriter
	MarketHolidayReader
	MarketHolidayWriter
}

// PriceRepositoryWithTx extends PriceRepositoryFacade with transaction capabilities
type PriceRepositoryWithTx interface {
	PriceRepositoryFacade
	TransactionManager
}
