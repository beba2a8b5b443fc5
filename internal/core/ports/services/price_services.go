package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
)

// PriceHistorySvc is the staleness-aware historical price cache. Reads are
// always served from persisted rows; provider fetches only ever top up the
// cache.
type PriceHistorySvc interface {
	// GetHistory returns the daily series for [start, end], refreshing
	// from the provider first when coverage is insufficient.
	GetHistory(ctx context.Context, symbol, currencyCode string, start, end time.Time) ([]domain.PricePoint, error)

	// NearestClose returns the close at or before date, walking back over
	// weekends and holidays up to a small window. ErrPriceUnavailable
	// when nothing usable exists.
	NearestClose(ctx context.Context, symbol, currencyCode string, date time.Time) (decimal.Decimal, error)

	// CacheStatistics summarises the persisted cache.
	CacheStatistics(ctx context.Context) (*domain.PriceCacheStatistics, error)

	// RefreshSymbols tops up the recent window for the given symbols.
	// Used by the scheduler.
	RefreshSymbols(ctx context.Context, symbols map[string]string) error
}

// PriceProvider is the outbound port for daily stock history. An empty
// series is "no data", not an error; hard failures are wrapped provider
// errors so the cache layer can degrade gracefully.
type PriceProvider interface {
	DailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error)
}

// FXProvider is the outbound port for currency rates.
type FXProvider interface {
	// Rate fetches the current rate for a pair.
	Rate(ctx context.Context, fromCode, toCode string) (decimal.Decimal, error)

	// DailyRates fetches a daily rate series for a pair, used to compute
	// annual averages when no official figure is persisted.
	DailyRates(ctx context.Context, fromCode, toCode string, start, end time.Time) (map[time.Time]decimal.Decimal, error)
}
