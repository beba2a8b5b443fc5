package repositories

import (
	"context"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
)

// ExchangeRateReader defines read operations for exchange rate data
type ExchangeRateReader interface {
	// FindRateForDate retrieves the rate persisted for a pair on a
	// specific date and source. Direct pair only; inversion is the
	// service's concern.
	FindRateForDate(ctx context.Context, fromCode, toCode string, date time.Time, source domain.RateSource) (*domain.ExchangeRate, error)

	// FindLatestRate retrieves the most recent API-sourced rate for a pair.
	FindLatestRate(ctx context.Context, fromCode, toCode string) (*domain.ExchangeRate, error)

	// ListRatesForYear retrieves all API-sourced daily rates for a pair
	// within a calendar year, ordered by date.
	ListRatesForYear(ctx context.Context, fromCode, toCode string, year int) ([]domain.ExchangeRate, error)

	// LatestUpdatedAt returns the newest updated_at across all rate rows,
	// used for staleness checks.
	LatestUpdatedAt(ctx context.Context) (*time.Time, error)
}

// ExchangeRateWriter defines write operations for exchange rate data
type ExchangeRateWriter interface {
	// UpsertRate persists a rate, replacing any existing row for the same
	// (pair, date, source).
	UpsertRate(ctx context.Context, rate domain.ExchangeRate) error
}

// ExchangeRateRepositoryFacade combines all exchange rate-related repository interfaces
type ExchangeRateRepositoryFacade interface {
	ExchangeRateReader
	ExchangeRateWriter
}

// ExchangeRateRepositoryWithTx extends ExchangeRateRepositoryFacade with transaction capabilities
type ExchangeRateRepositoryWithTx interface {
	ExchangeRateRepositoryFacade
	TransactionManager
}
