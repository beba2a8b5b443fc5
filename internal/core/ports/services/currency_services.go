package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	"github.com/famvest/portfolio_tracker_app/internal/dto"
)

// CurrencyReaderSvc defines read operations for currency reference data
type CurrencyReaderSvc interface {
	// GetCurrencyByCode retrieves a specific currency by its code.
	GetCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error)

	// ListCurrencies retrieves all available currencies.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}

// CurrencyWriterSvc defines write operations for currency reference data
type CurrencyWriterSvc interface {
	// CreateCurrency persists a new currency.
	CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, creatorMemberID string) (*domain.Currency, error)
}

// CurrencySvcFacade combines all currency-related service interfaces
type CurrencySvcFacade interface {
	CurrencyReaderSvc
	CurrencyWriterSvc
}

// ConversionSvc supplies exchange rates with the provider→cache→default
// fallback chain and performs monetary conversions.
type ConversionSvc interface {
	// Rate resolves the rate for a pair on a date (today when zero).
	// Same-currency pairs resolve to 1 without any lookup.
	Rate(ctx context.Context, fromCode, toCode string, date time.Time) (decimal.Decimal, error)

	// AnnualAverageRate resolves the average rate for a calendar year.
	AnnualAverageRate(ctx context.Context, fromCode, toCode string, year int) (decimal.Decimal, error)

	// Convert applies Rate to an amount. Full precision; display rounding
	// is the caller's concern.
	Convert(ctx context.Context, amount decimal.Decimal, fromCode, toCode string, date time.Time) (decimal.Decimal, error)

	// RefreshDailyRates fetches and persists today's rates for the
	// household's currency pairs. Used by the scheduler.
	RefreshDailyRates(ctx context.Context) error
}
