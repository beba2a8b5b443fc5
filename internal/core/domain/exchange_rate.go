package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSource distinguishes where a persisted exchange rate came from.
type RateSource string

const (
	RateSourceAPI           RateSource = "API"
	RateSourceAnnualAverage RateSource = "ANNUAL_AVERAGE"
)

// ExchangeRate stores the conversion rate between two currencies for a
// specific date. Rows are unique per (pair, date, source).
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"` // Primary Key (UUID)
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	DateEffective    time.Time       `json:"dateEffective"` // Date-only, UTC
	Source           RateSource      `json:"source"`
	AuditFields
}
