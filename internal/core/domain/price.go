package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Market identifies which exchange calendar a symbol trades on.
type Market string

const (
	MarketUS Market = "US"
	MarketCA Market = "CA"
)

// MarketForSymbol classifies a symbol by its suffix, falling back to the
// trading currency. Toronto-listed tickers carry .TO/.TSX/.V/.CN suffixes.
func MarketForSymbol(symbol, currencyCode string) Market {
	upper := strings.ToUpper(symbol)
	for _, suffix := range []string{".TO", ".TSX", ".V", ".CN"} {
		if strings.HasSuffix(upper, suffix) {
			return MarketCA
		}
	}
	if strings.EqualFold(currencyCode, "CAD") {
		return MarketCA
	}
	return MarketUS
}

// PricePoint is one persisted daily OHLC record for a symbol.
type PricePoint struct {
	Symbol       string          `json:"symbol"`
	CurrencyCode string          `json:"currencyCode"`
	TradeDate    time.Time       `json:"tradeDate"` // Date-only, UTC
	Open         decimal.Decimal `json:"open"`
	High         decimal.Decimal `json:"high"`
	Low          decimal.Decimal `json:"low"`
	Close        decimal.Decimal `json:"close"`
	Volume       int64           `json:"volume"`
	AuditFields
}

// MarketHoliday is a confirmed non-trading weekday for a market. Confirmed
// holidays are excluded from coverage and gap analysis.
type MarketHoliday struct {
	Market      Market    `json:"market"`
	HolidayDate time.Time `json:"holidayDate"`
	Name        string    `json:"name,omitempty"`
	AuditFields
}

// HolidayAttempt records one piece of evidence that a date is a market
// holiday: a provider fetch covering the date returned no row for it while
// neighbouring days had data. Enough distinct symbols promote the date to
// a MarketHoliday.
type HolidayAttempt struct {
	Market      Market    `json:"market"`
	HolidayDate time.Time `json:"holidayDate"`
	Symbol      string    `json:"symbol"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// PriceCacheStatistics summarises the state of the persisted price cache.
type PriceCacheStatistics struct {
	TotalRows         int64            `json:"totalRows"`
	SymbolCount       int64            `json:"symbolCount"`
	EarliestDate      *time.Time       `json:"earliestDate,omitempty"`
	LatestDate        *time.Time       `json:"latestDate,omitempty"`
	RowsPerSymbol     map[string]int64 `json:"rowsPerSymbol,omitempty"`
	ConfirmedHolidays map[Market]int64 `json:"confirmedHolidays,omitempty"`
}
