package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is the DB row for one daily OHLC record.
type PricePoint struct {
	Symbol       string          `db:"symbol"`
	CurrencyCode string          `db:"currency_code"`
	TradeDate    time.Time       `db:"trade_date"`
	Open         decimal.Decimal `db:"open"`
	High         decimal.Decimal `db:"high"`
	Low          decimal.Decimal `db:"low"`
	Close        decimal.Decimal `db:"close"`
	Volume       int64           `db:"volume"`
	AuditFields
}

// MarketHoliday is the DB row for a confirmed non-trading weekday.
type MarketHoliday struct {
	Market      string    `db:"market"`
	HolidayDate time.Time `db:"holiday_date"`
	Name        string    `db:"name"`
	AuditFields
}

// HolidayAttempt is the DB row for one piece of holiday evidence.
type HolidayAttempt struct {
	Market      string    `db:"market"`
	HolidayDate time.Time `db:"holiday_date"`
	Symbol      string    `db:"symbol"`
	RecordedAt  time.Time `db:"recorded_at"`
}
