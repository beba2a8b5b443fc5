package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the DB row for one ledger entry.
type Transaction struct {
	TransactionID string          `db:"transaction_id"`
	AccountID     string          `db:"account_id"`
	TradeDate     time.Time       `db:"trade_date"`
	Type          string          `db:"txn_type"`
	Symbol        string          `db:"symbol"` // Empty for cash-only entries
	Quantity      decimal.Decimal `db:"quantity"`
	Price         decimal.Decimal `db:"price"`
	Fee           decimal.Decimal `db:"fee"`
	Amount        decimal.Decimal `db:"amount"`
	CurrencyCode  string          `db:"currency_code"`
	Notes         string          `db:"notes"`
	AuditFields
}
