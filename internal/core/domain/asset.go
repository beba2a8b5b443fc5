package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashReconstructionMethod names how a historical cash figure was obtained.
type CashReconstructionMethod string

const (
	// CashFromLedger means the balance was read from the persisted cash
	// ledger (only valid for today or future dates).
	CashFromLedger CashReconstructionMethod = "LEDGER"
	// CashForwardReplay means the balance was rebuilt by replaying every
	// cash-moving transaction forward from zero.
	CashForwardReplay CashReconstructionMethod = "FORWARD_REPLAY"
	// CashReverseReplay means the balance was rebuilt by walking backward
	// from the known present-day balance.
	CashReverseReplay CashReconstructionMethod = "REVERSE_REPLAY"
)

// CashReconstruction carries provenance for a reconstructed cash balance.
// Incomplete user-entered history routinely drives the forward replay
// negative; that is a reconciliation signal, not an error, so it is
// reported instead of clamped.
type CashReconstruction struct {
	Method             CashReconstructionMethod `json:"method"`
	WentNegative       bool                     `json:"wentNegative"`
	NegativeFloor      decimal.Decimal          `json:"negativeFloor"` // Most negative running balance seen, zero if none
	OpeningSupplement  decimal.Decimal          `json:"openingSupplement"`
	HighConfidence     bool                     `json:"highConfidence"`
	SupplementCurrency string                   `json:"supplementCurrency,omitempty"`
}

// AssetSnapshot is the full valuation of one account at one date:
// stock market value plus cash, in native currencies and converted to
// the reporting currency.
type AssetSnapshot struct {
	AccountID string    `json:"accountID"`
	AsOfDate  time.Time `json:"asOfDate"`

	StockMarketValue decimal.Decimal `json:"stockMarketValue"` // Reporting currency

	CashBalances         map[string]decimal.Decimal `json:"cashBalances"` // Per native currency
	CashBalanceReporting decimal.Decimal            `json:"cashBalanceReporting"`

	TotalAssets decimal.Decimal `json:"totalAssets"` // StockMarketValue + CashBalanceReporting

	Positions      []PositionSnapshot `json:"positions,omitempty"`
	Reconstruction CashReconstruction `json:"reconstruction"`

	// DegradedSymbols lists symbols whose valuation failed; their value is
	// excluded from the totals but the snapshot itself still stands.
	DegradedSymbols []string `json:"degradedSymbols,omitempty"`
}
