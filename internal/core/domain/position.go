package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a chunk of shares acquired by one BUY and consumed oldest-first
// by later sells. Lots are ephemeral: they are rebuilt from the ledger on
// every snapshot and never persisted.
type Lot struct {
	QuantityRemaining decimal.Decimal `json:"quantityRemaining"`
	CostPerShare      decimal.Decimal `json:"costPerShare"` // Includes the per-share slice of the buy fee
	AcquisitionDate   time.Time       `json:"acquisitionDate"`
}

// CostBasis is this lot's remaining share of the original purchase cost.
func (l Lot) CostBasis() decimal.Decimal {
	return l.QuantityRemaining.Mul(l.CostPerShare)
}

// PositionSnapshot is the derived state of one (account, symbol) pair at a
// point in time, produced by replaying the ledger through the FIFO lot
// queue. It is recomputed on demand, never stored.
type PositionSnapshot struct {
	Symbol    string    `json:"symbol"`
	AccountID string    `json:"accountID"`
	AsOfDate  time.Time `json:"asOfDate"`

	CurrentShares decimal.Decimal `json:"currentShares"`
	AverageCost   decimal.Decimal `json:"averageCost"`
	TotalCost     decimal.Decimal `json:"totalCost"` // Cost basis of the remaining lots

	TotalBoughtShares decimal.Decimal `json:"totalBoughtShares"`
	TotalBoughtValue  decimal.Decimal `json:"totalBoughtValue"` // Gross + fees
	TotalSoldShares   decimal.Decimal `json:"totalSoldShares"`
	TotalSoldValue    decimal.Decimal `json:"totalSoldValue"` // Gross - fees

	RealizedGain   decimal.Decimal `json:"realizedGain"`
	UnrealizedGain decimal.Decimal `json:"unrealizedGain"`

	CurrentPrice decimal.Decimal `json:"currentPrice"`
	CurrentValue decimal.Decimal `json:"currentValue"`
	PriceStale   bool            `json:"priceStale"` // No usable price was found for AsOfDate

	TotalDividends decimal.Decimal `json:"totalDividends"`
	TotalInterest  decimal.Decimal `json:"totalInterest"`

	CurrencyCode string `json:"currencyCode"`

	// Remaining lots after replay, oldest first. Useful for drill-down
	// views and for tests; not persisted.
	Lots []Lot `json:"lots,omitempty"`
}

// UnrealizedGainPct is the unrealized gain relative to remaining cost
// basis, zero when nothing is invested.
func (p PositionSnapshot) UnrealizedGainPct() decimal.Decimal {
	if p.TotalCost.IsZero() {
		return decimal.Zero
	}
	return p.UnrealizedGain.Div(p.TotalCost).Mul(decimal.NewFromInt(100))
}

// ClearedPosition summarises a symbol that was fully sold out of an
// account: zero shares held but trade history worth reporting.
type ClearedPosition struct {
	Symbol          string          `json:"symbol"`
	AccountID       string          `json:"accountID,omitempty"` // Empty when merged across accounts
	TotalBought     decimal.Decimal `json:"totalBought"`
	TotalSold       decimal.Decimal `json:"totalSold"`
	RealizedGain    decimal.Decimal `json:"realizedGain"`
	RealizedGainPct decimal.Decimal `json:"realizedGainPct"`
	TotalDividends  decimal.Decimal `json:"totalDividends"`
	CurrencyCode    string          `json:"currencyCode"`
}
