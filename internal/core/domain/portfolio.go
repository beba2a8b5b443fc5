package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyBreakdown splits portfolio figures by trading currency, with a
// combined total in the reporting currency.
type CurrencyBreakdown struct {
	StockValue     map[string]decimal.Decimal `json:"stockValue"`
	RealizedGain   map[string]decimal.Decimal `json:"realizedGain"`
	UnrealizedGain map[string]decimal.Decimal `json:"unrealizedGain"`
	Dividends      map[string]decimal.Decimal `json:"dividends"`
	Interest       map[string]decimal.Decimal `json:"interest"`
	Deposits       map[string]decimal.Decimal `json:"deposits"`
	Withdrawals    map[string]decimal.Decimal `json:"withdrawals"`

	TotalStockValueReporting     decimal.Decimal `json:"totalStockValueReporting"`
	TotalRealizedGainReporting   decimal.Decimal `json:"totalRealizedGainReporting"`
	TotalUnrealizedGainReporting decimal.Decimal `json:"totalUnrealizedGainReporting"`
}

// AllocationSlice is one symbol's (or currency's) share of the portfolio.
type AllocationSlice struct {
	Key        string          `json:"key"` // Symbol or currency code
	Value      decimal.Decimal `json:"value"`
	Percentage decimal.Decimal `json:"percentage"`
}

// PortfolioSummary is the household-level view over a set of accounts:
// live holdings merged per symbol, cleared holdings, and aggregate totals.
type PortfolioSummary struct {
	AccountIDs []string  `json:"accountIDs"`
	AsOfDate   time.Time `json:"asOfDate"`

	Holdings        []PositionSnapshot `json:"holdings"` // Merged per symbol, positive shares only
	ClearedHoldings []ClearedPosition  `json:"clearedHoldings"`

	TotalMarketValue    decimal.Decimal `json:"totalMarketValue"` // Reporting currency
	TotalCost           decimal.Decimal `json:"totalCost"`
	TotalRealizedGain   decimal.Decimal `json:"totalRealizedGain"`
	TotalUnrealizedGain decimal.Decimal `json:"totalUnrealizedGain"`
	TotalDividends      decimal.Decimal `json:"totalDividends"`

	Breakdown          CurrencyBreakdown  `json:"breakdown"`
	CurrencyAllocation []AllocationSlice  `json:"currencyAllocation"`
	TopPerformers      []PositionSnapshot `json:"topPerformers,omitempty"`
	WorstPerformers    []PositionSnapshot `json:"worstPerformers,omitempty"`
}
