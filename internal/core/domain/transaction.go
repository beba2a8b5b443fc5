package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	Buy        TransactionType = "BUY"
	Sell       TransactionType = "SELL"
	Dividend   TransactionType = "DIVIDEND"
	Interest   TransactionType = "INTEREST"
	Deposit    TransactionType = "DEPOSIT"
	Withdrawal TransactionType = "WITHDRAWAL"
	Fee        TransactionType = "FEE"
)

// Transaction is a single entry in an account's ledger. Transactions are
// append-mostly: edits and deletes exist but always trigger recomputation
// of everything derived downstream.
//
// For BUY/SELL the Quantity/Price/Fee fields are authoritative and Amount
// is ignored. For the cash types (DEPOSIT, WITHDRAWAL, DIVIDEND, INTEREST,
// FEE) Amount is authoritative. Symbol is empty for pure cash entries.
type Transaction struct {
	TransactionID string          `json:"transactionID"` // Primary Key (UUID)
	AccountID     string          `json:"accountID"`     // FK -> Account.accountID (Not Null)
	TradeDate     time.Time       `json:"tradeDate"`     // Date-only, UTC
	Type          TransactionType `json:"type"`
	Symbol        string          `json:"symbol,omitempty"` // Empty for non-stock entries
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Fee           decimal.Decimal `json:"fee"`
	Amount        decimal.Decimal `json:"amount"` // Authoritative for cash-type entries
	CurrencyCode  string          `json:"currencyCode"`
	Notes         string          `json:"notes,omitempty"`
	AuditFields
}

// IsStockTrade reports whether the entry moves shares through the lot queue.
func (t Transaction) IsStockTrade() bool {
	return t.Type == Buy || t.Type == Sell
}

// GrossAmount is quantity*price for a trade, before fees.
func (t Transaction) GrossAmount() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}

// NetAmount is the cash the entry actually moves: for a BUY the gross plus
// fee, for a SELL the gross minus fee, otherwise the declared Amount.
func (t Transaction) NetAmount() decimal.Decimal {
	switch t.Type {
	case Buy:
		return t.GrossAmount().Add(t.Fee)
	case Sell:
		return t.GrossAmount().Sub(t.Fee)
	default:
		return t.Amount
	}
}

// CashImpact is the signed effect of the entry on the account's cash
// balance in the entry's own currency.
func (t Transaction) CashImpact() decimal.Decimal {
	switch t.Type {
	case Deposit, Dividend, Interest:
		return t.Amount
	case Withdrawal, Fee:
		return t.Amount.Neg()
	case Buy:
		return t.NetAmount().Neg()
	case Sell:
		return t.NetAmount()
	default:
		return decimal.Zero
	}
}

// ValidTransactionType reports whether s is one of the known ledger types.
func ValidTransactionType(s string) bool {
	switch TransactionType(s) {
	case Buy, Sell, Dividend, Interest, Deposit, Withdrawal, Fee:
		return true
	}
	return false
}
