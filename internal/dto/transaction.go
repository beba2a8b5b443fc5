package dto

import (
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest defines the data needed to record a ledger entry.
// Quantity/Price/Fee apply to BUY/SELL; Amount applies to the cash types.
type CreateTransactionRequest struct {
	AccountID    string          `json:"accountID" binding:"required"`
	TradeDate    time.Time       `json:"tradeDate" binding:"required"`
	Type         string          `json:"type" binding:"required,oneof=BUY SELL DIVIDEND INTEREST DEPOSIT WITHDRAWAL FEE"`
	Symbol       string          `json:"symbol" binding:"omitempty,tickersymbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Fee          decimal.Decimal `json:"fee"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3,uppercase"`
	Notes        string          `json:"notes"`
}

// UpdateTransactionRequest carries a full replacement for an existing entry.
type UpdateTransactionRequest struct {
	TradeDate    time.Time       `json:"tradeDate" binding:"required"`
	Type         string          `json:"type" binding:"required,oneof=BUY SELL DIVIDEND INTEREST DEPOSIT WITHDRAWAL FEE"`
	Symbol       string          `json:"symbol" binding:"omitempty,tickersymbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Fee          decimal.Decimal `json:"fee"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3,uppercase"`
	Notes        string          `json:"notes"`
}

// TransactionResponse defines the data returned for a ledger entry.
type TransactionResponse struct {
	TransactionID string          `json:"transactionID"`
	AccountID     string          `json:"accountID"`
	TradeDate     time.Time       `json:"tradeDate"`
	Type          string          `json:"type"`
	Symbol        string          `json:"symbol,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Fee           decimal.Decimal `json:"fee"`
	Amount        decimal.Decimal `json:"amount"`
	NetAmount     decimal.Decimal `json:"netAmount"`
	CurrencyCode  string          `json:"currencyCode"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: txn.TransactionID,
		AccountID:     txn.AccountID,
		TradeDate:     txn.TradeDate,
		Type:          string(txn.Type),
		Symbol:        txn.Symbol,
		Quantity:      txn.Quantity,
		Price:         txn.Price,
		Fee:           txn.Fee,
		Amount:        txn.Amount,
		NetAmount:     txn.NetAmount(),
		CurrencyCode:  txn.CurrencyCode,
		Notes:         txn.Notes,
		CreatedAt:     txn.CreatedAt,
		LastUpdatedAt: txn.LastUpdatedAt,
	}
}

// ListTransactionsResponse wraps a page of ledger entries.
type ListTransactionsResponse struct {
	Transactions  []TransactionResponse `json:"transactions"`
	NextPageToken string                `json:"nextPageToken,omitempty"`
}

// ToListTransactionsResponse converts a page of entries plus its token.
func ToListTransactionsResponse(txns []domain.Transaction, nextToken string) ListTransactionsResponse {
	res := make([]TransactionResponse, len(txns))
	for i, txn := range txns {
		res[i] = ToTransactionResponse(&txn)
	}
	return ListTransactionsResponse{Transactions: res, NextPageToken: nextToken}
}
