package mapping

import (
	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	"github.com/famvest/portfolio_tracker_app/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID: d.TransactionID,
		AccountID:     d.AccountID,
		TradeDate:     d.TradeDate,
		Type:          string(d.Type),
		Symbol:        d.Symbol,
		Quantity:      d.Quantity,
		Price:         d.Price,
		Fee:           d.Fee,
		Amount:        d.Amount,
		CurrencyCode:  d.CurrencyCode,
		Notes:         d.Notes,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID: m.TransactionID,
		AccountID:     m.AccountID,
		TradeDate:     m.TradeDate,
		Type:          domain.TransactionType(m.Type),
		Symbol:        m.Symbol,
		Quantity:      m.Quantity,
		Price:         m.Price,
		Fee:           m.Fee,
		Amount:        m.Amount,
		CurrencyCode:  m.CurrencyCode,
		Notes:         m.Notes,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTransactions converts a slice of model Transactions
func ToDomainTransactions(ms []models.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		out[i] = ToDomainTransaction(m)
	}
	return out
}
