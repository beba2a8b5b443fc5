package dto

import (
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Name         string             `json:"name" binding:"required"`
	MemberID     string             `json:"memberID" binding:"required"`
	AccountType  domain.AccountType `json:"accountType" binding:"required,oneof=NON_REGISTERED TFSA RRSP RESP FHSA"`
	CurrencyCode string             `json:"currencyCode" binding:"required,len=3,uppercase"`
	Broker       string             `json:"broker"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID     string             `json:"accountID"`
	MemberID      string             `json:"memberID"`
	Name          string             `json:"name"`
	AccountType   domain.AccountType `json:"accountType"`
	CurrencyCode  string             `json:"currencyCode"`
	Broker        string             `json:"broker,omitempty"`
	IsActive      bool               `json:"isActive"`
	CreatedAt     time.Time          `json:"createdAt"`
	CreatedBy     string             `json:"createdBy"`
	LastUpdatedAt time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy string             `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:     acc.AccountID,
		MemberID:      acc.MemberID,
		Name:          acc.Name,
		AccountType:   acc.AccountType,
		CurrencyCode:  acc.CurrencyCode,
		Broker:        acc.Broker,
		IsActive:      acc.IsActive,
		CreatedAt:     acc.CreatedAt,
		CreatedBy:     acc.CreatedBy,
		LastUpdatedAt: acc.LastUpdatedAt,
		LastUpdatedBy: acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i, acc := range accounts {
		res[i] = ToAccountResponse(&acc)
	}
	return res
}

// CashBalanceResponse defines the data returned for a cash balance query.
type CashBalanceResponse struct {
	AccountID    string          `json:"accountID"`
	CurrencyCode string          `json:"currencyCode"`
	Balance      decimal.Decimal `json:"balance"`
}

// ToCashBalanceResponses converts cash balance rows to DTOs.
func ToCashBalanceResponses(balances []domain.CashBalance) []CashBalanceResponse {
	res := make([]CashBalanceResponse, len(balances))
	for i, b := range balances {
		res[i] = CashBalanceResponse{
			AccountID:    b.AccountID,
			CurrencyCode: b.CurrencyCode,
			Balance:      b.Balance,
		}
	}
	return res
}
