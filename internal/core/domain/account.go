package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType distinguishes the flavour of investment account,
// mostly for display and tax-style grouping.
type AccountType string

const (
	NonRegistered AccountType = "NON_REGISTERED"
	TFSA          AccountType = "TFSA"
	RRSP          AccountType = "RRSP"
	RESP          AccountType = "RESP"
	FHSA          AccountType = "FHSA"
)

// Account is one brokerage account belonging to a household member.
type Account struct {
	AccountID    string      `json:"accountID"`   // Primary Key (UUID)
	MemberID     string      `json:"memberID"`    // FK -> Member.memberID (Not Null)
	Name         string      `json:"name"`        // User-defined name
	AccountType  AccountType `json:"accountType"` // TFSA, RRSP, etc.
	CurrencyCode string      `json:"currencyCode"`
	Broker       string      `json:"broker,omitempty"`
	IsActive     bool        `json:"isActive"`
	AuditFields
}

// Member is a person in the household owning one or more accounts.
type Member struct {
	MemberID string `json:"memberID"` // Primary Key (UUID)
	FamilyID string `json:"familyID"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
	AuditFields
}

// CashBalance is the authoritative present-day cash position of an
// account in one currency. Historical balances are never stored; they
// are reconstructed from the transaction ledger.
type CashBalance struct {
	AccountID    string          `json:"accountID"`
	CurrencyCode string          `json:"currencyCode"`
	Balance      decimal.Decimal `json:"balance"`
	AuditFields
}
