package models

import (
	"github.com/shopspring/decimal"
)

// Account is the DB row for one brokerage account.
type Account struct {
	AccountID    string `db:"account_id"`
	MemberID     string `db:"member_id"`
	Name         string `db:"name"`
	AccountType  string `db:"account_type"`
	CurrencyCode string `db:"currency_code"`
	Broker       string `db:"broker"`
	IsActive     bool   `db:"is_active"`
	AuditFields
}

// Member is the DB row for a household member.
type Member struct {
	MemberID string `db:"member_id"`
	FamilyID string `db:"family_id"`
	Name     string `db:"name"`
	IsActive bool   `db:"is_active"`
	AuditFields
}

// CashBalance is the DB row for an account's present-day cash in one currency.
type CashBalance struct {
	AccountID    string          `db:"account_id"`
	CurrencyCode string          `db:"currency_code"`
	Balance      decimal.Decimal `db:"balance"`
	AuditFields
}
