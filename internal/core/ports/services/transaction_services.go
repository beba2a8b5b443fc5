package services

import (
	"context"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	"github.com/famvest/portfolio_tracker_app/internal/dto"
)

// LedgerReaderSvc defines read operations over the transaction ledger.
type LedgerReaderSvc interface {
	// GetTransactionByID retrieves a single ledger entry.
	GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactions retrieves ledger entries for an account, newest
	// first, with token-based pagination.
	ListTransactions(ctx context.Context, accountID string, limit int, pageToken string) ([]domain.Transaction, string, error)
}

// LedgerWriterSvc defines write operations for the transaction ledger.
// Every successful write adjusts the cash ledger and invalidates analysis
// caches for the affected account from the trade date onward.
type LedgerWriterSvc interface {
	// CreateTransaction validates and persists a new ledger entry.
	CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, creatorMemberID string) (*domain.Transaction, error)

	// UpdateTransaction replaces an existing entry.
	UpdateTransaction(ctx context.Context, transactionID string, req dto.UpdateTransactionRequest, updaterMemberID string) (*domain.Transaction, error)

	// DeleteTransaction removes an entry.
	DeleteTransaction(ctx context.Context, transactionID string, deleterMemberID string) error
}

// LedgerSvcFacade combines all ledger service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}

// AccountReaderSvc defines read operations for accounts.
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccounts retrieves accounts, optionally limited to a member.
	ListAccounts(ctx context.Context, memberID string) ([]domain.Account, error)

	// GetCurrentCash reads the authoritative present-day cash balances.
	GetCurrentCash(ctx context.Context, accountID string) ([]domain.CashBalance, error)
}

// AccountWriterSvc defines write operations for accounts.
type AccountWriterSvc interface {
	// CreateAccount persists a new account.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorMemberID string) (*domain.Account, error)

	// DeactivateAccount soft-disables an account.
	DeactivateAccount(ctx context.Context, accountID string, updaterMemberID string) error
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}

// APITokenSvc manages member API tokens for the HTTP surface.
type APITokenSvc interface {
	// CreateToken issues a new token for a member; the plaintext is
	// returned exactly once.
	CreateToken(ctx context.Context, memberID, name string, expiresAt *time.Time) (*domain.APIToken, string, error)

	// ListTokens retrieves a member's tokens.
	ListTokens(ctx context.Context, memberID string) ([]domain.APIToken, error)

	// RevokeToken deletes a token.
	RevokeToken(ctx context.Context, memberID, tokenID string) error

	// ValidateToken checks a presented plaintext token and returns its
	// owning record.
	ValidateToken(ctx context.Context, plaintext string) (*domain.APIToken, error)
}
