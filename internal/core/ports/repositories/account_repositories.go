package repositories

import (
	"context"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccounts retrieves all accounts, optionally limited to a member.
	ListAccounts(ctx context.Context, memberID string) ([]domain.Account, error)

	// LatestUpdatedAt returns the newest updated_at across the given
	// accounts and their cash balances, used for staleness checks.
	LatestUpdatedAt(ctx context.Context, accountIDs []string) (*time.Time, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates an existing account.
	UpdateAccount(ctx context.Context, account domain.Account) error
}

// CashBalanceReader reads the authoritative present-day cash ledger.
type CashBalanceReader interface {
	// FindCashBalances returns the current cash rows for an account, one
	// per currency the account has ever held cash in.
	FindCashBalances(ctx context.Context, accountID string) ([]domain.CashBalance, error)
}

// CashBalanceWriter mutates the present-day cash ledger.
type CashBalanceWriter interface {
	// UpsertCashBalance sets the balance for (account, currency).
	UpsertCashBalance(ctx context.Context, balance domain.CashBalance) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	CashBalanceReader
	CashBalanceWriter
}

// AccountRepositoryWithTx extends AccountRepositoryFacade with transaction capabilities
type AccountRepositoryWithTx interface {
	AccountRepositoryFacade
	TransactionManager
}
