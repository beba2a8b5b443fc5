package repositories

import (
	"context"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
)

// TransactionListOptions narrows ledger reads. Zero values mean "no filter".
type TransactionListOptions struct {
	Symbol    string
	Types     []domain.TransactionType
	StartDate *time.Time // Inclusive
	EndDate   *time.Time // Inclusive
	Limit     int
}

// TransactionReader defines read operations over the transaction ledger.
// All listing methods return rows ordered by (trade_date, created_at,
// transaction_id) ascending so lot replay is deterministic.
type TransactionReader interface {
	// FindTransactionByID retrieves a single ledger entry.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactions retrieves ledger entries for one account.
	ListTransactions(ctx context.Context, accountID string, opts TransactionListOptions) ([]domain.Transaction, error)

	// ListTransactionsForAccounts retrieves ledger entries across accounts.
	ListTransactionsForAccounts(ctx context.Context, accountIDs []string, opts TransactionListOptions) ([]domain.Transaction, error)

	// ListSymbols returns the distinct symbols ever traded in an account
	// on or before asOf.
	ListSymbols(ctx context.Context, accountID string, asOf time.Time) ([]string, error)

	// FindSymbolCurrency returns the currency fixed by the first ledger
	// entry for a symbol, apperrors.ErrNotFound when the symbol is unseen.
	FindSymbolCurrency(ctx context.Context, symbol string) (string, error)

	// LatestUpdatedAt returns the newest updated_at across the ledger rows
	// of the given accounts, used for staleness checks.
	LatestUpdatedAt(ctx context.Context, accountIDs []string) (*time.Time, error)
}

// TransactionWriter defines write operations for the transaction ledger.
type TransactionWriter interface {
	// SaveTransaction persists a new ledger entry.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error

	// UpdateTransaction replaces an existing ledger entry.
	UpdateTransaction(ctx context.Context, txn domain.Transaction) error

	// DeleteTransaction removes a ledger entry.
	DeleteTransaction(ctx context.Context, transactionID string) error
}

// TransactionRepositoryFacade combines all ledger repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}

// TransactionRepositoryWithTx extends the facade with transaction capabilities
type TransactionRepositoryWithTx interface {
	TransactionRepositoryFacade
	TransactionManager
}
