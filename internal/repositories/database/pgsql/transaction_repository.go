package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/apperrors"
	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portsrepo "github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	"github.com/famvest/portfolio_tracker_app/internal/models"
	"github.com/famvest/portfolio_tracker_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `
	transaction_id, account_id, trade_date, txn_type, symbol, quantity, price,
	fee, amount, currency_code, notes, created_at, created_by, last_updated_at, last_updated_by`

// PgxTransactionRepository implements the ledger repository using pgxpool.
type PgxTransactionRepository struct {
	BaseRepository
}

func newPgxTransactionRepository(db *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID, &m.AccountID, &m.TradeDate, &m.Type, &m.Symbol,
		&m.Quantity, &m.Price, &m.Fee, &m.Amount, &m.CurrencyCode, &m.Notes,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// FindTransactionByID retrieves a single ledger entry.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`

	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction " + transactionID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to get transaction by ID", err)
	}

	d := mapping.ToDomainTransaction(m)
	return &d, nil
}

// ListTransactions retrieves ledger entries for one account, ordered so
// lot replay is deterministic: trade date, then insertion time, then id.
func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, accountID string, opts portsrepo.TransactionListOptions) ([]domain.Transaction, error) {
	return r.ListTransactionsForAccounts(ctx, []string{accountID}, opts)
}

// ListTransactionsForAccounts retrieves ledger entries across accounts.
func (r *PgxTransactionRepository) ListTransactionsForAccounts(ctx context.Context, accountIDs []string, opts portsrepo.TransactionListOptions) ([]domain.Transaction, error) {
	if len(accountIDs) == 0 {
		return []domain.Transaction{}, nil
	}

	query := `SELECT` + transactionColumns + ` FROM transactions WHERE account_id = ANY($1)`
	args := []interface{}{accountIDs}
	argNum := 2

	if opts.Symbol != "" {
		query += fmt.Sprintf(" AND symbol = $%d", argNum)
		args = append(args, strings.ToUpper(opts.Symbol))
		argNum++
	}
	if len(opts.Types) > 0 {
		types := make([]string, len(opts.Types))
		for i, t := range opts.Types {
			types[i] = string(t)
		}
		query += fmt.Sprintf(" AND txn_type = ANY($%d)", argNum)
		args = append(args, types)
		argNum++
	}
	if opts.StartDate != nil {
		query += fmt.Sprintf(" AND trade_date >= $%d", argNum)
		args = append(args, *opts.StartDate)
		argNum++
	}
	if opts.EndDate != nil {
		query += fmt.Sprintf(" AND trade_date <= $%d", argNum)
		args = append(args, *opts.EndDate)
		argNum++
	}

	query += " ORDER BY trade_date ASC, created_at ASC, transaction_id ASC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, opts.Limit)
	}

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list transactions", err)
	}
	defer rows.Close()

	var ms []models.Transaction
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan transaction", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating transactions", err)
	}

	return mapping.ToDomainTransactions(ms), nil
}

// ListSymbols returns the distinct symbols traded in an account up to asOf.
func (r *PgxTransactionRepository) ListSymbols(ctx context.Context, accountID string, asOf time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT symbol FROM transactions
		WHERE account_id = $1 AND symbol <> '' AND trade_date <= $2
		ORDER BY symbol;`

	rows, err := r.Pool.Query(ctx, query, accountID, asOf)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list symbols", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan symbol", err)
		}
		symbols = append(symbols, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating symbols", err)
	}
	return symbols, nil
}

// FindSymbolCurrency returns the currency fixed by the earliest ledger
// entry for a symbol.
func (r *PgxTransactionRepository) FindSymbolCurrency(ctx context.Context, symbol string) (string, error) {
	query := `
		SELECT currency_code FROM transactions
		WHERE symbol = $1
		ORDER BY trade_date ASC, created_at ASC, transaction_id ASC
		LIMIT 1;`

	var code string
	err := r.Pool.QueryRow(ctx, query, strings.ToUpper(symbol)).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewNotFoundError("no transactions for symbol " + symbol)
		}
		return "", apperrors.NewAppError(500, "failed to resolve symbol currency", err)
	}
	return code, nil
}

// LatestUpdatedAt returns the newest updated_at across the given accounts' rows.
func (r *PgxTransactionRepository) LatestUpdatedAt(ctx context.Context, accountIDs []string) (*time.Time, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	var latest *time.Time
	err := r.Pool.QueryRow(ctx,
		`SELECT MAX(last_updated_at) FROM transactions WHERE account_id = ANY($1)`,
		accountIDs,
	).Scan(&latest)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to read latest transaction update", err)
	}
	return latest, nil
}

// SaveTransaction persists a new ledger entry.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	m := mapping.ToModelTransaction(txn)
	m.Symbol = strings.ToUpper(m.Symbol)
	m.CurrencyCode = strings.ToUpper(m.CurrencyCode)

	_, err := r.Pool.Exec(ctx, `
		INSERT INTO transactions (
			transaction_id, account_id, trade_date, txn_type, symbol, quantity,
			price, fee, amount, currency_code, notes,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		m.TransactionID, m.AccountID, m.TradeDate, m.Type, m.Symbol, m.Quantity,
		m.Price, m.Fee, m.Amount, m.CurrencyCode, m.Notes,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save transaction", err)
	}
	return nil
}

// UpdateTransaction replaces an existing ledger entry.
func (r *PgxTransactionRepository) UpdateTransaction(ctx context.Context, txn domain.Transaction) error {
	m := mapping.ToModelTransaction(txn)
	m.Symbol = strings.ToUpper(m.Symbol)
	m.CurrencyCode = strings.ToUpper(m.CurrencyCode)

	tag, err := r.Pool.Exec(ctx, `
		UPDATE transactions SET
			trade_date = $1, txn_type = $2, symbol = $3, quantity = $4, price = $5,
			fee = $6, amount = $7, currency_code = $8, notes = $9,
			last_updated_at = $10, last_updated_by = $11
		WHERE transaction_id = $12`,
		m.TradeDate, m.Type, m.Symbol, m.Quantity, m.Price,
		m.Fee, m.Amount, m.CurrencyCode, m.Notes,
		m.LastUpdatedAt, m.LastUpdatedBy, m.TransactionID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("transaction " + txn.TransactionID + " not found")
	}
	return nil
}

// DeleteTransaction removes a ledger entry.
func (r *PgxTransactionRepository) DeleteTransaction(ctx context.Context, transactionID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM transactions WHERE transaction_id = $1`, transactionID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("transaction " + transactionID + " not found")
	}
	return nil
}
