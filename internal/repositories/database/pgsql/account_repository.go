package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/apperrors"
	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	"github.com/famvest/portfolio_tracker_app/internal/models"
	"github.com/famvest/portfolio_tracker_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `
	account_id, member_id, name, account_type, currency_code, broker, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

// PgxAccountRepository implements the account repository using pgxpool.
type PgxAccountRepository struct {
	BaseRepository
}

func newPgxAccountRepository(db *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID, &m.MemberID, &m.Name, &m.AccountType, &m.CurrencyCode,
		&m.Broker, &m.IsActive,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// FindAccountByID retrieves a specific account.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE account_id = $1;`

	m, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("account " + accountID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to get account by ID", err)
	}

	d := mapping.ToDomainAccount(m)
	return &d, nil
}

// ListAccounts retrieves all accounts, optionally limited to a member.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, memberID string) ([]domain.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts`
	args := []interface{}{}
	if memberID != "" {
		query += ` WHERE member_id = $1`
		args = append(args, memberID)
	}
	query += ` ORDER BY name;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list accounts", err)
	}
	defer rows.Close()

	var ms []models.Account
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating accounts", err)
	}

	return mapping.ToDomainAccountSlice(ms), nil
}

// LatestUpdatedAt returns the newest updated_at across accounts and their
// cash balance rows.
func (r *PgxAccountRepository) LatestUpdatedAt(ctx context.Context, accountIDs []string) (*time.Time, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	var latest *time.Time
	err := r.Pool.QueryRow(ctx, `
		SELECT GREATEST(
			(SELECT MAX(last_updated_at) FROM accounts WHERE account_id = ANY($1)),
			(SELECT MAX(last_updated_at) FROM cash_balances WHERE account_id = ANY($1))
		)`,
		accountIDs,
	).Scan(&latest)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to read latest account update", err)
	}
	return latest, nil
}

// SaveAccount persists a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO accounts (
			account_id, member_id, name, account_type, currency_code, broker,
			is_active, created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.AccountID, m.MemberID, m.Name, m.AccountType, m.CurrencyCode, m.Broker,
		m.IsActive, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save account", err)
	}
	return nil
}

// UpdateAccount updates an existing account.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	tag, err := r.Pool.Exec(ctx, `
		UPDATE accounts SET
			name = $1, account_type = $2, broker = $3, is_active = $4,
			last_updated_at = $5, last_updated_by = $6
		WHERE account_id = $7`,
		m.Name, m.AccountType, m.Broker, m.IsActive,
		m.LastUpdatedAt, m.LastUpdatedBy, m.AccountID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update account", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account " + account.AccountID + " not found")
	}
	return nil
}

// FindCashBalances returns the current cash rows for an account.
func (r *PgxAccountRepository) FindCashBalances(ctx context.Context, accountID string) ([]domain.CashBalance, error) {
	query := `
		SELECT account_id, currency_code, balance,
			created_at, created_by, last_updated_at, last_updated_by
		FROM cash_balances
		WHERE account_id = $1
		ORDER BY currency_code;`

	rows, err := r.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list cash balances", err)
	}
	defer rows.Close()

	var balances []domain.CashBalance
	for rows.Next() {
		var m models.CashBalance
		err := rows.Scan(
			&m.AccountID, &m.CurrencyCode, &m.Balance,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan cash balance", err)
		}
		balances = append(balances, mapping.ToDomainCashBalance(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating cash balances", err)
	}
	return balances, nil
}

// UpsertCashBalance sets the balance for (account, currency) inside a tx,
// select-then-update so the insert path stays explicit.
func (r *PgxAccountRepository) UpsertCashBalance(ctx context.Context, balance domain.CashBalance) error {
	m := mapping.ToModelCashBalance(balance)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}

	var existing string
	err = tx.QueryRow(ctx,
		`SELECT account_id FROM cash_balances WHERE account_id = $1 AND currency_code = $2`,
		m.AccountID, m.CurrencyCode,
	).Scan(&existing)

	if err == nil {
		_, err = tx.Exec(ctx, `
			UPDATE cash_balances SET balance = $1, last_updated_at = $2, last_updated_by = $3
			WHERE account_id = $4 AND currency_code = $5`,
			m.Balance, m.LastUpdatedAt, m.LastUpdatedBy, m.AccountID, m.CurrencyCode,
		)
	} else if errors.Is(err, pgx.ErrNoRows) {
		_, err = tx.Exec(ctx, `
			INSERT INTO cash_balances (
				account_id, currency_code, balance,
				created_at, created_by, last_updated_at, last_updated_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			m.AccountID, m.CurrencyCode, m.Balance,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
	}

	if err != nil {
		_ = r.Rollback(ctx, tx)
		return apperrors.NewAppError(500, "failed to upsert cash balance", err)
	}
	return r.Commit(ctx, tx)
}
