package pgsql

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/apperrors"
	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	"github.com/famvest/portfolio_tracker_app/internal/models"
	"github.com/famvest/portfolio_tracker_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const exchangeRateColumns = `
	exchange_rate_id, from_currency_code, to_currency_code, rate, date_effective, source,
	created_at, created_by, last_updated_at, last_updated_by`

// PgxExchangeRateRepository implements the exchange rate repository using pgxpool.
type PgxExchangeRateRepository struct {
	BaseRepository
}

func newPgxExchangeRateRepository(db *pgxpool.Pool) *PgxExchangeRateRepository {
	return &PgxExchangeRateRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

func scanExchangeRate(row pgx.Row) (models.ExchangeRate, error) {
	var m models.ExchangeRate
	err := row.Scan(
		&m.ExchangeRateID, &m.FromCurrencyCode, &m.ToCurrencyCode,
		&m.Rate, &m.DateEffective, &m.Source,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// FindRateForDate retrieves the direct rate persisted for a pair on one date.
func (r *PgxExchangeRateRepository) FindRateForDate(ctx context.Context, fromCode, toCode string, date time.Time, source domain.RateSource) (*domain.ExchangeRate, error) {
	query := `SELECT` + exchangeRateColumns + `
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2
		  AND date_effective = $3 AND source = $4;`

	m, err := scanExchangeRate(r.Pool.QueryRow(ctx, query,
		strings.ToUpper(fromCode), strings.ToUpper(toCode),
		domain.NormalizeDate(date), string(source),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no rate for " + fromCode + "/" + toCode + " on " + date.Format("2006-01-02"))
		}
		return nil, apperrors.NewAppError(500, "failed to get exchange rate", err)
	}

	d := mapping.ToDomainExchangeRate(m)
	return &d, nil
}

// FindLatestRate retrieves the most recent API-sourced rate for a pair.
func (r *PgxExchangeRateRepository) FindLatestRate(ctx context.Context, fromCode, toCode string) (*domain.ExchangeRate, error) {
	query := `SELECT` + exchangeRateColumns + `
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2 AND source = $3
		ORDER BY date_effective DESC
		LIMIT 1;`

	m, err := scanExchangeRate(r.Pool.QueryRow(ctx, query,
		strings.ToUpper(fromCode), strings.ToUpper(toCode), string(domain.RateSourceAPI),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no rate for " + fromCode + "/" + toCode)
		}
		return nil, apperrors.NewAppError(500, "failed to get latest exchange rate", err)
	}

	d := mapping.ToDomainExchangeRate(m)
	return &d, nil
}

// ListRatesForYear retrieves all API-sourced daily rates for a pair within a
// calendar year, ordered by date.
func (r *PgxExchangeRateRepository) ListRatesForYear(ctx context.Context, fromCode, toCode string, year int) ([]domain.ExchangeRate, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	query := `SELECT` + exchangeRateColumns + `
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2 AND source = $3
		  AND date_effective BETWEEN $4 AND $5
		ORDER BY date_effective ASC;`

	rows, err := r.Pool.Query(ctx, query,
		strings.ToUpper(fromCode), strings.ToUpper(toCode), string(domain.RateSourceAPI),
		start, end,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list exchange rates", err)
	}
	defer rows.Close()

	var out []domain.ExchangeRate
	for rows.Next() {
		m, err := scanExchangeRate(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan exchange rate", err)
		}
		out = append(out, mapping.ToDomainExchangeRate(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating exchange rates", err)
	}
	return out, nil
}

// LatestUpdatedAt returns the newest updated_at across all rate rows.
func (r *PgxExchangeRateRepository) LatestUpdatedAt(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	err := r.Pool.QueryRow(ctx, `SELECT MAX(last_updated_at) FROM exchange_rates`).Scan(&latest)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to read latest rate update", err)
	}
	return latest, nil
}

// UpsertRate persists a rate, replacing any existing row for the same
// (pair, date, source).
func (r *PgxExchangeRateRepository) UpsertRate(ctx context.Context, rate domain.ExchangeRate) error {
	m := mapping.ToModelExchangeRate(rate)
	m.FromCurrencyCode = strings.ToUpper(m.FromCurrencyCode)
	m.ToCurrencyCode = strings.ToUpper(m.ToCurrencyCode)
	m.DateEffective = domain.NormalizeDate(m.DateEffective)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}

	var existingID string
	err = tx.QueryRow(ctx, `
		SELECT exchange_rate_id FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2
		  AND date_effective = $3 AND source = $4`,
		m.FromCurrencyCode, m.ToCurrencyCode, m.DateEffective, m.Source,
	).Scan(&existingID)

	if err == nil {
		_, err = tx.Exec(ctx, `
			UPDATE exchange_rates SET rate = $1, last_updated_at = $2, last_updated_by = $3
			WHERE exchange_rate_id = $4`,
			m.Rate, m.LastUpdatedAt, m.LastUpdatedBy, existingID,
		)
	} else if errors.Is(err, pgx.ErrNoRows) {
		_, err = tx.Exec(ctx, `
			INSERT INTO exchange_rates (
				exchange_rate_id, from_currency_code, to_currency_code, rate,
				date_effective, source,
				created_at, created_by, last_updated_at, last_updated_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			m.ExchangeRateID, m.FromCurrencyCode, m.ToCurrencyCode, m.Rate,
			m.DateEffective, m.Source,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
	}

	if err != nil {
		_ = r.Rollback(ctx, tx)
		return apperrors.NewAppError(500, "failed to upsert exchange rate", err)
	}
	return r.Commit(ctx, tx)
}
