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

const analysisCacheColumns = `
	id, cache_type, cache_key, account_ids_json, params_json, payload_json,
	created_at, updated_at`

// PgxAnalysisCacheRepository implements the analysis cache repository using
// pgxpool.
type PgxAnalysisCacheRepository struct {
	BaseRepository
}

func newPgxAnalysisCacheRepository(db *pgxpool.Pool) *PgxAnalysisCacheRepository {
	return &PgxAnalysisCacheRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

func scanAnalysisCacheEntry(row pgx.Row) (models.AnalysisCacheEntry, error) {
	var m models.AnalysisCacheEntry
	err := row.Scan(
		&m.ID, &m.CacheType, &m.CacheKey, &m.AccountIDsJSON, &m.ParamsJSON,
		&m.PayloadJSON, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

// FindEntry retrieves a cache entry by (type, key).
func (r *PgxAnalysisCacheRepository) FindEntry(ctx context.Context, cacheType domain.AnalysisCacheType, cacheKey string) (*domain.AnalysisCacheEntry, error) {
	query := `SELECT` + analysisCacheColumns + `
		FROM analysis_cache WHERE cache_type = $1 AND cache_key = $2;`

	m, err := scanAnalysisCacheEntry(r.Pool.QueryRow(ctx, query, string(cacheType), cacheKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no cached analysis for key " + cacheKey)
		}
		return nil, apperrors.NewAppError(500, "failed to get analysis cache entry", err)
	}

	d, err := mapping.ToDomainAnalysisCacheEntry(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode analysis cache entry", err)
	}
	return &d, nil
}

// Statistics summarises the cache population.
func (r *PgxAnalysisCacheRepository) Statistics(ctx context.Context) (*domain.AnalysisCacheStatistics, error) {
	stats := &domain.AnalysisCacheStatistics{
		EntriesPerType: map[domain.AnalysisCacheType]int64{},
	}

	err := r.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(updated_at), MAX(updated_at) FROM analysis_cache`,
	).Scan(&stats.TotalEntries, &stats.OldestUpdated, &stats.NewestUpdated)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to read analysis cache totals", err)
	}

	rows, err := r.Pool.Query(ctx,
		`SELECT cache_type, COUNT(*) FROM analysis_cache GROUP BY cache_type`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to read per-type counts", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cacheType string
		var count int64
		if err := rows.Scan(&cacheType, &count); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan per-type count", err)
		}
		stats.EntriesPerType[domain.AnalysisCacheType(cacheType)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating per-type counts", err)
	}
	return stats, nil
}

// UpsertEntry inserts or refreshes an entry. The unique constraint on
// (cache_type, cache_key) makes concurrent writers converge on one row.
func (r *PgxAnalysisCacheRepository) UpsertEntry(ctx context.Context, entry domain.AnalysisCacheEntry) error {
	m, err := mapping.ToModelAnalysisCacheEntry(entry)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode analysis cache entry", err)
	}

	_, err = r.Pool.Exec(ctx, `
		INSERT INTO analysis_cache (
			id, cache_type, cache_key, account_ids_json, params_json, payload_json,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (cache_type, cache_key) DO UPDATE SET
			account_ids_json = EXCLUDED.account_ids_json,
			params_json = EXCLUDED.params_json,
			payload_json = EXCLUDED.payload_json,
			updated_at = EXCLUDED.updated_at`,
		m.ID, m.CacheType, m.CacheKey, m.AccountIDsJSON, m.ParamsJSON, m.PayloadJSON,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to upsert analysis cache entry", err)
	}
	return nil
}

// DeleteForAccount removes every entry whose scope includes accountID.
func (r *PgxAnalysisCacheRepository) DeleteForAccount(ctx context.Context, accountID string) (int64, error) {
	tag, err := r.Pool.Exec(ctx,
		`DELETE FROM analysis_cache WHERE account_ids_json @> to_jsonb(ARRAY[$1::text])`,
		accountID,
	)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to invalidate analysis cache for account", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAll removes every entry.
func (r *PgxAnalysisCacheRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM analysis_cache`)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to clear analysis cache", err)
	}
	return tag.RowsAffected(), nil
}

// PgxUpstreamTimestampRepository aggregates upstream updated_at values for
// the analysis freshness check.
type PgxUpstreamTimestampRepository struct {
	BaseRepository
}

func newPgxUpstreamTimestampRepository(db *pgxpool.Pool) *PgxUpstreamTimestampRepository {
	return &PgxUpstreamTimestampRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

// LatestUpstreamUpdatedAt returns the newest updated_at across every table an
// analysis computation reads: ledger, accounts, cash, prices and rates.
// Price and rate rows are global, so they are not scoped by account.
func (r *PgxUpstreamTimestampRepository) LatestUpstreamUpdatedAt(ctx context.Context, accountIDs []string) (*time.Time, error) {
	var latest *time.Time
	err := r.Pool.QueryRow(ctx, `
		SELECT GREATEST(
			(SELECT MAX(last_updated_at) FROM transactions WHERE cardinality($1::text[]) = 0 OR account_id = ANY($1)),
			(SELECT MAX(last_updated_at) FROM accounts WHERE cardinality($1::text[]) = 0 OR account_id = ANY($1)),
			(SELECT MAX(last_updated_at) FROM cash_balances WHERE cardinality($1::text[]) = 0 OR account_id = ANY($1)),
			(SELECT MAX(last_updated_at) FROM price_history),
			(SELECT MAX(last_updated_at) FROM exchange_rates)
		)`,
		accountIDs,
	).Scan(&latest)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to read upstream timestamps", err)
	}
	return latest, nil
}
