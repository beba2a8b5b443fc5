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

const pricePointColumns = `
	symbol, currency_code, trade_date, open, high, low, close, volume,
	created_at, created_by, last_updated_at, last_updated_by`

// PgxPriceRepository implements the price cache and market holiday
// repositories using pgxpool.
type PgxPriceRepository struct {
	BaseRepository
}

func newPgxPriceRepository(db *pgxpool.Pool) *PgxPriceRepository {
	return &PgxPriceRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

func scanPricePoint(row pgx.Row) (models.PricePoint, error) {
	var m models.PricePoint
	err := row.Scan(
		&m.Symbol, &m.CurrencyCode, &m.TradeDate,
		&m.Open, &m.High, &m.Low, &m.Close, &m.Volume,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// ListPrices returns the cached daily rows for a symbol within [start, end].
func (r *PgxPriceRepository) ListPrices(ctx context.Context, symbol, currencyCode string, start, end time.Time) ([]domain.PricePoint, error) {
	query := `SELECT` + pricePointColumns + `
		FROM price_history
		WHERE symbol = $1 AND currency_code = $2 AND trade_date BETWEEN $3 AND $4
		ORDER BY trade_date ASC;`

	rows, err := r.Pool.Query(ctx, query,
		strings.ToUpper(symbol), strings.ToUpper(currencyCode),
		domain.NormalizeDate(start), domain.NormalizeDate(end),
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list prices", err)
	}
	defer rows.Close()

	var ms []models.PricePoint
	for rows.Next() {
		m, err := scanPricePoint(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan price point", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating prices", err)
	}
	return mapping.ToDomainPricePoints(ms), nil
}

// FindNearestCloseOnOrBefore returns the most recent cached close at or
// before date.
func (r *PgxPriceRepository) FindNearestCloseOnOrBefore(ctx context.Context, symbol, currencyCode string, date time.Time) (*domain.PricePoint, error) {
	query := `SELECT` + pricePointColumns + `
		FROM price_history
		WHERE symbol = $1 AND currency_code = $2 AND trade_date <= $3
		ORDER BY trade_date DESC
		LIMIT 1;`

	m, err := scanPricePoint(r.Pool.QueryRow(ctx, query,
		strings.ToUpper(symbol), strings.ToUpper(currencyCode), domain.NormalizeDate(date),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no cached price for " + symbol + " on or before " + date.Format("2006-01-02"))
		}
		return nil, apperrors.NewAppError(500, "failed to get nearest close", err)
	}

	d := mapping.ToDomainPricePoint(m)
	return &d, nil
}

// LatestTradeDate returns the newest cached trade date for a symbol.
func (r *PgxPriceRepository) LatestTradeDate(ctx context.Context, symbol, currencyCode string) (*time.Time, error) {
	var latest *time.Time
	err := r.Pool.QueryRow(ctx,
		`SELECT MAX(trade_date) FROM price_history WHERE symbol = $1 AND currency_code = $2`,
		strings.ToUpper(symbol), strings.ToUpper(currencyCode),
	).Scan(&latest)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to read latest trade date", err)
	}
	return latest, nil
}

// LatestUpdatedAt returns the newest updated_at across price rows for the
// given symbols, or all rows when symbols is empty.
func (r *PgxPriceRepository) LatestUpdatedAt(ctx context.Context, symbols []string) (*time.Time, error) {
	query := `SELECT MAX(last_updated_at) FROM price_history`
	args := []interface{}{}
	if len(symbols) > 0 {
		upper := make([]string, len(symbols))
		for i, s := range symbols {
			upper[i] = strings.ToUpper(s)
		}
		query += ` WHERE symbol = ANY($1)`
		args = append(args, upper)
	}

	var latest *time.Time
	if err := r.Pool.QueryRow(ctx, query, args...).Scan(&latest); err != nil {
		return nil, apperrors.NewAppError(500, "failed to read latest price update", err)
	}
	return latest, nil
}

// Statistics summarises the cache population.
func (r *PgxPriceRepository) Statistics(ctx context.Context) (*domain.PriceCacheStatistics, error) {
	stats := &domain.PriceCacheStatistics{
		RowsPerSymbol:     map[string]int64{},
		ConfirmedHolidays: map[domain.Market]int64{},
	}

	err := r.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT symbol), MIN(trade_date), MAX(trade_date)
		FROM price_history`,
	).Scan(&stats.TotalRows, &stats.SymbolCount, &stats.EarliestDate, &stats.LatestDate)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to read price cache totals", err)
	}

	rows, err := r.Pool.Query(ctx,
		`SELECT symbol, COUNT(*) FROM price_history GROUP BY symbol ORDER BY symbol`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to read per-symbol counts", err)
	}
	defer rows.Close()
	for rows.Next() {
		var symbol string
		var count int64
		if err := rows.Scan(&symbol, &count); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan per-symbol count", err)
		}
		stats.RowsPerSymbol[symbol] = count
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating per-symbol counts", err)
	}

	hRows, err := r.Pool.Query(ctx,
		`SELECT market, COUNT(*) FROM market_holidays GROUP BY market`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to read holiday counts", err)
	}
	defer hRows.Close()
	for hRows.Next() {
		var market string
		var count int64
		if err := hRows.Scan(&market, &count); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan holiday count", err)
		}
		stats.ConfirmedHolidays[domain.Market(market)] = count
	}
	if err := hRows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating holiday counts", err)
	}

	return stats, nil
}

// BulkUpsertPrices inserts or updates rows keyed by (symbol, currency,
// trade_date) in a single transaction.
func (r *PgxPriceRepository) BulkUpsertPrices(ctx context.Context, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		m := mapping.ToModelPricePoint(p)
		m.Symbol = strings.ToUpper(m.Symbol)
		m.CurrencyCode = strings.ToUpper(m.CurrencyCode)
		m.TradeDate = domain.NormalizeDate(m.TradeDate)

		batch.Queue(`
			INSERT INTO price_history (
				symbol, currency_code, trade_date, open, high, low, close, volume,
				created_at, created_by, last_updated_at, last_updated_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (symbol, currency_code, trade_date) DO UPDATE SET
				open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
				close = EXCLUDED.close, volume = EXCLUDED.volume,
				last_updated_at = EXCLUDED.last_updated_at,
				last_updated_by = EXCLUDED.last_updated_by`,
			m.Symbol, m.CurrencyCode, m.TradeDate, m.Open, m.High, m.Low, m.Close, m.Volume,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range points {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			_ = r.Rollback(ctx, tx)
			return apperrors.NewAppError(500, "failed to upsert price points", err)
		}
	}
	if err := br.Close(); err != nil {
		_ = r.Rollback(ctx, tx)
		return apperrors.NewAppError(500, "failed to close price upsert batch", err)
	}
	return r.Commit(ctx, tx)
}

// ListHolidayDates returns confirmed holiday dates for a market within
// [start, end].
func (r *PgxPriceRepository) ListHolidayDates(ctx context.Context, market domain.Market, start, end time.Time) ([]time.Time, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT holiday_date FROM market_holidays
		WHERE market = $1 AND holiday_date BETWEEN $2 AND $3
		ORDER BY holiday_date ASC`,
		string(market), domain.NormalizeDate(start), domain.NormalizeDate(end),
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list holidays", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan holiday date", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating holidays", err)
	}
	return dates, nil
}

// IsHoliday reports whether date is a confirmed holiday for market.
func (r *PgxPriceRepository) IsHoliday(ctx context.Context, market domain.Market, date time.Time) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM market_holidays WHERE market = $1 AND holiday_date = $2)`,
		string(market), domain.NormalizeDate(date),
	).Scan(&exists)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to check holiday", err)
	}
	return exists, nil
}

// CountAttemptSymbols returns how many distinct symbols have evidence
// recorded for (market, date).
func (r *PgxPriceRepository) CountAttemptSymbols(ctx context.Context, market domain.Market, date time.Time) (int, error) {
	var count int
	err := r.Pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT symbol) FROM holiday_attempts WHERE market = $1 AND holiday_date = $2`,
		string(market), domain.NormalizeDate(date),
	).Scan(&count)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to count holiday evidence", err)
	}
	return count, nil
}

// RecordAttempt stores one piece of holiday evidence, ignoring duplicates.
func (r *PgxPriceRepository) RecordAttempt(ctx context.Context, attempt domain.HolidayAttempt) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO holiday_attempts (market, holiday_date, symbol, recorded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (market, holiday_date, symbol) DO NOTHING`,
		string(attempt.Market), domain.NormalizeDate(attempt.HolidayDate),
		strings.ToUpper(attempt.Symbol), attempt.RecordedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to record holiday evidence", err)
	}
	return nil
}

// SaveHoliday promotes a date to a confirmed holiday, ignoring duplicates.
func (r *PgxPriceRepository) SaveHoliday(ctx context.Context, holiday domain.MarketHoliday) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO market_holidays (
			market, holiday_date, name,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (market, holiday_date) DO NOTHING`,
		string(holiday.Market), domain.NormalizeDate(holiday.HolidayDate), holiday.Name,
		holiday.CreatedAt, holiday.CreatedBy, holiday.LastUpdatedAt, holiday.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save holiday", err)
	}
	return nil
}
