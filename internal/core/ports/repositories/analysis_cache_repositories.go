package repositories

import (
	"context"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
)

// AnalysisCacheReader defines read operations for persisted analysis results.
type AnalysisCacheReader interface {
	// FindEntry retrieves a cache entry by (type, key).
	FindEntry(ctx context.Context, cacheType domain.AnalysisCacheType, cacheKey string) (*domain.AnalysisCacheEntry, error)

	// Statistics summarises the cache population.
	Statistics(ctx context.Context) (*domain.AnalysisCacheStatistics, error)
}

// AnalysisCacheWriter defines write operations for persisted analysis results.
type AnalysisCacheWriter interface {
	// UpsertEntry inserts or refreshes an entry; the unique constraint on
	// (cache_type, cache_key) makes concurrent writers converge on one
	// row, last writer wins.
	UpsertEntry(ctx context.Context, entry domain.AnalysisCacheEntry) error

	// DeleteForAccount removes every entry whose scope includes accountID.
	DeleteForAccount(ctx context.Context, accountID string) (int64, error)

	// DeleteAll removes every entry.
	DeleteAll(ctx context.Context) (int64, error)
}

// AnalysisCacheRepositoryFacade combines all analysis cache repository interfaces.
type AnalysisCacheRepositoryFacade interface {
	AnalysisCacheReader
	AnalysisCacheWriter
}

// UpstreamTimestampReader aggregates the latest updated_at of every table
// an analysis computation depends on, for the freshness check.
type UpstreamTimestampReader interface {
	// LatestUpstreamUpdatedAt returns the newest updated_at across
	// transactions, accounts/cash, price history and exchange rates for
	// the given scope. A nil result means no upstream data exists yet.
	LatestUpstreamUpdatedAt(ctx context.Context, accountIDs []string) (*time.Time, error)
}
