package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
)

// ComputeFunc produces the payload for an analysis cache entry on miss or
// stale hit.
type ComputeFunc func(ctx context.Context) (json.RawMessage, error)

// AnalysisCacheSvc memoizes expensive multi-account computations. An entry
// is fresh only while its updated_at beats the newest updated_at of every
// upstream table in scope.
type AnalysisCacheSvc interface {
	// GetOrCompute returns the cached payload when fresh, otherwise runs
	// computeFn, persists the result and returns it.
	GetOrCompute(ctx context.Context, cacheType domain.AnalysisCacheType, accountIDs []string, params any, computeFn ComputeFunc) (json.RawMessage, error)

	// Invalidate removes persisted entries scoped to an account. fromDate
	// is advisory (the in-memory layer uses it); persisted entries for
	// the account are dropped outright.
	Invalidate(ctx context.Context, accountID string, fromDate *time.Time) error

	// InvalidateAll removes every entry, memory and persisted.
	InvalidateAll(ctx context.Context) error

	// Statistics reports the persisted cache population.
	Statistics(ctx context.Context) (*domain.AnalysisCacheStatistics, error)
}
