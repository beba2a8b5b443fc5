package domain

import (
	"encoding/json"
	"time"
)

// AnalysisCacheType names the family of computation a cache entry memoizes.
type AnalysisCacheType string

const (
	CacheAnnualAnalysis    AnalysisCacheType = "ANNUAL"
	CacheQuarterlyAnalysis AnalysisCacheType = "QUARTERLY"
	CacheMonthlyAnalysis   AnalysisCacheType = "MONTHLY"
	CacheDailyAnalysis     AnalysisCacheType = "DAILY"
	CachePortfolioSummary  AnalysisCacheType = "PORTFOLIO_SUMMARY"
)

// AnalysisCacheEntry memoizes one expensive multi-account computation.
// CacheKey is a stable hash of (type, sorted scope, normalized params);
// freshness is judged against the latest updated_at of every upstream
// table the computation reads, never by a fixed TTL alone.
type AnalysisCacheEntry struct {
	ID         string            `json:"id"` // Primary Key (UUID)
	CacheType  AnalysisCacheType `json:"cacheType"`
	CacheKey   string            `json:"cacheKey"`
	AccountIDs []string          `json:"accountIDs"`
	Params     json.RawMessage   `json:"params"`
	Payload    json.RawMessage   `json:"payload"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// AnalysisCacheStatistics reports the persisted cache population.
type AnalysisCacheStatistics struct {
	TotalEntries   int64                       `json:"totalEntries"`
	EntriesPerType map[AnalysisCacheType]int64 `json:"entriesPerType"`
	OldestUpdated  *time.Time                  `json:"oldestUpdated,omitempty"`
	NewestUpdated  *time.Time                  `json:"newestUpdated,omitempty"`
}
