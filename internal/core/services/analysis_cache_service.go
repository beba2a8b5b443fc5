package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portsrepo "github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/middleware"
	"github.com/famvest/portfolio_tracker_app/internal/utils/cache"
	"github.com/google/uuid"
)

// analysisCacheService memoizes expensive multi-account computations in two
// layers: a short-lived in-process cache and a persisted table. The
// persisted layer is judged fresh only while its updated_at beats the newest
// updated_at of every upstream table in scope, so edits to years-old
// transactions invalidate exactly the results they affect.
type analysisCacheService struct {
	cacheRepo    portsrepo.AnalysisCacheRepositoryFacade
	upstreamRepo portsrepo.UpstreamTimestampReader
	memory       *cache.TTLCache
}

// NewAnalysisCacheService creates the analysis result cache.
func NewAnalysisCacheService(
	cacheRepo portsrepo.AnalysisCacheRepositoryFacade,
	upstreamRepo portsrepo.UpstreamTimestampReader,
	memoryTTL time.Duration,
) portssvc.AnalysisCacheSvc {
	if memoryTTL <= 0 {
		memoryTTL = 5 * time.Minute
	}
	return &analysisCacheService{
		cacheRepo:    cacheRepo,
		upstreamRepo: upstreamRepo,
		memory:       cache.New(memoryTTL),
	}
}

var _ portssvc.AnalysisCacheSvc = (*analysisCacheService)(nil)

// GetOrCompute returns the cached payload when fresh, otherwise runs
// computeFn, persists the result and returns it.
func (s *analysisCacheService) GetOrCompute(ctx context.Context, cacheType domain.AnalysisCacheType, accountIDs []string, params any, computeFn portssvc.ComputeFunc) (json.RawMessage, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	scope := sortedCopy(accountIDs)
	key, paramsJSON, err := cacheKey(cacheType, scope, params)
	if err != nil {
		return nil, err
	}
	memoryKey := memoryKeyFor(cacheType, scope, key)

	if v, ok := s.memory.Get(memoryKey); ok {
		return v.(json.RawMessage), nil
	}

	entry, err := s.cacheRepo.FindEntry(ctx, cacheType, key)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if entry != nil {
		fresh, err := s.isFresh(ctx, entry, scope)
		if err != nil {
			return nil, err
		}
		if fresh {
			s.memory.Set(memoryKey, entry.Payload)
			return entry.Payload, nil
		}
		logger.Debug("Stale analysis cache entry, recomputing",
			slog.String("cache_type", string(cacheType)),
			slog.String("cache_key", key))
	}

	payload, err := computeFn(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.cacheRepo.UpsertEntry(ctx, domain.AnalysisCacheEntry{
		ID:         uuid.NewString(),
		CacheType:  cacheType,
		CacheKey:   key,
		AccountIDs: scope,
		Params:     paramsJSON,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		// A failed write only costs the next caller a recompute.
		logger.Warn("Failed to persist analysis cache entry",
			slog.String("cache_type", string(cacheType)),
			slog.String("error", err.Error()))
	}

	s.memory.Set(memoryKey, payload)
	return payload, nil
}

// Invalidate removes entries scoped to an account. fromDate is advisory;
// persisted entries for the account are dropped outright because their key
// does not encode which dates they cover.
func (s *analysisCacheService) Invalidate(ctx context.Context, accountID string, fromDate *time.Time) error {
	s.memory.DeleteContains(accountID)
	deleted, err := s.cacheRepo.DeleteForAccount(ctx, accountID)
	if err != nil {
		return err
	}
	logger := middleware.GetLoggerFromCtx(ctx)
	logger.Debug("Invalidated analysis cache entries",
		slog.String("account_id", accountID),
		slog.Int64("deleted", deleted))
	return nil
}

// InvalidateAll removes every entry, memory and persisted.
func (s *analysisCacheService) InvalidateAll(ctx context.Context) error {
	s.memory.Clear()
	_, err := s.cacheRepo.DeleteAll(ctx)
	return err
}

// Statistics reports the persisted cache population.
func (s *analysisCacheService) Statistics(ctx context.Context) (*domain.AnalysisCacheStatistics, error) {
	return s.cacheRepo.Statistics(ctx)
}

// isFresh compares the entry against the newest upstream write in scope.
func (s *analysisCacheService) isFresh(ctx context.Context, entry *domain.AnalysisCacheEntry, accountIDs []string) (bool, error) {
	upstream, err := s.upstreamRepo.LatestUpstreamUpdatedAt(ctx, accountIDs)
	if err != nil {
		return false, err
	}
	if upstream == nil {
		return true, nil
	}
	return entry.UpdatedAt.After(*upstream), nil
}

// cacheKey hashes (type, sorted scope, canonical params) with SHA-256. The
// params pass through a decode/encode round trip so that key order and
// whitespace differences never produce distinct keys.
func cacheKey(cacheType domain.AnalysisCacheType, sortedAccountIDs []string, params any) (string, json.RawMessage, error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode analysis params: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(rawParams, &normalized); err != nil {
		return "", nil, fmt.Errorf("failed to normalize analysis params: %w", err)
	}

	canonical, err := json.Marshal(map[string]any{
		"accountIds": sortedAccountIDs,
		"params":     normalized,
		"type":       string(cacheType),
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to build cache key material: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), rawParams, nil
}

func memoryKeyFor(cacheType domain.AnalysisCacheType, sortedAccountIDs []string, key string) string {
	return fmt.Sprintf("analysis:%s:%s:%s", cacheType, strings.Join(sortedAccountIDs, ","), key)
}

func sortedCopy(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}
