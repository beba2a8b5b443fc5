package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/apperrors"
	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockAnalysisCacheRepository is a mock type for the AnalysisCacheRepositoryFacade interface
type MockAnalysisCacheRepository struct {
	mock.Mock
}

func (m *MockAnalysisCacheRepository) FindEntry(ctx context.Context, cacheType domain.AnalysisCacheType, cacheKey string) (*domain.AnalysisCacheEntry, error) {
	args := m.Called(ctx, cacheType, cacheKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisCacheEntry), args.Error(1)
}

func (m *MockAnalysisCacheRepository) Statistics(ctx context.Context) (*domain.AnalysisCacheStatistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisCacheStatistics), args.Error(1)
}

func (m *MockAnalysisCacheRepository) UpsertEntry(ctx context.Context, entry domain.AnalysisCacheEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAnalysisCacheRepository) DeleteForAccount(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAnalysisCacheRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockUpstreamReader is a mock type for the UpstreamTimestampReader interface
type MockUpstreamReader struct {
	mock.Mock
}

func (m *MockUpstreamReader) LatestUpstreamUpdatedAt(ctx context.Context, accountIDs []string) (*time.Time, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

// --- Test Suite Setup ---

type AnalysisCacheServiceTestSuite struct {
	suite.Suite
	mockRepo     *MockAnalysisCacheRepository
	mockUpstream *MockUpstreamReader
	service      portssvc.AnalysisCacheSvc
}

func (suite *AnalysisCacheServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockAnalysisCacheRepository)
	suite.mockUpstream = new(MockUpstreamReader)
	suite.service = services.NewAnalysisCacheService(suite.mockRepo, suite.mockUpstream, time.Minute)
}

// --- Test Cases ---

func (suite *AnalysisCacheServiceTestSuite) TestGetOrCompute_MissComputesAndPersists() {
	ctx := context.Background()
	payload := json.RawMessage(`{"totalAssets":"1234.56"}`)
	computed := 0

	suite.mockRepo.On("FindEntry", ctx, domain.CacheAnnualAnalysis, mock.AnythingOfType("string")).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("UpsertEntry", ctx, mock.MatchedBy(func(e domain.AnalysisCacheEntry) bool {
		return e.CacheType == domain.CacheAnnualAnalysis && len(e.AccountIDs) == 2
	})).Return(nil).Once()

	out, err := suite.service.GetOrCompute(ctx, domain.CacheAnnualAnalysis, []string{"acct-1", "acct-2"},
		map[string]any{"year": 2023},
		func(ctx context.Context) (json.RawMessage, error) {
			computed++
			return payload, nil
		})

	suite.Require().NoError(err)
	suite.JSONEq(string(payload), string(out))
	suite.Equal(1, computed)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AnalysisCacheServiceTestSuite) TestGetOrCompute_FreshEntrySkipsCompute() {
	ctx := context.Background()
	payload := json.RawMessage(`{"cached":true}`)
	upstream := time.Now().Add(-time.Hour)

	entry := &domain.AnalysisCacheEntry{
		CacheType: domain.CacheAnnualAnalysis,
		Payload:   payload,
		UpdatedAt: time.Now().Add(-time.Minute), // newer than upstream
	}
	suite.mockRepo.On("FindEntry", ctx, domain.CacheAnnualAnalysis, mock.AnythingOfType("string")).
		Return(entry, nil).Once()
	suite.mockUpstream.On("LatestUpstreamUpdatedAt", ctx, []string{"acct-1"}).
		Return(&upstream, nil).Once()

	out, err := suite.service.GetOrCompute(ctx, domain.CacheAnnualAnalysis, []string{"acct-1"},
		map[string]any{"year": 2023},
		func(ctx context.Context) (json.RawMessage, error) {
			suite.FailNow("compute should not run for a fresh entry")
			return nil, nil
		})

	suite.Require().NoError(err)
	suite.JSONEq(string(payload), string(out))
	suite.mockRepo.AssertNotCalled(suite.T(), "UpsertEntry")
}

func (suite *AnalysisCacheServiceTestSuite) TestGetOrCompute_StaleEntryRecomputes() {
	ctx := context.Background()
	upstream := time.Now() // newer than the entry below

	entry := &domain.AnalysisCacheEntry{
		CacheType: domain.CacheAnnualAnalysis,
		Payload:   json.RawMessage(`{"cached":true}`),
		UpdatedAt: time.Now().Add(-time.Hour),
	}
	fresh := json.RawMessage(`{"cached":false}`)
	suite.mockRepo.On("FindEntry", ctx, domain.CacheAnnualAnalysis, mock.AnythingOfType("string")).
		Return(entry, nil).Once()
	suite.mockUpstream.On("LatestUpstreamUpdatedAt", ctx, []string{"acct-1"}).
		Return(&upstream, nil).Once()
	suite.mockRepo.On("UpsertEntry", ctx, mock.Anything).Return(nil).Once()

	out, err := suite.service.GetOrCompute(ctx, domain.CacheAnnualAnalysis, []string{"acct-1"},
		map[string]any{"year": 2023},
		func(ctx context.Context) (json.RawMessage, error) {
			return fresh, nil
		})

	suite.Require().NoError(err)
	suite.JSONEq(string(fresh), string(out))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AnalysisCacheServiceTestSuite) TestGetOrCompute_AccountOrderDoesNotChangeKey() {
	ctx := context.Background()
	payload := json.RawMessage(`{"v":1}`)
	computed := 0
	compute := func(ctx context.Context) (json.RawMessage, error) {
		computed++
		return payload, nil
	}

	suite.mockRepo.On("FindEntry", ctx, domain.CacheQuarterlyAnalysis, mock.AnythingOfType("string")).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("UpsertEntry", ctx, mock.Anything).Return(nil).Once()

	_, err := suite.service.GetOrCompute(ctx, domain.CacheQuarterlyAnalysis, []string{"b", "a"}, "q1", compute)
	suite.Require().NoError(err)

	// Reversed scope resolves to the same key and is served from memory.
	out, err := suite.service.GetOrCompute(ctx, domain.CacheQuarterlyAnalysis, []string{"a", "b"}, "q1", compute)
	suite.Require().NoError(err)

	suite.JSONEq(string(payload), string(out))
	suite.Equal(1, computed)
	suite.mockRepo.AssertNumberOfCalls(suite.T(), "FindEntry", 1)
}

func (suite *AnalysisCacheServiceTestSuite) TestInvalidate_DropsMemoryAndPersisted() {
	ctx := context.Background()
	payload := json.RawMessage(`{"v":1}`)

	suite.mockRepo.On("FindEntry", ctx, domain.CachePortfolioSummary, mock.AnythingOfType("string")).
		Return(nil, apperrors.ErrNotFound).Twice()
	suite.mockRepo.On("UpsertEntry", ctx, mock.Anything).Return(nil).Twice()
	suite.mockRepo.On("DeleteForAccount", ctx, "acct-1").Return(int64(3), nil).Once()

	compute := func(ctx context.Context) (json.RawMessage, error) { return payload, nil }

	_, err := suite.service.GetOrCompute(ctx, domain.CachePortfolioSummary, []string{"acct-1"}, nil, compute)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.Invalidate(ctx, "acct-1", nil))

	// The memory layer was purged, so the next read consults the repo again.
	_, err = suite.service.GetOrCompute(ctx, domain.CachePortfolioSummary, []string{"acct-1"}, nil, compute)
	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AnalysisCacheServiceTestSuite) TestInvalidateAll_ClearsEverything() {
	ctx := context.Background()
	suite.mockRepo.On("DeleteAll", ctx).Return(int64(9), nil).Once()

	suite.Require().NoError(suite.service.InvalidateAll(ctx))
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestAnalysisCacheServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AnalysisCacheServiceTestSuite))
}
