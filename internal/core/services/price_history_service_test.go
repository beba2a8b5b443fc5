package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/apperrors"
	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockPriceRepository is a mock type for the PriceRepositoryFacade interface
type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) ListPrices(ctx context.Context, symbol, currencyCode string, start, end time.Time) ([]domain.PricePoint, error) {
	args := m.Called(ctx, symbol, currencyCode, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PricePoint), args.Error(1)
}

func (m *MockPriceRepository) FindNearestCloseOnOrBefore(ctx context.Context, symbol, currencyCode string, date time.Time) (*domain.PricePoint, error) {
	args := m.Called(ctx, symbol, currencyCode, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricePoint), args.Error(1)
}

func (m *MockPriceRepository) LatestTradeDate(ctx context.Context, symbol, currencyCode string) (*time.Time, error) {
	args := m.Called(ctx, symbol, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockPriceRepository) LatestUpdatedAt(ctx context.Context, symbols []string) (*time.Time, error) {
	args := m.Called(ctx, symbols)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockPriceRepository) Statistics(ctx context.Context) (*domain.PriceCacheStatistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceCacheStatistics), args.Error(1)
}

func (m *MockPriceRepository) BulkUpsertPrices(ctx context.Context, points []domain.PricePoint) error {
	args := m.Called(ctx, points)
	return args.Error(0)
}

func (m *MockPriceRepository) ListHolidayDates(ctx context.Context, market domain.Market, start, end time.Time) ([]time.Time, error) {
	args := m.Called(ctx, market, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *MockPriceRepository) IsHoliday(ctx context.Context, market domain.Market, date time.Time) (bool, error) {
	args := m.Called(ctx, market, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockPriceRepository) CountAttemptSymbols(ctx context.Context, market domain.Market, date time.Time) (int, error) {
	args := m.Called(ctx, market, date)
	return args.Int(0), args.Error(1)
}

func (m *MockPriceRepository) RecordAttempt(ctx context.Context, attempt domain.HolidayAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockPriceRepository) SaveHoliday(ctx context.Context, holiday domain.MarketHoliday) error {
	args := m.Called(ctx, holiday)
	return args.Error(0)
}

// MockPriceProvider is a mock type for the PriceProvider interface
type MockPriceProvider struct {
	mock.Mock
}

func (m *MockPriceProvider) DailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	args := m.Called(ctx, symbol, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PricePoint), args.Error(1)
}

// --- Test Suite Setup ---

type PriceHistoryServiceTestSuite struct {
	suite.Suite
	mockRepo     *MockPriceRepository
	mockProvider *MockPriceProvider
	service      portssvc.PriceHistorySvc
}

func (suite *PriceHistoryServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockPriceRepository)
	suite.mockProvider = new(MockPriceProvider)
	suite.service = services.NewPriceHistoryService(suite.mockRepo, suite.mockProvider, services.DefaultPriceHistoryConfig())
}

func pricePoint(symbol string, tradeDate time.Time, close string) domain.PricePoint {
	return domain.PricePoint{
		Symbol:       symbol,
		CurrencyCode: "USD",
		TradeDate:    tradeDate,
		Close:        dec(close),
	}
}

// --- Test Cases ---

func (suite *PriceHistoryServiceTestSuite) TestGetHistory_SufficientCoverageSkipsProvider() {
	ctx := context.Background()
	start := day(2024, time.January, 1)
	end := day(2024, time.January, 10)

	// 10 calendar days expect 7 trading days; 5 cached rows is 71% coverage.
	cached := []domain.PricePoint{
		pricePoint("AAPL", day(2024, time.January, 2), "185"),
		pricePoint("AAPL", day(2024, time.January, 3), "186"),
		pricePoint("AAPL", day(2024, time.January, 4), "184"),
		pricePoint("AAPL", day(2024, time.January, 5), "183"),
		pricePoint("AAPL", day(2024, time.January, 8), "187"),
	}
	suite.mockRepo.On("ListPrices", ctx, "AAPL", "USD", start, end).Return(cached, nil).Once()
	suite.mockRepo.On("ListHolidayDates", ctx, domain.MarketUS, start, end).Return([]time.Time{}, nil).Once()

	points, err := suite.service.GetHistory(ctx, "aapl", "usd", start, end)

	suite.Require().NoError(err)
	suite.Len(points, 5)
	suite.mockProvider.AssertNotCalled(suite.T(), "DailyHistory")
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *PriceHistoryServiceTestSuite) TestGetHistory_HolidaysReduceExpectedDays() {
	ctx := context.Background()
	start := day(2024, time.January, 1)
	end := day(2024, time.January, 10)

	// 4 cached rows would miss the 70% bar against 7 expected days, but two
	// confirmed holidays bring the expectation down to 5.
	cached := []domain.PricePoint{
		pricePoint("AAPL", day(2024, time.January, 3), "186"),
		pricePoint("AAPL", day(2024, time.January, 4), "184"),
		pricePoint("AAPL", day(2024, time.January, 5), "183"),
		pricePoint("AAPL", day(2024, time.January, 8), "187"),
	}
	holidays := []time.Time{day(2024, time.January, 1), day(2024, time.January, 2)}
	suite.mockRepo.On("ListPrices", ctx, "AAPL", "USD", start, end).Return(cached, nil).Once()
	suite.mockRepo.On("ListHolidayDates", ctx, domain.MarketUS, start, end).Return(holidays, nil).Once()

	points, err := suite.service.GetHistory(ctx, "AAPL", "USD", start, end)

	suite.Require().NoError(err)
	suite.Len(points, 4)
	suite.mockProvider.AssertNotCalled(suite.T(), "DailyHistory")
}

func (suite *PriceHistoryServiceTestSuite) TestGetHistory_RefreshesOnLowCoverage() {
	ctx := context.Background()
	start := day(2024, time.January, 8)
	end := day(2024, time.January, 10)

	fetched := []domain.PricePoint{
		pricePoint("AAPL", day(2024, time.January, 8), "187"),
		pricePoint("AAPL", day(2024, time.January, 9), "188"),
		pricePoint("AAPL", day(2024, time.January, 10), "189"),
	}
	suite.mockRepo.On("ListPrices", ctx, "AAPL", "USD", start, end).Return([]domain.PricePoint{}, nil).Once()
	suite.mockRepo.On("ListHolidayDates", ctx, domain.MarketUS, start, end).Return([]time.Time{}, nil).Once()
	suite.mockProvider.On("DailyHistory", ctx, "AAPL", mock.Anything, mock.Anything).Return(fetched, nil).Once()
	suite.mockRepo.On("BulkUpsertPrices", ctx, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("ListPrices", ctx, "AAPL", "USD", start, end).Return(fetched, nil).Once()

	points, err := suite.service.GetHistory(ctx, "AAPL", "USD", start, end)

	suite.Require().NoError(err)
	suite.Len(points, 3)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockProvider.AssertExpectations(suite.T())
}

func (suite *PriceHistoryServiceTestSuite) TestGetHistory_ServesCachedWhenProviderFails() {
	ctx := context.Background()
	start := day(2024, time.January, 1)
	end := day(2024, time.January, 10)

	cached := []domain.PricePoint{pricePoint("AAPL", day(2024, time.January, 3), "186")}
	suite.mockRepo.On("ListPrices", ctx, "AAPL", "USD", start, end).Return(cached, nil).Once()
	suite.mockRepo.On("ListHolidayDates", ctx, domain.MarketUS, start, end).Return([]time.Time{}, nil).Once()
	suite.mockProvider.On("DailyHistory", ctx, "AAPL", mock.Anything, mock.Anything).
		Return(nil, errors.New("provider down")).Once()

	points, err := suite.service.GetHistory(ctx, "AAPL", "USD", start, end)

	suite.Require().NoError(err)
	suite.Len(points, 1, "degrades to stale cached data")
}

func (suite *PriceHistoryServiceTestSuite) TestGetHistory_EmptyCacheAndDeadProviderFails() {
	ctx := context.Background()
	start := day(2024, time.January, 1)
	end := day(2024, time.January, 10)

	suite.mockRepo.On("ListPrices", ctx, "AAPL", "USD", start, end).Return([]domain.PricePoint{}, nil).Once()
	suite.mockRepo.On("ListHolidayDates", ctx, domain.MarketUS, start, end).Return([]time.Time{}, nil).Once()
	suite.mockProvider.On("DailyHistory", ctx, "AAPL", mock.Anything, mock.Anything).
		Return(nil, errors.New("provider down")).Once()

	_, err := suite.service.GetHistory(ctx, "AAPL", "USD", start, end)

	suite.Require().Error(err)
}

func (suite *PriceHistoryServiceTestSuite) TestNearestClose_WalksBackOverWeekend() {
	ctx := context.Background()
	sunday := day(2024, time.January, 7)
	friday := day(2024, time.January, 5)

	suite.mockRepo.On("FindNearestCloseOnOrBefore", ctx, "AAPL", "USD", sunday).
		Return(&domain.PricePoint{Symbol: "AAPL", TradeDate: friday, Close: dec("183")}, nil).Once()

	close, err := suite.service.NearestClose(ctx, "AAPL", "USD", sunday)

	suite.Require().NoError(err)
	suite.True(close.Equal(dec("183")))
	suite.mockProvider.AssertNotCalled(suite.T(), "DailyHistory")
}

func (suite *PriceHistoryServiceTestSuite) TestNearestClose_TooOldTriggersRefreshThenUnavailable() {
	ctx := context.Background()
	date := day(2024, time.March, 15)
	stale := &domain.PricePoint{Symbol: "DELISTED", TradeDate: day(2024, time.February, 1), Close: dec("9")}

	// Cached close is 43 days old, outside the 7-day walk-back window. The
	// refresh returns nothing, so the lookup fails cleanly.
	suite.mockRepo.On("FindNearestCloseOnOrBefore", ctx, "DELISTED", "USD", date).Return(stale, nil).Twice()
	suite.mockProvider.On("DailyHistory", ctx, "DELISTED", mock.Anything, mock.Anything).
		Return([]domain.PricePoint{}, nil).Once()

	_, err := suite.service.NearestClose(ctx, "DELISTED", "USD", date)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrPriceUnavailable)
}

func (suite *PriceHistoryServiceTestSuite) TestNearestClose_NothingCachedRefreshHeals() {
	ctx := context.Background()
	date := day(2024, time.March, 15)
	fetched := []domain.PricePoint{pricePoint("AAPL", day(2024, time.March, 14), "172")}

	suite.mockRepo.On("FindNearestCloseOnOrBefore", ctx, "AAPL", "USD", date).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockProvider.On("DailyHistory", ctx, "AAPL", mock.Anything, mock.Anything).Return(fetched, nil).Once()
	suite.mockRepo.On("BulkUpsertPrices", ctx, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("FindNearestCloseOnOrBefore", ctx, "AAPL", "USD", date).
		Return(&fetched[0], nil).Once()

	close, err := suite.service.NearestClose(ctx, "AAPL", "USD", date)

	suite.Require().NoError(err)
	suite.True(close.Equal(dec("172")))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *PriceHistoryServiceTestSuite) TestHolidayEvidencePromotion() {
	ctx := context.Background()
	start := day(2024, time.January, 4)
	end := day(2024, time.January, 8)
	holiday := day(2024, time.January, 5) // Friday with no bar

	// Thursday and Monday have bars; the Friday between them does not.
	fetched := []domain.PricePoint{
		pricePoint("AAPL", day(2024, time.January, 4), "184"),
		pricePoint("AAPL", day(2024, time.January, 8), "187"),
	}
	suite.mockRepo.On("ListPrices", ctx, "AAPL", "USD", start, end).Return([]domain.PricePoint{}, nil).Once()
	suite.mockRepo.On("ListHolidayDates", ctx, domain.MarketUS, start, end).Return([]time.Time{}, nil).Once()
	suite.mockProvider.On("DailyHistory", ctx, "AAPL", mock.Anything, mock.Anything).Return(fetched, nil).Once()
	suite.mockRepo.On("BulkUpsertPrices", ctx, mock.Anything).Return(nil).Once()

	suite.mockRepo.On("IsHoliday", ctx, domain.MarketUS, holiday).Return(false, nil).Once()
	suite.mockRepo.On("RecordAttempt", ctx, mock.MatchedBy(func(a domain.HolidayAttempt) bool {
		return a.Market == domain.MarketUS && a.HolidayDate.Equal(holiday) && a.Symbol == "AAPL"
	})).Return(nil).Once()
	// Fifth distinct symbol showing the same hole promotes the date.
	suite.mockRepo.On("CountAttemptSymbols", ctx, domain.MarketUS, holiday).Return(5, nil).Once()
	suite.mockRepo.On("SaveHoliday", ctx, mock.MatchedBy(func(h domain.MarketHoliday) bool {
		return h.Market == domain.MarketUS && h.HolidayDate.Equal(holiday)
	})).Return(nil).Once()

	suite.mockRepo.On("ListPrices", ctx, "AAPL", "USD", start, end).Return(fetched, nil).Once()

	points, err := suite.service.GetHistory(ctx, "AAPL", "USD", start, end)

	suite.Require().NoError(err)
	suite.Len(points, 2)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *PriceHistoryServiceTestSuite) TestRefreshSymbols_ContinuesPastFailures() {
	ctx := context.Background()

	suite.mockRepo.On("LatestTradeDate", ctx, "AAPL", "USD").Return(nil, nil).Once()
	suite.mockRepo.On("LatestTradeDate", ctx, "XEQT.TO", "CAD").Return(nil, nil).Once()
	suite.mockProvider.On("DailyHistory", ctx, "AAPL", mock.Anything, mock.Anything).
		Return(nil, errors.New("provider down")).Once()
	suite.mockProvider.On("DailyHistory", ctx, "XEQT.TO", mock.Anything, mock.Anything).
		Return([]domain.PricePoint{pricePoint("XEQT.TO", domain.Today().AddDate(0, 0, -1), "34")}, nil).Once()
	suite.mockRepo.On("BulkUpsertPrices", ctx, mock.Anything).Return(nil).Once()

	err := suite.service.RefreshSymbols(ctx, map[string]string{"AAPL": "USD", "XEQT.TO": "CAD"})

	suite.Require().NoError(err)
	suite.mockProvider.AssertExpectations(suite.T())
}

func TestPriceHistoryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PriceHistoryServiceTestSuite))
}
