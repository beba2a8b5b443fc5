package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockValuationSvc is a mock type for the ValuationSvc interface
type MockValuationSvc struct {
	mock.Mock
}

func (m *MockValuationSvc) GetAssetSnapshot(ctx context.Context, accountID string, asOf time.Time) (*domain.AssetSnapshot, error) {
	args := m.Called(ctx, accountID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssetSnapshot), args.Error(1)
}

// MockPositionSvc is a mock type for the PositionSvc interface
type MockPositionSvc struct {
	mock.Mock
}

func (m *MockPositionSvc) GetPositionSnapshot(ctx context.Context, symbol, accountID string, asOf time.Time) (*domain.PositionSnapshot, error) {
	args := m.Called(ctx, symbol, accountID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PositionSnapshot), args.Error(1)
}

func (m *MockPositionSvc) GetTotalPosition(ctx context.Context, symbol string, accountIDs []string, asOf time.Time) (*domain.PositionSnapshot, error) {
	args := m.Called(ctx, symbol, accountIDs, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PositionSnapshot), args.Error(1)
}

func (m *MockPositionSvc) ListPositions(ctx context.Context, accountID string, asOf time.Time) ([]domain.PositionSnapshot, error) {
	args := m.Called(ctx, accountID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PositionSnapshot), args.Error(1)
}

// MockConversionSvc is a mock type for the ConversionSvc interface
type MockConversionSvc struct {
	mock.Mock
}

func (m *MockConversionSvc) Rate(ctx context.Context, fromCode, toCode string, date time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, fromCode, toCode, date)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockConversionSvc) AnnualAverageRate(ctx context.Context, fromCode, toCode string, year int) (decimal.Decimal, error) {
	args := m.Called(ctx, fromCode, toCode, year)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockConversionSvc) Convert(ctx context.Context, amount decimal.Decimal, fromCode, toCode string, date time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, amount, fromCode, toCode, date)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockConversionSvc) RefreshDailyRates(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// totalsSnapshot builds a snapshot whose assets are entirely cash.
func totalsSnapshot(total string) *domain.AssetSnapshot {
	t := dec(total)
	return &domain.AssetSnapshot{
		StockMarketValue:     decimal.Zero,
		CashBalances:         map[string]decimal.Decimal{domain.ReportingCurrency: t},
		CashBalanceReporting: t,
		TotalAssets:          t,
		Reconstruction:       domain.CashReconstruction{Method: domain.CashForwardReplay, HighConfidence: true},
	}
}

// --- Test Suite Setup ---

type PeriodServiceTestSuite struct {
	suite.Suite
	mockValuation  *MockValuationSvc
	mockPosition   *MockPositionSvc
	mockTxnReader  *MockTransactionReader
	mockConversion *MockConversionSvc
	service        portssvc.PeriodAnalyzerSvc
}

func (suite *PeriodServiceTestSuite) SetupTest() {
	suite.mockValuation = new(MockValuationSvc)
	suite.mockPosition = new(MockPositionSvc)
	suite.mockTxnReader = new(MockTransactionReader)
	suite.mockConversion = new(MockConversionSvc)
	suite.service = services.NewPeriodAnalyzerService(
		suite.mockValuation, suite.mockPosition, suite.mockTxnReader, suite.mockConversion)
}

// --- Test Cases ---

// Adjacent quarters must share their boundary snapshot so that quarterly
// deltas sum to the half-year delta, even when the assets step on a
// non-trading day at the boundary (Saturday 2024-03-30 here).
func (suite *PeriodServiceTestSuite) TestGetPeriodStats_QuartersSumToWholePeriod() {
	ctx := context.Background()
	accounts := []string{"acct-1"}
	stepDate := day(2024, time.March, 30)

	suite.mockTxnReader.On("ListTransactionsForAccounts", ctx, accounts, mock.Anything).
		Return([]domain.Transaction{}, nil)
	suite.mockPosition.On("ListPositions", ctx, "acct-1", mock.Anything).
		Return([]domain.PositionSnapshot{}, nil)
	suite.mockValuation.On("GetAssetSnapshot", ctx, "acct-1", mock.MatchedBy(func(d time.Time) bool {
		return d.Before(stepDate)
	})).Return(totalsSnapshot("0"), nil)
	suite.mockValuation.On("GetAssetSnapshot", ctx, "acct-1", mock.Anything).
		Return(totalsSnapshot("100"), nil)

	q1, err := suite.service.GetPeriodStats(ctx, accounts, domain.QuarterPeriod(2024, 1))
	suite.Require().NoError(err)
	q2, err := suite.service.GetPeriodStats(ctx, accounts, domain.QuarterPeriod(2024, 2))
	suite.Require().NoError(err)
	half, err := suite.service.GetPeriodStats(ctx, accounts,
		domain.CustomPeriod(day(2024, time.January, 1), day(2024, time.June, 30)))
	suite.Require().NoError(err)

	suite.True(q1.TotalAssetsChange.Equal(dec("100")), "Q1 captures the weekend step: %s", q1.TotalAssetsChange)
	suite.True(q2.TotalAssetsChange.IsZero(), "Q2 must not recount it: %s", q2.TotalAssetsChange)
	suite.True(half.TotalAssetsChange.Equal(q1.TotalAssetsChange.Add(q2.TotalAssetsChange)))

	// The shared boundary: Q2 opens exactly where Q1 closed.
	suite.True(q2.StartSnapshot.TotalAssets.Equal(q1.EndSnapshot.TotalAssets))
}

func (suite *PeriodServiceTestSuite) TestGetPeriodStats_SumsFlowsInsideWindow() {
	ctx := context.Background()
	accounts := []string{"acct-1"}
	period := domain.CustomPeriod(day(2024, time.January, 1), day(2024, time.January, 31))

	txns := []domain.Transaction{
		{Type: domain.Deposit, Amount: dec("1000"), CurrencyCode: "CAD", TradeDate: day(2024, time.January, 10)},
		{Type: domain.Dividend, Amount: dec("20"), CurrencyCode: "USD", TradeDate: day(2024, time.January, 15)},
		{Type: domain.Buy, Quantity: dec("2"), Price: dec("50"), Fee: dec("5"), CurrencyCode: "USD", TradeDate: day(2024, time.January, 20)},
	}
	suite.mockTxnReader.On("ListTransactionsForAccounts", ctx, accounts, mock.Anything).
		Return(txns, nil)
	suite.mockPosition.On("ListPositions", ctx, "acct-1", mock.Anything).
		Return([]domain.PositionSnapshot{}, nil)
	suite.mockValuation.On("GetAssetSnapshot", ctx, "acct-1", mock.Anything).
		Return(totalsSnapshot("1000"), nil)

	suite.mockConversion.On("Convert", ctx, dec("1000"), "CAD", "CAD", day(2024, time.January, 10)).
		Return(dec("1000"), nil)
	suite.mockConversion.On("Convert", ctx, dec("20"), "USD", "CAD", day(2024, time.January, 15)).
		Return(dec("27"), nil)
	// Only the fee of a trade is a flow; the principal is a cash<->stock swap.
	suite.mockConversion.On("Convert", ctx, dec("5"), "USD", "CAD", day(2024, time.January, 20)).
		Return(dec("6.75"), nil)

	stats, err := suite.service.GetPeriodStats(ctx, accounts, period)

	suite.Require().NoError(err)
	suite.True(stats.Deposits.Equal(dec("1000")))
	suite.True(stats.Dividends.Equal(dec("27")))
	suite.True(stats.Fees.Equal(dec("6.75")))
	suite.True(stats.Withdrawals.IsZero())
	suite.mockConversion.AssertExpectations(suite.T())
}

func (suite *PeriodServiceTestSuite) TestGetPeriodStats_RejectsBadInput() {
	ctx := context.Background()

	_, err := suite.service.GetPeriodStats(ctx, nil, domain.YearPeriod(2023))
	suite.Error(err)

	_, err = suite.service.GetPeriodStats(ctx, []string{"acct-1"},
		domain.CustomPeriod(day(2024, time.March, 1), day(2024, time.February, 1)))
	suite.Error(err)
	suite.mockValuation.AssertNotCalled(suite.T(), "GetAssetSnapshot")
}

func TestPeriodServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PeriodServiceTestSuite))
}
