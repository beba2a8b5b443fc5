package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Setup ---

type ValuationServiceTestSuite struct {
	suite.Suite
	mockPosition    *MockPositionSvc
	mockAccountRepo *MockAccountRepository
	mockTxnReader   *MockTransactionReader
	mockConversion  *MockConversionSvc
	service         portssvc.ValuationSvc
}

func (suite *ValuationServiceTestSuite) SetupTest() {
	suite.mockPosition = new(MockPositionSvc)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockTxnReader = new(MockTransactionReader)
	suite.mockConversion = new(MockConversionSvc)
	suite.service = services.NewValuationService(
		suite.mockPosition, suite.mockAccountRepo, suite.mockTxnReader, suite.mockConversion)
}

// --- Test Cases ---

// Depositing 1000 and spending all of it on stock leaves zero cash and 1000
// of total assets: the deposit and the buy net out through the cash ledger.
func (suite *ValuationServiceTestSuite) TestGetAssetSnapshot_DepositAndBuyNetToStockValue() {
	ctx := context.Background()
	today := domain.Today()

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acct-1").
		Return(&domain.Account{AccountID: "acct-1"}, nil).Once()
	suite.mockTxnReader.On("ListSymbols", ctx, "acct-1", today).
		Return([]string{"XEQT.TO"}, nil).Once()
	suite.mockPosition.On("GetPositionSnapshot", ctx, "XEQT.TO", "acct-1", today).
		Return(&domain.PositionSnapshot{
			Symbol:        "XEQT.TO",
			CurrencyCode:  "CAD",
			CurrentShares: dec("10"),
			CurrentValue:  dec("1000"),
		}, nil).Once()
	suite.mockConversion.On("Convert", ctx, dec("1000"), "CAD", "CAD", today).
		Return(dec("1000"), nil).Once()
	suite.mockAccountRepo.On("FindCashBalances", ctx, "acct-1").
		Return([]domain.CashBalance{
			{AccountID: "acct-1", CurrencyCode: "CAD", Balance: dec("0")},
		}, nil).Once()
	suite.mockConversion.On("Convert", ctx, dec("0"), "CAD", "CAD", today).
		Return(dec("0"), nil).Once()

	snap, err := suite.service.GetAssetSnapshot(ctx, "acct-1", today)

	suite.Require().NoError(err)
	suite.True(snap.StockMarketValue.Equal(dec("1000")))
	suite.True(snap.CashBalanceReporting.IsZero())
	suite.True(snap.TotalAssets.Equal(dec("1000")))
	suite.Equal(domain.CashFromLedger, snap.Reconstruction.Method)
	suite.True(snap.Reconstruction.HighConfidence)
	suite.mockPosition.AssertExpectations(suite.T())
}

func (suite *ValuationServiceTestSuite) TestGetAssetSnapshot_ForwardReplayForPastDates() {
	ctx := context.Background()
	asOf := day(2024, time.June, 30)

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acct-1").
		Return(&domain.Account{AccountID: "acct-1"}, nil).Once()
	suite.mockTxnReader.On("ListSymbols", ctx, "acct-1", asOf).
		Return([]string{}, nil).Once()
	suite.mockTxnReader.On("ListTransactions", ctx, "acct-1", mock.Anything).
		Return([]domain.Transaction{
			{Type: domain.Deposit, Amount: dec("1000"), CurrencyCode: "CAD", TradeDate: day(2024, time.January, 2)},
			{Type: domain.Buy, Quantity: dec("5"), Price: dec("100"), Fee: dec("5"), CurrencyCode: "CAD", TradeDate: day(2024, time.February, 1)},
			// Dated after asOf, must not count.
			{Type: domain.Deposit, Amount: dec("200"), CurrencyCode: "CAD", TradeDate: day(2024, time.August, 1)},
		}, nil).Once()
	suite.mockConversion.On("Convert", ctx, dec("495"), "CAD", "CAD", asOf).
		Return(dec("495"), nil).Once()

	snap, err := suite.service.GetAssetSnapshot(ctx, "acct-1", asOf)

	suite.Require().NoError(err)
	suite.True(snap.CashBalances["CAD"].Equal(dec("495")), "1000 deposited minus the 505 buy")
	suite.True(snap.TotalAssets.Equal(dec("495")))
	suite.Equal(domain.CashForwardReplay, snap.Reconstruction.Method)
	suite.True(snap.Reconstruction.HighConfidence)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "FindCashBalances")
}

// A ledger whose forward replay goes negative is incomplete: the reverse
// replay from the known present balance takes over and the gap between the
// two is reported as the implied opening supplement.
func (suite *ValuationServiceTestSuite) TestGetAssetSnapshot_ReverseReplayWhenLedgerIncomplete() {
	ctx := context.Background()
	asOf := day(2024, time.March, 31)

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acct-1").
		Return(&domain.Account{AccountID: "acct-1"}, nil).Once()
	suite.mockTxnReader.On("ListSymbols", ctx, "acct-1", asOf).
		Return([]string{}, nil).Once()
	suite.mockTxnReader.On("ListTransactions", ctx, "acct-1", mock.Anything).
		Return([]domain.Transaction{
			{Type: domain.Withdrawal, Amount: dec("1000"), CurrencyCode: "CAD", TradeDate: day(2024, time.January, 10)},
			{Type: domain.Deposit, Amount: dec("500"), CurrencyCode: "CAD", TradeDate: day(2024, time.April, 15)},
		}, nil).Once()
	suite.mockAccountRepo.On("FindCashBalances", ctx, "acct-1").
		Return([]domain.CashBalance{
			{AccountID: "acct-1", CurrencyCode: "CAD", Balance: dec("1500")},
		}, nil).Once()
	suite.mockConversion.On("Convert", ctx, dec("1000"), "CAD", "CAD", asOf).
		Return(dec("1000"), nil).Once()

	snap, err := suite.service.GetAssetSnapshot(ctx, "acct-1", asOf)

	suite.Require().NoError(err)
	suite.True(snap.CashBalances["CAD"].Equal(dec("1000")), "1500 today minus the later 500 deposit")
	suite.Equal(domain.CashReverseReplay, snap.Reconstruction.Method)
	suite.True(snap.Reconstruction.WentNegative)
	suite.False(snap.Reconstruction.HighConfidence)
	suite.True(snap.Reconstruction.NegativeFloor.Equal(dec("-1000")))
	suite.True(snap.Reconstruction.OpeningSupplement.Equal(dec("2000")))
	suite.Equal("CAD", snap.Reconstruction.SupplementCurrency)
}

func (suite *ValuationServiceTestSuite) TestGetAssetSnapshot_DegradedSymbolExcluded() {
	ctx := context.Background()
	today := domain.Today()

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acct-1").
		Return(&domain.Account{AccountID: "acct-1"}, nil).Once()
	suite.mockTxnReader.On("ListSymbols", ctx, "acct-1", today).
		Return([]string{"AAPL", "MSFT"}, nil).Once()
	suite.mockPosition.On("GetPositionSnapshot", ctx, "AAPL", "acct-1", today).
		Return(nil, errors.New("price feed down")).Once()
	suite.mockPosition.On("GetPositionSnapshot", ctx, "MSFT", "acct-1", today).
		Return(&domain.PositionSnapshot{
			Symbol:        "MSFT",
			CurrencyCode:  "USD",
			CurrentShares: dec("2"),
			CurrentValue:  dec("200"),
		}, nil).Once()
	suite.mockConversion.On("Convert", ctx, dec("200"), "USD", "CAD", today).
		Return(dec("270"), nil).Once()
	suite.mockAccountRepo.On("FindCashBalances", ctx, "acct-1").
		Return([]domain.CashBalance{}, nil).Once()

	snap, err := suite.service.GetAssetSnapshot(ctx, "acct-1", today)

	suite.Require().NoError(err)
	suite.True(snap.TotalAssets.Equal(dec("270")), "the degraded symbol is excluded, not fatal")
	suite.Equal([]string{"AAPL"}, snap.DegradedSymbols)
}

func (suite *ValuationServiceTestSuite) TestGetAssetSnapshot_Idempotent() {
	ctx := context.Background()
	asOf := day(2024, time.May, 31)

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acct-1").
		Return(&domain.Account{AccountID: "acct-1"}, nil)
	suite.mockTxnReader.On("ListSymbols", ctx, "acct-1", asOf).
		Return([]string{}, nil)
	suite.mockTxnReader.On("ListTransactions", ctx, "acct-1", mock.Anything).
		Return([]domain.Transaction{
			{Type: domain.Deposit, Amount: dec("100"), CurrencyCode: "CAD", TradeDate: day(2024, time.January, 2)},
		}, nil)
	suite.mockConversion.On("Convert", ctx, dec("100"), "CAD", "CAD", asOf).
		Return(dec("100"), nil)

	first, err := suite.service.GetAssetSnapshot(ctx, "acct-1", asOf)
	suite.Require().NoError(err)
	second, err := suite.service.GetAssetSnapshot(ctx, "acct-1", asOf)
	suite.Require().NoError(err)

	suite.Equal(first, second)
}

func TestValuationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ValuationServiceTestSuite))
}
