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
	"github.com/famvest/portfolio_tracker_app/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockTransactionRepository is a mock type for the TransactionRepositoryFacade interface
type MockTransactionRepository struct {
	MockTransactionReader
}

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) UpdateTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) DeleteTransaction(ctx context.Context, transactionID string) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}

// MockAccountRepository is a mock type for the AccountRepositoryFacade interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, memberID string) ([]domain.Account, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) LatestUpdatedAt(ctx context.Context, accountIDs []string) (*time.Time, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindCashBalances(ctx context.Context, accountID string) ([]domain.CashBalance, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CashBalance), args.Error(1)
}

func (m *MockAccountRepository) UpsertCashBalance(ctx context.Context, balance domain.CashBalance) error {
	args := m.Called(ctx, balance)
	return args.Error(0)
}

// MockAnalysisCacheSvc is a mock type for the AnalysisCacheSvc interface
type MockAnalysisCacheSvc struct {
	mock.Mock
}

func (m *MockAnalysisCacheSvc) GetOrCompute(ctx context.Context, cacheType domain.AnalysisCacheType, accountIDs []string, params any, computeFn portssvc.ComputeFunc) (json.RawMessage, error) {
	args := m.Called(ctx, cacheType, accountIDs, params, computeFn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockAnalysisCacheSvc) Invalidate(ctx context.Context, accountID string, fromDate *time.Time) error {
	args := m.Called(ctx, accountID, fromDate)
	return args.Error(0)
}

func (m *MockAnalysisCacheSvc) InvalidateAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAnalysisCacheSvc) Statistics(ctx context.Context) (*domain.AnalysisCacheStatistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisCacheStatistics), args.Error(1)
}

// --- Test Suite Setup ---

type LedgerServiceTestSuite struct {
	suite.Suite
	mockTxnRepo     *MockTransactionRepository
	mockAccountRepo *MockAccountRepository
	mockCache       *MockAnalysisCacheSvc
	service         portssvc.LedgerSvcFacade
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockCache = new(MockAnalysisCacheSvc)
	suite.service = services.NewLedgerService(suite.mockTxnRepo, suite.mockAccountRepo, suite.mockCache)
}

// --- Test Cases ---

func (suite *LedgerServiceTestSuite) TestCreateTransaction_BuyAdjustsCash() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		AccountID:    "acct-1",
		TradeDate:    day(2024, time.March, 5),
		Type:         "BUY",
		Symbol:       "aapl",
		Quantity:     dec("10"),
		Price:        dec("100"),
		Fee:          dec("5"),
		CurrencyCode: "USD",
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acct-1").
		Return(&domain.Account{AccountID: "acct-1"}, nil).Once()
	suite.mockTxnRepo.On("FindSymbolCurrency", ctx, "AAPL").Return("USD", nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.Symbol == "AAPL" && txn.Type == domain.Buy && txn.TransactionID != ""
	})).Return(nil).Once()
	suite.mockAccountRepo.On("FindCashBalances", ctx, "acct-1").Return([]domain.CashBalance{
		{AccountID: "acct-1", CurrencyCode: "USD", Balance: dec("2000")},
	}, nil).Once()
	// A 10 @ 100 buy with a 5 fee moves -1005 of cash.
	suite.mockAccountRepo.On("UpsertCashBalance", ctx, mock.MatchedBy(func(b domain.CashBalance) bool {
		return b.CurrencyCode == "USD" && b.Balance.Equal(dec("995"))
	})).Return(nil).Once()
	suite.mockCache.On("Invalidate", ctx, "acct-1", mock.AnythingOfType("*time.Time")).Return(nil).Once()

	txn, err := suite.service.CreateTransaction(ctx, req, "member-1")

	suite.Require().NoError(err)
	suite.Equal("AAPL", txn.Symbol)
	suite.Equal("member-1", txn.CreatedBy)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockAccountRepo.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestCreateTransaction_FirstEntryFixesSymbolCurrency() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		AccountID:    "acct-1",
		TradeDate:    day(2024, time.March, 5),
		Type:         "BUY",
		Symbol:       "XEQT.TO",
		Quantity:     dec("4"),
		Price:        dec("30"),
		CurrencyCode: "CAD",
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acct-1").
		Return(&domain.Account{AccountID: "acct-1"}, nil).Once()
	// Never-traded symbol: the write fixes its currency.
	suite.mockTxnRepo.On("FindSymbolCurrency", ctx, "XEQT.TO").
		Return("", apperrors.ErrNotFound).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.Anything).Return(nil).Once()
	suite.mockAccountRepo.On("FindCashBalances", ctx, "acct-1").
		Return([]domain.CashBalance{}, nil).Once()
	suite.mockAccountRepo.On("UpsertCashBalance", ctx, mock.Anything).Return(nil).Once()
	suite.mockCache.On("Invalidate", ctx, "acct-1", mock.AnythingOfType("*time.Time")).Return(nil).Once()

	_, err := suite.service.CreateTransaction(ctx, req, "member-1")

	suite.Require().NoError(err)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestCreateTransaction_SecondCurrencyForSymbolFails() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		AccountID:    "acct-1",
		TradeDate:    day(2024, time.March, 5),
		Type:         "BUY",
		Symbol:       "AAPL",
		Quantity:     dec("5"),
		Price:        dec("100"),
		CurrencyCode: "CAD",
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acct-1").
		Return(&domain.Account{AccountID: "acct-1"}, nil).Once()
	// The symbol's first ledger entry fixed its currency to USD.
	suite.mockTxnRepo.On("FindSymbolCurrency", ctx, "AAPL").Return("USD", nil).Once()

	_, err := suite.service.CreateTransaction(ctx, req, "member-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction")
}

func (suite *LedgerServiceTestSuite) TestCreateTransaction_TradeWithoutSymbolFails() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		AccountID:    "acct-1",
		TradeDate:    day(2024, time.March, 5),
		Type:         "SELL",
		Quantity:     dec("10"),
		Price:        dec("100"),
		CurrencyCode: "USD",
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acct-1").
		Return(&domain.Account{AccountID: "acct-1"}, nil).Once()

	_, err := suite.service.CreateTransaction(ctx, req, "member-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction")
}

func (suite *LedgerServiceTestSuite) TestCreateTransaction_NegativeDepositFails() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		AccountID:    "acct-1",
		TradeDate:    day(2024, time.March, 5),
		Type:         "DEPOSIT",
		Amount:       dec("-100"),
		CurrencyCode: "CAD",
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acct-1").
		Return(&domain.Account{AccountID: "acct-1"}, nil).Once()

	_, err := suite.service.CreateTransaction(ctx, req, "member-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestCreateTransaction_UnknownAccountFails() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		AccountID:    "nope",
		TradeDate:    day(2024, time.March, 5),
		Type:         "DEPOSIT",
		Amount:       dec("100"),
		CurrencyCode: "CAD",
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, "nope").
		Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.CreateTransaction(ctx, req, "member-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction")
}

func (suite *LedgerServiceTestSuite) TestDeleteTransaction_RevertsCashImpact() {
	ctx := context.Background()
	existing := &domain.Transaction{
		TransactionID: "txn-1",
		AccountID:     "acct-1",
		TradeDate:     day(2024, time.February, 1),
		Type:          domain.Buy,
		Symbol:        "AAPL",
		Quantity:      dec("10"),
		Price:         dec("100"),
		Fee:           dec("5"),
		CurrencyCode:  "USD",
	}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(existing, nil).Once()
	suite.mockTxnRepo.On("DeleteTransaction", ctx, "txn-1").Return(nil).Once()
	suite.mockAccountRepo.On("FindCashBalances", ctx, "acct-1").Return([]domain.CashBalance{
		{AccountID: "acct-1", CurrencyCode: "USD", Balance: dec("995")},
	}, nil).Once()
	// Deleting the buy puts the 1005 back.
	suite.mockAccountRepo.On("UpsertCashBalance", ctx, mock.MatchedBy(func(b domain.CashBalance) bool {
		return b.Balance.Equal(dec("2000"))
	})).Return(nil).Once()
	suite.mockCache.On("Invalidate", ctx, "acct-1", mock.AnythingOfType("*time.Time")).Return(nil).Once()

	err := suite.service.DeleteTransaction(ctx, "txn-1", "member-1")

	suite.Require().NoError(err)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestUpdateTransaction_RevertsOldAppliesNew() {
	ctx := context.Background()
	existing := &domain.Transaction{
		TransactionID: "txn-1",
		AccountID:     "acct-1",
		TradeDate:     day(2024, time.February, 1),
		Type:          domain.Deposit,
		Amount:        dec("500"),
		CurrencyCode:  "CAD",
	}
	req := dto.UpdateTransactionRequest{
		TradeDate:    day(2024, time.January, 15),
		Type:         "DEPOSIT",
		Amount:       dec("750"),
		CurrencyCode: "CAD",
	}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(existing, nil).Once()
	suite.mockTxnRepo.On("UpdateTransaction", ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.Amount.Equal(dec("750")) && txn.TradeDate.Equal(day(2024, time.January, 15))
	})).Return(nil).Once()

	// First the old +500 is reverted, then the new +750 applied.
	suite.mockAccountRepo.On("FindCashBalances", ctx, "acct-1").Return([]domain.CashBalance{
		{AccountID: "acct-1", CurrencyCode: "CAD", Balance: dec("500")},
	}, nil).Once()
	suite.mockAccountRepo.On("UpsertCashBalance", ctx, mock.MatchedBy(func(b domain.CashBalance) bool {
		return b.Balance.Equal(dec("0"))
	})).Return(nil).Once()
	suite.mockAccountRepo.On("FindCashBalances", ctx, "acct-1").Return([]domain.CashBalance{
		{AccountID: "acct-1", CurrencyCode: "CAD", Balance: dec("0")},
	}, nil).Once()
	suite.mockAccountRepo.On("UpsertCashBalance", ctx, mock.MatchedBy(func(b domain.CashBalance) bool {
		return b.Balance.Equal(dec("750"))
	})).Return(nil).Once()

	// Invalidation starts at the earlier of the two trade dates.
	suite.mockCache.On("Invalidate", ctx, "acct-1", mock.MatchedBy(func(from *time.Time) bool {
		return from != nil && from.Equal(day(2024, time.January, 15))
	})).Return(nil).Once()

	updated, err := suite.service.UpdateTransaction(ctx, "txn-1", req, "member-1")

	suite.Require().NoError(err)
	suite.True(updated.Amount.Equal(dec("750")))
	suite.mockAccountRepo.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestListTransactions_PaginatesNewestFirst() {
	ctx := context.Background()
	base := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	txns := []domain.Transaction{
		{TransactionID: "t1", TradeDate: day(2024, time.January, 1), AuditFields: domain.AuditFields{CreatedAt: base}},
		{TransactionID: "t2", TradeDate: day(2024, time.February, 1), AuditFields: domain.AuditFields{CreatedAt: base.Add(time.Hour)}},
		{TransactionID: "t3", TradeDate: day(2024, time.March, 1), AuditFields: domain.AuditFields{CreatedAt: base.Add(2 * time.Hour)}},
	}
	suite.mockTxnRepo.On("ListTransactions", ctx, "acct-1", mock.Anything).Return(txns, nil).Twice()

	page, token, err := suite.service.ListTransactions(ctx, "acct-1", 2, "")
	suite.Require().NoError(err)
	suite.Require().Len(page, 2)
	suite.Equal("t3", page[0].TransactionID)
	suite.Equal("t2", page[1].TransactionID)
	suite.NotEmpty(token)

	rest, nextToken, err := suite.service.ListTransactions(ctx, "acct-1", 2, token)
	suite.Require().NoError(err)
	suite.Require().Len(rest, 1)
	suite.Equal("t1", rest[0].TransactionID)
	suite.Empty(nextToken)
}

func (suite *LedgerServiceTestSuite) TestListTransactions_InvalidTokenFails() {
	ctx := context.Background()
	suite.mockTxnRepo.On("ListTransactions", ctx, "acct-1", mock.Anything).
		Return([]domain.Transaction{}, nil).Once()

	_, _, err := suite.service.ListTransactions(ctx, "acct-1", 10, "not-a-token")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
