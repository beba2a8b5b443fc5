package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/apperrors"
	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portsrepo "github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/dto"
	"github.com/famvest/portfolio_tracker_app/internal/middleware"
	"github.com/famvest/portfolio_tracker_app/internal/utils/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ledgerService owns every transaction write. Each successful write adjusts
// the authoritative cash ledger by the entry's cash impact and invalidates
// analysis caches for the account from the trade date onward, so derived
// figures never survive an edit they depend on.
type ledgerService struct {
	txnRepo       portsrepo.TransactionRepositoryFacade
	accountRepo   portsrepo.AccountRepositoryFacade
	analysisCache portssvc.AnalysisCacheSvc
}

// NewLedgerService creates the transaction ledger service.
func NewLedgerService(
	txnRepo portsrepo.TransactionRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	analysisCache portssvc.AnalysisCacheSvc,
) portssvc.LedgerSvcFacade {
	return &ledgerService{
		txnRepo:       txnRepo,
		accountRepo:   accountRepo,
		analysisCache: analysisCache,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// GetTransactionByID retrieves a single ledger entry.
func (s *ledgerService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return s.txnRepo.FindTransactionByID(ctx, transactionID)
}

// ListTransactions retrieves ledger entries for an account, newest first,
// with token-based pagination over (trade_date, created_at).
func (s *ledgerService) ListTransactions(ctx context.Context, accountID string, limit int, pageToken string) ([]domain.Transaction, string, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	txns, err := s.txnRepo.ListTransactions(ctx, accountID, portsrepo.TransactionListOptions{})
	if err != nil {
		return nil, "", err
	}

	// Repository order is oldest-first for replay; listings read newest-first.
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].TradeDate.Equal(txns[j].TradeDate) {
			return txns[i].TradeDate.After(txns[j].TradeDate)
		}
		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})

	start := 0
	if pageToken != "" {
		tokenDate, tokenCreated, err := pagination.DecodeToken(pageToken)
		if err != nil {
			return nil, "", apperrors.NewValidationError("invalid page token")
		}
		for i, txn := range txns {
			if txn.TradeDate.Before(tokenDate) ||
				(txn.TradeDate.Equal(tokenDate) && txn.CreatedAt.Before(tokenCreated)) {
				start = i
				break
			}
			start = len(txns)
		}
	}

	end := start + limit
	if end > len(txns) {
		end = len(txns)
	}
	page := txns[start:end]

	nextToken := ""
	if end < len(txns) {
		last := page[len(page)-1]
		nextToken = pagination.EncodeToken(last.TradeDate, last.CreatedAt)
	}
	return page, nextToken, nil
}

// CreateTransaction validates and persists a new ledger entry.
func (s *ledgerService) CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, creatorMemberID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.accountRepo.FindAccountByID(ctx, req.AccountID); err != nil {
		return nil, err
	}

	now := time.Now()
	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		AccountID:     req.AccountID,
		TradeDate:     domain.NormalizeDate(req.TradeDate),
		Type:          domain.TransactionType(req.Type),
		Symbol:        strings.ToUpper(req.Symbol),
		Quantity:      req.Quantity,
		Price:         req.Price,
		Fee:           req.Fee,
		Amount:        req.Amount,
		CurrencyCode:  strings.ToUpper(req.CurrencyCode),
		Notes:         req.Notes,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorMemberID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorMemberID,
		},
	}

	if err := validateTransaction(txn); err != nil {
		return nil, err
	}
	if err := s.checkSymbolCurrency(ctx, txn.Symbol, txn.CurrencyCode); err != nil {
		return nil, err
	}

	if err := s.txnRepo.SaveTransaction(ctx, txn); err != nil {
		return nil, err
	}

	if err := s.applyCashImpact(ctx, txn.AccountID, txn.CurrencyCode, txn.CashImpact(), creatorMemberID); err != nil {
		logger.Error("Transaction saved but cash adjustment failed",
			slog.String("transaction_id", txn.TransactionID),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.invalidateFrom(ctx, txn.AccountID, txn.TradeDate)
	logger.Info("Transaction created",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("account_id", txn.AccountID),
		slog.String("type", string(txn.Type)))
	return &txn, nil
}

// UpdateTransaction replaces an existing entry. Cash is reverted for the old
// entry and applied for the new one; caches are invalidated from the earlier
// of the two trade dates.
func (s *ledgerService) UpdateTransaction(ctx context.Context, transactionID string, req dto.UpdateTransactionRequest, updaterMemberID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	existing, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.TradeDate = domain.NormalizeDate(req.TradeDate)
	updated.Type = domain.TransactionType(req.Type)
	updated.Symbol = strings.ToUpper(req.Symbol)
	updated.Quantity = req.Quantity
	updated.Price = req.Price
	updated.Fee = req.Fee
	updated.Amount = req.Amount
	updated.CurrencyCode = strings.ToUpper(req.CurrencyCode)
	updated.Notes = req.Notes
	updated.LastUpdatedAt = time.Now()
	updated.LastUpdatedBy = updaterMemberID

	if err := validateTransaction(updated); err != nil {
		return nil, err
	}
	if updated.Symbol != existing.Symbol || updated.CurrencyCode != existing.CurrencyCode {
		if err := s.checkSymbolCurrency(ctx, updated.Symbol, updated.CurrencyCode); err != nil {
			return nil, err
		}
	}

	if err := s.txnRepo.UpdateTransaction(ctx, updated); err != nil {
		return nil, err
	}

	// Revert the old entry's cash effect, then apply the new one.
	if err := s.applyCashImpact(ctx, existing.AccountID, existing.CurrencyCode, existing.CashImpact().Neg(), updaterMemberID); err != nil {
		return nil, err
	}
	if err := s.applyCashImpact(ctx, updated.AccountID, updated.CurrencyCode, updated.CashImpact(), updaterMemberID); err != nil {
		return nil, err
	}

	invalidateDate := updated.TradeDate
	if existing.TradeDate.Before(invalidateDate) {
		invalidateDate = existing.TradeDate
	}
	s.invalidateFrom(ctx, updated.AccountID, invalidateDate)
	logger.Info("Transaction updated", slog.String("transaction_id", transactionID))
	return &updated, nil
}

// DeleteTransaction removes an entry and reverts its cash effect.
func (s *ledgerService) DeleteTransaction(ctx context.Context, transactionID string, deleterMemberID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	existing, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return err
	}

	if err := s.txnRepo.DeleteTransaction(ctx, transactionID); err != nil {
		return err
	}

	if err := s.applyCashImpact(ctx, existing.AccountID, existing.CurrencyCode, existing.CashImpact().Neg(), deleterMemberID); err != nil {
		return err
	}

	s.invalidateFrom(ctx, existing.AccountID, existing.TradeDate)
	logger.Info("Transaction deleted",
		slog.String("transaction_id", transactionID),
		slog.String("account_id", existing.AccountID))
	return nil
}

// applyCashImpact adds delta to the (account, currency) cash row.
func (s *ledgerService) applyCashImpact(ctx context.Context, accountID, currencyCode string, delta decimal.Decimal, memberID string) error {
	if delta.IsZero() {
		return nil
	}

	balances, err := s.accountRepo.FindCashBalances(ctx, accountID)
	if err != nil {
		return err
	}
	current := decimal.Zero
	createdAt := time.Now()
	for _, b := range balances {
		if b.CurrencyCode == currencyCode {
			current = b.Balance
			createdAt = b.CreatedAt
			break
		}
	}

	now := time.Now()
	return s.accountRepo.UpsertCashBalance(ctx, domain.CashBalance{
		AccountID:    accountID,
		CurrencyCode: currencyCode,
		Balance:      current.Add(delta),
		AuditFields: domain.AuditFields{
			CreatedAt:     createdAt,
			CreatedBy:     memberID,
			LastUpdatedAt: now,
			LastUpdatedBy: memberID,
		},
	})
}

// invalidateFrom drops derived results for the account. Failures are logged;
// the staleness check catches anything missed on the next read.
func (s *ledgerService) invalidateFrom(ctx context.Context, accountID string, fromDate time.Time) {
	if err := s.analysisCache.Invalidate(ctx, accountID, &fromDate); err != nil {
		logger := middleware.GetLoggerFromCtx(ctx)
		logger.Warn("Failed to invalidate analysis cache",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()))
	}
}

// checkSymbolCurrency enforces that a symbol trades in exactly one currency
// across the household ledger. The first entry for a symbol fixes its
// currency; a later entry in another currency is rejected here instead of
// poisoning every downstream lot replay.
func (s *ledgerService) checkSymbolCurrency(ctx context.Context, symbol, currencyCode string) error {
	if symbol == "" {
		return nil
	}
	fixed, err := s.txnRepo.FindSymbolCurrency(ctx, symbol)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if fixed != currencyCode {
		return apperrors.NewValidationError(
			fmt.Sprintf("currency mismatch: %s already trades in %s", symbol, fixed))
	}
	return nil
}

// validateTransaction enforces the type-specific field rules.
func validateTransaction(txn domain.Transaction) error {
	if !domain.ValidTransactionType(string(txn.Type)) {
		return apperrors.NewValidationError(fmt.Sprintf("unknown transaction type %q", txn.Type))
	}

	switch txn.Type {
	case domain.Buy, domain.Sell:
		if txn.Symbol == "" {
			return apperrors.NewValidationError("trades require a symbol")
		}
		if !txn.Quantity.IsPositive() {
			return apperrors.NewValidationError("trade quantity must be positive")
		}
		if txn.Price.IsNegative() {
			return apperrors.NewValidationError("trade price cannot be negative")
		}
		if txn.Fee.IsNegative() {
			return apperrors.NewValidationError("trade fee cannot be negative")
		}
	case domain.Deposit, domain.Withdrawal, domain.Fee:
		if !txn.Amount.IsPositive() {
			return apperrors.NewValidationError(fmt.Sprintf("%s amount must be positive", strings.ToLower(string(txn.Type))))
		}
	case domain.Dividend, domain.Interest:
		if !txn.Amount.IsPositive() {
			return apperrors.NewValidationError(fmt.Sprintf("%s amount must be positive", strings.ToLower(string(txn.Type))))
		}
	}
	return nil
}
