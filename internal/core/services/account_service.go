package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/apperrors"
	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portsrepo "github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/dto"
	"github.com/famvest/portfolio_tracker_app/internal/middleware"
	"github.com/google/uuid"
)

type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates the account service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount persists a new account for a household member.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorMemberID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now()
	account := domain.Account{
		AccountID:    uuid.NewString(),
		MemberID:     req.MemberID,
		Name:         req.Name,
		AccountType:  req.AccountType,
		CurrencyCode: strings.ToUpper(req.CurrencyCode),
		Broker:       req.Broker,
		IsActive:     true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorMemberID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorMemberID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, err
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("member_id", account.MemberID))
	return &account, nil
}

// GetAccountByID retrieves a specific account.
func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger := middleware.GetLoggerFromCtx(ctx)
			logger.Error("Failed to find account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

// ListAccounts retrieves accounts, optionally limited to a member.
func (s *accountService) ListAccounts(ctx context.Context, memberID string) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

// GetCurrentCash reads the authoritative present-day cash balances.
func (s *accountService) GetCurrentCash(ctx context.Context, accountID string) ([]domain.CashBalance, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, err
	}
	balances, err := s.accountRepo.FindCashBalances(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cash balances: %w", err)
	}
	return balances, nil
}

// DeactivateAccount soft-disables an account. Its history stays queryable.
func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, updaterMemberID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !account.IsActive {
		return apperrors.NewValidationError("account is already inactive")
	}

	account.IsActive = false
	account.LastUpdatedAt = time.Now()
	account.LastUpdatedBy = updaterMemberID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to deactivate account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return err
	}

	logger.Info("Account deactivated", slog.String("account_id", accountID))
	return nil
}
