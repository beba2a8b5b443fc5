package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portsrepo "github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the recurring maintenance jobs: topping up the price cache
// and daily exchange rates each morning, and sweeping expired API tokens.
type Scheduler struct {
	cron         *cron.Cron
	logger       *slog.Logger
	conversion   portssvc.ConversionSvc
	priceHistory portssvc.PriceHistorySvc
	accountRepo  portsrepo.AccountRepositoryFacade
	txnRepo      portsrepo.TransactionReader
	tokenRepo    portsrepo.APITokenRepository
}

// New creates the scheduler with the given job dependencies.
func New(
	logger *slog.Logger,
	conversion portssvc.ConversionSvc,
	priceHistory portssvc.PriceHistorySvc,
	accountRepo portsrepo.AccountRepositoryFacade,
	txnRepo portsrepo.TransactionReader,
	tokenRepo portsrepo.APITokenRepository,
) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		logger:       logger,
		conversion:   conversion,
		priceHistory: priceHistory,
		accountRepo:  accountRepo,
		txnRepo:      txnRepo,
		tokenRepo:    tokenRepo,
	}
}

// Start registers the cron entries and launches the scheduler.
func (s *Scheduler) Start(refreshSpec, tokenSweepSpec string) error {
	if _, err := s.cron.AddFunc(refreshSpec, s.runMarketDataRefresh); err != nil {
		return fmt.Errorf("invalid refresh cron spec %q: %w", refreshSpec, err)
	}
	if _, err := s.cron.AddFunc(tokenSweepSpec, s.runTokenSweep); err != nil {
		return fmt.Errorf("invalid token sweep cron spec %q: %w", tokenSweepSpec, err)
	}
	s.cron.Start()
	s.logger.Info("Scheduler started",
		slog.String("refresh_spec", refreshSpec),
		slog.String("token_sweep_spec", tokenSweepSpec))
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// runMarketDataRefresh tops up exchange rates and price history for every
// symbol the household has ever traded.
func (s *Scheduler) runMarketDataRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := s.conversion.RefreshDailyRates(ctx); err != nil {
		s.logger.Error("Daily rate refresh failed", slog.String("error", err.Error()))
	}

	symbols, err := s.collectTradedSymbols(ctx)
	if err != nil {
		s.logger.Error("Failed to collect traded symbols", slog.String("error", err.Error()))
		return
	}
	if len(symbols) == 0 {
		return
	}

	if err := s.priceHistory.RefreshSymbols(ctx, symbols); err != nil {
		s.logger.Error("Price history refresh failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("Market data refresh completed", slog.Int("symbols", len(symbols)))
}

// runTokenSweep hard-deletes API tokens that expired before now.
func (s *Scheduler) runTokenSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := s.tokenRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("Expired token sweep failed", slog.String("error", err.Error()))
		return
	}
	if deleted > 0 {
		s.logger.Info("Swept expired API tokens", slog.Int64("deleted", deleted))
	}
}

// collectTradedSymbols maps every symbol ever traded across all accounts to
// its trading currency.
func (s *Scheduler) collectTradedSymbols(ctx context.Context) (map[string]string, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	symbols := map[string]string{}
	for _, account := range accounts {
		accountSymbols, err := s.txnRepo.ListSymbols(ctx, account.AccountID, domain.Today())
		if err != nil {
			return nil, fmt.Errorf("failed to list symbols for %s: %w", account.AccountID, err)
		}
		for _, symbol := range accountSymbols {
			if _, ok := symbols[symbol]; ok {
				continue
			}
			currency, err := s.txnRepo.FindSymbolCurrency(ctx, symbol)
			if err != nil {
				s.logger.Warn("Skipping symbol with unknown currency",
					slog.String("symbol", symbol),
					slog.String("error", err.Error()))
				continue
			}
			symbols[symbol] = currency
		}
	}
	return symbols, nil
}
