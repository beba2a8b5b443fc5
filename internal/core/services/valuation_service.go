package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portsrepo "github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/middleware"
	"github.com/shopspring/decimal"
)

// valuationService is the single value-at-a-date path: stock market value
// from the lot engine plus cash, both in the reporting currency. Every
// period boundary goes through here, which is what keeps quarterly deltas
// summing to the annual delta.
type valuationService struct {
	position    portssvc.PositionSvc
	accountRepo portsrepo.AccountRepositoryFacade
	txnRepo     portsrepo.TransactionReader
	conversion  portssvc.ConversionSvc
}

// NewValuationService creates the account valuation service.
func NewValuationService(
	position portssvc.PositionSvc,
	accountRepo portsrepo.AccountRepositoryFacade,
	txnRepo portsrepo.TransactionReader,
	conversion portssvc.ConversionSvc,
) portssvc.ValuationSvc {
	return &valuationService{
		position:    position,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		conversion:  conversion,
	}
}

var _ portssvc.ValuationSvc = (*valuationService)(nil)

// GetAssetSnapshot values an account at asOf. Symbols that cannot be valued
// are excluded from the totals and reported as degraded rather than failing
// the snapshot.
func (s *valuationService) GetAssetSnapshot(ctx context.Context, accountID string, asOf time.Time) (*domain.AssetSnapshot, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	asOf = domain.NormalizeDate(asOf)

	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, err
	}

	snapshot := &domain.AssetSnapshot{
		AccountID:            accountID,
		AsOfDate:             asOf,
		StockMarketValue:     decimal.Zero,
		CashBalances:         map[string]decimal.Decimal{},
		CashBalanceReporting: decimal.Zero,
		TotalAssets:          decimal.Zero,
	}

	symbols, err := s.txnRepo.ListSymbols(ctx, accountID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols for valuation: %w", err)
	}

	for _, symbol := range symbols {
		pos, err := s.position.GetPositionSnapshot(ctx, symbol, accountID, asOf)
		if err != nil {
			logger.Warn("Excluding unvaluable position from snapshot",
				slog.String("account_id", accountID),
				slog.String("symbol", symbol),
				slog.String("error", err.Error()))
			snapshot.DegradedSymbols = append(snapshot.DegradedSymbols, symbol)
			continue
		}
		snapshot.Positions = append(snapshot.Positions, *pos)

		if !pos.CurrentShares.IsPositive() {
			continue
		}
		value, err := s.conversion.Convert(ctx, pos.CurrentValue, pos.CurrencyCode, domain.ReportingCurrency, asOf)
		if err != nil {
			logger.Warn("Excluding unconvertible position from snapshot",
				slog.String("account_id", accountID),
				slog.String("symbol", symbol),
				slog.String("error", err.Error()))
			snapshot.DegradedSymbols = append(snapshot.DegradedSymbols, symbol)
			continue
		}
		snapshot.StockMarketValue = snapshot.StockMarketValue.Add(value)
	}

	cash, reconstruction, err := s.cashAt(ctx, accountID, asOf)
	if err != nil {
		return nil, err
	}
	snapshot.CashBalances = cash
	snapshot.Reconstruction = reconstruction

	for currency, balance := range cash {
		converted, err := s.conversion.Convert(ctx, balance, currency, domain.ReportingCurrency, asOf)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s cash: %w", currency, err)
		}
		snapshot.CashBalanceReporting = snapshot.CashBalanceReporting.Add(converted)
	}

	snapshot.TotalAssets = snapshot.StockMarketValue.Add(snapshot.CashBalanceReporting)
	return snapshot, nil
}

// cashAt returns per-currency cash at asOf. Today and future dates read the
// authoritative cash ledger; historical dates are reconstructed by replaying
// the transaction ledger.
func (s *valuationService) cashAt(ctx context.Context, accountID string, asOf time.Time) (map[string]decimal.Decimal, domain.CashReconstruction, error) {
	if !asOf.Before(domain.Today()) {
		balances, err := s.accountRepo.FindCashBalances(ctx, accountID)
		if err != nil {
			return nil, domain.CashReconstruction{}, err
		}
		cash := map[string]decimal.Decimal{}
		for _, b := range balances {
			cash[b.CurrencyCode] = b.Balance
		}
		return cash, domain.CashReconstruction{
			Method:         domain.CashFromLedger,
			HighConfidence: true,
		}, nil
	}

	return s.reconstructCash(ctx, accountID, asOf)
}

// reconstructCash rebuilds historical cash. The forward replay from zero is
// preferred; incomplete user-entered history routinely drives it negative,
// in which case the reverse replay from the known present-day balance takes
// over and reports the implied opening supplement.
func (s *valuationService) reconstructCash(ctx context.Context, accountID string, asOf time.Time) (map[string]decimal.Decimal, domain.CashReconstruction, error) {
	txns, err := s.txnRepo.ListTransactions(ctx, accountID, portsrepo.TransactionListOptions{})
	if err != nil {
		return nil, domain.CashReconstruction{}, fmt.Errorf("failed to load ledger for cash reconstruction: %w", err)
	}

	forward := map[string]decimal.Decimal{}
	floors := map[string]decimal.Decimal{}
	wentNegative := false
	for _, txn := range txns {
		if txn.TradeDate.After(asOf) {
			break
		}
		currency := txn.CurrencyCode
		balance := forward[currency].Add(txn.CashImpact())
		forward[currency] = balance
		if balance.IsNegative() {
			wentNegative = true
			if balance.LessThan(floors[currency]) {
				floors[currency] = balance
			}
		}
	}

	if !wentNegative {
		return forward, domain.CashReconstruction{
			Method:         domain.CashForwardReplay,
			HighConfidence: true,
		}, nil
	}

	// Reverse replay: today's known balances minus everything that happened
	// after asOf. The difference against the forward replay is the cash the
	// ledger never saw arrive.
	current, err := s.accountRepo.FindCashBalances(ctx, accountID)
	if err != nil {
		return nil, domain.CashReconstruction{}, err
	}
	reverse := map[string]decimal.Decimal{}
	for _, b := range current {
		reverse[b.CurrencyCode] = b.Balance
	}
	for i := len(txns) - 1; i >= 0; i-- {
		txn := txns[i]
		if !txn.TradeDate.After(asOf) {
			break
		}
		currency := txn.CurrencyCode
		reverse[currency] = reverse[currency].Sub(txn.CashImpact())
	}

	reconstruction := domain.CashReconstruction{
		Method:       domain.CashReverseReplay,
		WentNegative: true,
	}
	for currency, floor := range floors {
		if floor.LessThan(reconstruction.NegativeFloor) {
			reconstruction.NegativeFloor = floor
		}
		supplement := reverse[currency].Sub(forward[currency])
		if supplement.Abs().GreaterThan(reconstruction.OpeningSupplement.Abs()) {
			reconstruction.OpeningSupplement = supplement
			reconstruction.SupplementCurrency = currency
		}
	}

	return reverse, reconstruction, nil
}
