package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portsrepo "github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/middleware"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientShares = errors.New("sell quantity exceeds shares held")
	ErrCurrencyMismatch   = errors.New("transaction currency does not match the position's currency")
)

// positionService replays the transaction ledger through a FIFO lot queue to
// produce point-in-time position snapshots. Lots are never persisted; every
// snapshot is rebuilt from scratch, which makes edits and deletes to old
// transactions safe by construction.
type positionService struct {
	txnRepo      portsrepo.TransactionReader
	priceHistory portssvc.PriceHistorySvc
}

// NewPositionService creates the FIFO lot engine.
func NewPositionService(txnRepo portsrepo.TransactionReader, priceHistory portssvc.PriceHistorySvc) portssvc.PositionSvc {
	return &positionService{
		txnRepo:      txnRepo,
		priceHistory: priceHistory,
	}
}

var _ portssvc.PositionSvc = (*positionService)(nil)

// GetPositionSnapshot replays BUY/SELL entries for (account, symbol) up to
// asOf and resolves the position's price and value.
func (s *positionService) GetPositionSnapshot(ctx context.Context, symbol, accountID string, asOf time.Time) (*domain.PositionSnapshot, error) {
	asOf = domain.NormalizeDate(asOf)

	txns, err := s.txnRepo.ListTransactions(ctx, accountID, portsrepo.TransactionListOptions{
		Symbol:  symbol,
		EndDate: &asOf,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for %s/%s: %w", accountID, symbol, err)
	}

	snapshot, err := replayLedger(symbol, accountID, asOf, txns)
	if err != nil {
		return nil, err
	}

	if err := s.resolvePrice(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// GetTotalPosition merges per-account snapshots of one symbol. Realized gain
// is computed per account first; lots never cross account boundaries.
func (s *positionService) GetTotalPosition(ctx context.Context, symbol string, accountIDs []string, asOf time.Time) (*domain.PositionSnapshot, error) {
	asOf = domain.NormalizeDate(asOf)

	merged := newEmptySnapshot(symbol, "", asOf)
	merged.PriceStale = true
	traded := false

	for _, accountID := range accountIDs {
		snap, err := s.GetPositionSnapshot(ctx, symbol, accountID, asOf)
		if err != nil {
			return nil, err
		}
		if snap.TotalBoughtShares.IsZero() && snap.TotalDividends.IsZero() && snap.TotalInterest.IsZero() {
			continue
		}
		traded = true

		if merged.CurrencyCode == "" {
			merged.CurrencyCode = snap.CurrencyCode
		} else if snap.CurrencyCode != "" && snap.CurrencyCode != merged.CurrencyCode {
			return nil, fmt.Errorf("%w: %s trades in both %s and %s", ErrCurrencyMismatch, symbol, merged.CurrencyCode, snap.CurrencyCode)
		}

		merged.CurrentShares = merged.CurrentShares.Add(snap.CurrentShares)
		merged.TotalCost = merged.TotalCost.Add(snap.TotalCost)
		merged.TotalBoughtShares = merged.TotalBoughtShares.Add(snap.TotalBoughtShares)
		merged.TotalBoughtValue = merged.TotalBoughtValue.Add(snap.TotalBoughtValue)
		merged.TotalSoldShares = merged.TotalSoldShares.Add(snap.TotalSoldShares)
		merged.TotalSoldValue = merged.TotalSoldValue.Add(snap.TotalSoldValue)
		merged.RealizedGain = merged.RealizedGain.Add(snap.RealizedGain)
		merged.TotalDividends = merged.TotalDividends.Add(snap.TotalDividends)
		merged.TotalInterest = merged.TotalInterest.Add(snap.TotalInterest)

		if !snap.PriceStale {
			merged.CurrentPrice = snap.CurrentPrice
			merged.PriceStale = false
		}
	}

	if !traded {
		merged.PriceStale = false
		return merged, nil
	}

	if merged.CurrentShares.IsPositive() {
		merged.AverageCost = merged.TotalCost.DivRound(merged.CurrentShares, 12)
		if merged.PriceStale && merged.CurrentPrice.IsZero() {
			merged.CurrentPrice = merged.AverageCost
		}
		merged.CurrentValue = merged.CurrentShares.Mul(merged.CurrentPrice)
		merged.UnrealizedGain = merged.CurrentValue.Sub(merged.TotalCost)
	} else {
		merged.PriceStale = false
	}

	return merged, nil
}

// ListPositions returns a snapshot for every symbol ever traded in the
// account as of asOf, including fully-sold ones.
func (s *positionService) ListPositions(ctx context.Context, accountID string, asOf time.Time) ([]domain.PositionSnapshot, error) {
	asOf = domain.NormalizeDate(asOf)

	symbols, err := s.txnRepo.ListSymbols(ctx, accountID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols for %s: %w", accountID, err)
	}

	snapshots := make([]domain.PositionSnapshot, 0, len(symbols))
	for _, symbol := range symbols {
		snap, err := s.GetPositionSnapshot(ctx, symbol, accountID, asOf)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snap)
	}
	return snapshots, nil
}

// resolvePrice fills CurrentPrice/CurrentValue/UnrealizedGain. When no
// usable price exists the position falls back to its average cost and is
// flagged stale rather than failing the whole snapshot.
func (s *positionService) resolvePrice(ctx context.Context, snap *domain.PositionSnapshot) error {
	if !snap.CurrentShares.IsPositive() {
		return nil
	}

	price, err := s.priceHistory.NearestClose(ctx, snap.Symbol, snap.CurrencyCode, snap.AsOfDate)
	if err != nil {
		if !errors.Is(err, ErrPriceUnavailable) {
			return fmt.Errorf("failed to price %s: %w", snap.Symbol, err)
		}
		logger := middleware.GetLoggerFromCtx(ctx)
		logger.Warn("No usable price found, valuing position at cost",
			slog.String("symbol", snap.Symbol),
			slog.String("as_of", snap.AsOfDate.Format("2006-01-02")))
		snap.CurrentPrice = snap.AverageCost
		snap.PriceStale = true
	} else {
		snap.CurrentPrice = price
	}

	snap.CurrentValue = snap.CurrentShares.Mul(snap.CurrentPrice)
	snap.UnrealizedGain = snap.CurrentValue.Sub(snap.TotalCost)
	return nil
}

func newEmptySnapshot(symbol, accountID string, asOf time.Time) *domain.PositionSnapshot {
	return &domain.PositionSnapshot{
		Symbol:            symbol,
		AccountID:         accountID,
		AsOfDate:          asOf,
		CurrentShares:     decimal.Zero,
		AverageCost:       decimal.Zero,
		TotalCost:         decimal.Zero,
		TotalBoughtShares: decimal.Zero,
		TotalBoughtValue:  decimal.Zero,
		TotalSoldShares:   decimal.Zero,
		TotalSoldValue:    decimal.Zero,
		RealizedGain:      decimal.Zero,
		UnrealizedGain:    decimal.Zero,
		CurrentPrice:      decimal.Zero,
		CurrentValue:      decimal.Zero,
		TotalDividends:    decimal.Zero,
		TotalInterest:     decimal.Zero,
	}
}

// replayLedger runs the FIFO algorithm over an already-ordered transaction
// list. The ordering guarantee (trade_date, created_at, transaction_id)
// comes from the repository, which is what makes replay deterministic for
// same-day trades.
func replayLedger(symbol, accountID string, asOf time.Time, txns []domain.Transaction) (*domain.PositionSnapshot, error) {
	snap := newEmptySnapshot(symbol, accountID, asOf)
	var lots []domain.Lot

	for _, txn := range txns {
		if txn.CurrencyCode != "" {
			if snap.CurrencyCode == "" {
				snap.CurrencyCode = txn.CurrencyCode
			} else if txn.CurrencyCode != snap.CurrencyCode {
				return nil, fmt.Errorf("%w: %s is a %s position but transaction %s is %s",
					ErrCurrencyMismatch, symbol, snap.CurrencyCode, txn.TransactionID, txn.CurrencyCode)
			}
		}

		switch txn.Type {
		case domain.Buy:
			if !txn.Quantity.IsPositive() {
				return nil, fmt.Errorf("buy transaction %s has non-positive quantity", txn.TransactionID)
			}
			// The buy fee is folded into the cost basis up front so that
			// later sells realize it proportionally.
			cost := txn.NetAmount()
			lots = append(lots, domain.Lot{
				QuantityRemaining: txn.Quantity,
				CostPerShare:      cost.DivRound(txn.Quantity, 12),
				AcquisitionDate:   txn.TradeDate,
			})
			snap.TotalBoughtShares = snap.TotalBoughtShares.Add(txn.Quantity)
			snap.TotalBoughtValue = snap.TotalBoughtValue.Add(cost)

		case domain.Sell:
			if !txn.Quantity.IsPositive() {
				return nil, fmt.Errorf("sell transaction %s has non-positive quantity", txn.TransactionID)
			}
			held := decimal.Zero
			for _, lot := range lots {
				held = held.Add(lot.QuantityRemaining)
			}
			if txn.Quantity.GreaterThan(held) {
				return nil, fmt.Errorf("%w: selling %s of %s but only %s held in account %s",
					ErrInsufficientShares, txn.Quantity, symbol, held, accountID)
			}

			net := txn.NetAmount()
			remaining := txn.Quantity
			costBasis := decimal.Zero
			for remaining.IsPositive() {
				lot := &lots[0]
				consumed := decimal.Min(lot.QuantityRemaining, remaining)
				costBasis = costBasis.Add(consumed.Mul(lot.CostPerShare))
				lot.QuantityRemaining = lot.QuantityRemaining.Sub(consumed)
				remaining = remaining.Sub(consumed)
				if lot.QuantityRemaining.IsZero() {
					lots = lots[1:]
				}
			}

			snap.RealizedGain = snap.RealizedGain.Add(net.Sub(costBasis))
			snap.TotalSoldShares = snap.TotalSoldShares.Add(txn.Quantity)
			snap.TotalSoldValue = snap.TotalSoldValue.Add(net)

		case domain.Dividend:
			snap.TotalDividends = snap.TotalDividends.Add(txn.Amount)

		case domain.Interest:
			snap.TotalInterest = snap.TotalInterest.Add(txn.Amount)
		}
	}

	for _, lot := range lots {
		snap.CurrentShares = snap.CurrentShares.Add(lot.QuantityRemaining)
		snap.TotalCost = snap.TotalCost.Add(lot.CostBasis())
	}
	if snap.CurrentShares.IsPositive() {
		snap.AverageCost = snap.TotalCost.DivRound(snap.CurrentShares, 12)
	}
	snap.Lots = lots

	return snap, nil
}
