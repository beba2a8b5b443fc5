package services

import (
	"context"
	"fmt"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portsrepo "github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

const maxTrendPoints = 10

// periodAnalyzerService computes period-over-period statistics. Stock
// figures are snapshot(end) minus snapshot(start) through the valuation
// service; flow figures are sums of ledger entries inside the window. The
// snapshot-delta approach is what makes sub-period figures add up to the
// whole-period figure.
type periodAnalyzerService struct {
	valuation  portssvc.ValuationSvc
	position   portssvc.PositionSvc
	txnRepo    portsrepo.TransactionReader
	conversion portssvc.ConversionSvc
}

// NewPeriodAnalyzerService creates the time-period analyzer.
func NewPeriodAnalyzerService(
	valuation portssvc.ValuationSvc,
	position portssvc.PositionSvc,
	txnRepo portsrepo.TransactionReader,
	conversion portssvc.ConversionSvc,
) portssvc.PeriodAnalyzerSvc {
	return &periodAnalyzerService{
		valuation:  valuation,
		position:   position,
		txnRepo:    txnRepo,
		conversion: conversion,
	}
}

var _ portssvc.PeriodAnalyzerSvc = (*periodAnalyzerService)(nil)

// GetPeriodStats computes statistics for one window over a set of accounts.
func (s *periodAnalyzerService) GetPeriodStats(ctx context.Context, accountIDs []string, period domain.Period) (*domain.PeriodStats, error) {
	if len(accountIDs) == 0 {
		return nil, fmt.Errorf("at least one account is required")
	}
	period.Start = domain.NormalizeDate(period.Start)
	period.End = domain.NormalizeDate(period.End)
	if period.End.Before(period.Start) {
		return nil, fmt.Errorf("period end %s precedes start %s",
			period.End.Format("2006-01-02"), period.Start.Format("2006-01-02"))
	}

	// The opening balance is the day before the window, so the window's own
	// first day counts toward the change. The boundary must be exactly one
	// calendar day back: adjacent windows then share the same boundary
	// snapshot and sub-period deltas sum to the whole-period delta.
	// Non-trading boundary days are fine, the snapshot path prices them via
	// the nearest earlier close.
	startBoundary := period.Start.AddDate(0, 0, -1)

	startSnap, err := s.aggregateSnapshots(ctx, accountIDs, startBoundary)
	if err != nil {
		return nil, err
	}
	endSnap, err := s.aggregateSnapshots(ctx, accountIDs, period.End)
	if err != nil {
		return nil, err
	}

	stats := &domain.PeriodStats{
		Period:        period,
		AccountIDs:    accountIDs,
		StartSnapshot: *startSnap,
		EndSnapshot:   *endSnap,
	}

	if err := s.sumFlows(ctx, stats, accountIDs, period); err != nil {
		return nil, err
	}

	realizedChange, unrealizedChange, err := s.gainChanges(ctx, accountIDs, startBoundary, period.End)
	if err != nil {
		return nil, err
	}
	stats.RealizedGain = realizedChange
	stats.UnrealizedGainChange = unrealizedChange

	stats.TotalAssetsChange = endSnap.TotalAssets.Sub(startSnap.TotalAssets)
	stats.TotalAssetsChangePct = accounting.PercentChange(startSnap.TotalAssets, endSnap.TotalAssets)
	stats.StockValueChange = endSnap.StockMarketValue.Sub(startSnap.StockMarketValue)
	stats.CashChange = endSnap.CashBalanceReporting.Sub(startSnap.CashBalanceReporting)

	if startSnap.TotalAssets.IsPositive() {
		simpleReturn := stats.TotalAssetsChange.DivRound(startSnap.TotalAssets, 12)
		periodDays := int(period.End.Sub(startBoundary).Hours() / 24)
		stats.AnnualizedReturnPct = accounting.AnnualizedReturn(simpleReturn, periodDays).Mul(decimal.NewFromInt(100))
	}
	if startSnap.TotalAssets.IsPositive() {
		stats.StartStockRatioPct = startSnap.StockMarketValue.DivRound(startSnap.TotalAssets, 12).Mul(decimal.NewFromInt(100))
	}
	if endSnap.TotalAssets.IsPositive() {
		stats.EndStockRatioPct = endSnap.StockMarketValue.DivRound(endSnap.TotalAssets, 12).Mul(decimal.NewFromInt(100))
	}

	trend, err := s.sampleTrend(ctx, accountIDs, period)
	if err != nil {
		return nil, err
	}
	stats.TrendPoints = trend

	return stats, nil
}

// GetPeriodSeries computes one PeriodStats per sub-window.
func (s *periodAnalyzerService) GetPeriodSeries(ctx context.Context, accountIDs []string, periods []domain.Period) ([]domain.PeriodStats, error) {
	series := make([]domain.PeriodStats, 0, len(periods))
	for _, period := range periods {
		stats, err := s.GetPeriodStats(ctx, accountIDs, period)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze %s: %w", period.Label, err)
		}
		series = append(series, *stats)
	}
	return series, nil
}

// aggregateSnapshots values each account at date and sums the results into
// one household-level snapshot.
func (s *periodAnalyzerService) aggregateSnapshots(ctx context.Context, accountIDs []string, date time.Time) (*domain.AssetSnapshot, error) {
	combined := &domain.AssetSnapshot{
		AsOfDate:             date,
		StockMarketValue:     decimal.Zero,
		CashBalances:         map[string]decimal.Decimal{},
		CashBalanceReporting: decimal.Zero,
		TotalAssets:          decimal.Zero,
		Reconstruction:       domain.CashReconstruction{HighConfidence: true},
	}

	for _, accountID := range accountIDs {
		snap, err := s.valuation.GetAssetSnapshot(ctx, accountID, date)
		if err != nil {
			return nil, fmt.Errorf("failed to value account %s at %s: %w", accountID, date.Format("2006-01-02"), err)
		}
		combined.StockMarketValue = combined.StockMarketValue.Add(snap.StockMarketValue)
		combined.CashBalanceReporting = combined.CashBalanceReporting.Add(snap.CashBalanceReporting)
		combined.TotalAssets = combined.TotalAssets.Add(snap.TotalAssets)
		for currency, balance := range snap.CashBalances {
			combined.CashBalances[currency] = combined.CashBalances[currency].Add(balance)
		}
		combined.DegradedSymbols = append(combined.DegradedSymbols, snap.DegradedSymbols...)
		if !snap.Reconstruction.HighConfidence {
			combined.Reconstruction = snap.Reconstruction
		} else if combined.Reconstruction.Method == "" {
			combined.Reconstruction.Method = snap.Reconstruction.Method
		}
	}

	return combined, nil
}

// sumFlows totals the ledger entries falling inside the window, converted
// to the reporting currency at their trade dates.
func (s *periodAnalyzerService) sumFlows(ctx context.Context, stats *domain.PeriodStats, accountIDs []string, period domain.Period) error {
	txns, err := s.txnRepo.ListTransactionsForAccounts(ctx, accountIDs, portsrepo.TransactionListOptions{
		StartDate: &period.Start,
		EndDate:   &period.End,
	})
	if err != nil {
		return fmt.Errorf("failed to load window ledger: %w", err)
	}

	stats.Dividends = decimal.Zero
	stats.Interest = decimal.Zero
	stats.Deposits = decimal.Zero
	stats.Withdrawals = decimal.Zero
	stats.Fees = decimal.Zero

	for _, txn := range txns {
		convert := func(amount decimal.Decimal) (decimal.Decimal, error) {
			return s.conversion.Convert(ctx, amount, txn.CurrencyCode, domain.ReportingCurrency, txn.TradeDate)
		}

		switch txn.Type {
		case domain.Dividend:
			v, err := convert(txn.Amount)
			if err != nil {
				return err
			}
			stats.Dividends = stats.Dividends.Add(v)
		case domain.Interest:
			v, err := convert(txn.Amount)
			if err != nil {
				return err
			}
			stats.Interest = stats.Interest.Add(v)
		case domain.Deposit:
			v, err := convert(txn.Amount)
			if err != nil {
				return err
			}
			stats.Deposits = stats.Deposits.Add(v)
		case domain.Withdrawal:
			v, err := convert(txn.Amount)
			if err != nil {
				return err
			}
			stats.Withdrawals = stats.Withdrawals.Add(v)
		case domain.Fee:
			v, err := convert(txn.Amount)
			if err != nil {
				return err
			}
			stats.Fees = stats.Fees.Add(v)
		case domain.Buy, domain.Sell:
			if txn.Fee.IsPositive() {
				v, err := convert(txn.Fee)
				if err != nil {
					return err
				}
				stats.Fees = stats.Fees.Add(v)
			}
		}
	}
	return nil
}

// gainChanges computes realized and unrealized gain deltas between the two
// boundaries. Both boundaries convert at the end-date rate so the delta
// reflects trading results, not exchange-rate drift.
func (s *periodAnalyzerService) gainChanges(ctx context.Context, accountIDs []string, startBoundary, end time.Time) (decimal.Decimal, decimal.Decimal, error) {
	realizedChange := decimal.Zero
	unrealizedChange := decimal.Zero

	for _, accountID := range accountIDs {
		startPositions, err := s.position.ListPositions(ctx, accountID, startBoundary)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		endPositions, err := s.position.ListPositions(ctx, accountID, end)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}

		startRealized := map[string]decimal.Decimal{}
		startUnrealized := map[string]decimal.Decimal{}
		for _, pos := range startPositions {
			startRealized[pos.Symbol] = pos.RealizedGain
			startUnrealized[pos.Symbol] = pos.UnrealizedGain
		}

		for _, pos := range endPositions {
			realizedDelta := pos.RealizedGain.Sub(startRealized[pos.Symbol])
			unrealizedDelta := pos.UnrealizedGain.Sub(startUnrealized[pos.Symbol])
			if realizedDelta.IsZero() && unrealizedDelta.IsZero() {
				continue
			}

			r, err := s.conversion.Convert(ctx, realizedDelta, pos.CurrencyCode, domain.ReportingCurrency, end)
			if err != nil {
				return decimal.Zero, decimal.Zero, err
			}
			u, err := s.conversion.Convert(ctx, unrealizedDelta, pos.CurrencyCode, domain.ReportingCurrency, end)
			if err != nil {
				return decimal.Zero, decimal.Zero, err
			}
			realizedChange = realizedChange.Add(r)
			unrealizedChange = unrealizedChange.Add(u)
		}
	}

	return realizedChange, unrealizedChange, nil
}

// sampleTrend values the accounts at up to maxTrendPoints evenly spaced
// dates inside the window.
func (s *periodAnalyzerService) sampleTrend(ctx context.Context, accountIDs []string, period domain.Period) ([]domain.TrendPoint, error) {
	days := int(period.End.Sub(period.Start).Hours()/24) + 1
	points := maxTrendPoints
	if days < points {
		points = days
	}
	if points < 2 {
		points = 1
	}

	dates := make([]time.Time, 0, points)
	if points == 1 {
		dates = append(dates, period.End)
	} else {
		step := float64(days-1) / float64(points-1)
		for i := 0; i < points; i++ {
			offset := int(float64(i) * step)
			dates = append(dates, period.Start.AddDate(0, 0, offset))
		}
		dates[len(dates)-1] = period.End
	}

	trend := make([]domain.TrendPoint, 0, len(dates))
	for _, date := range dates {
		snap, err := s.aggregateSnapshots(ctx, accountIDs, date)
		if err != nil {
			return nil, err
		}
		trend = append(trend, domain.TrendPoint{
			Date:        date,
			TotalAssets: snap.TotalAssets,
		})
	}
	return trend, nil
}
