package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portsrepo "github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

const performerListSize = 3

// portfolioService aggregates accounts into the household-level view:
// holdings merged per symbol, cleared positions, totals and per-currency
// breakdowns.
type portfolioService struct {
	position   portssvc.PositionSvc
	txnRepo    portsrepo.TransactionReader
	conversion portssvc.ConversionSvc
}

// NewPortfolioService creates the portfolio summary service.
func NewPortfolioService(
	position portssvc.PositionSvc,
	txnRepo portsrepo.TransactionReader,
	conversion portssvc.ConversionSvc,
) portssvc.PortfolioSvc {
	return &portfolioService{
		position:   position,
		txnRepo:    txnRepo,
		conversion: conversion,
	}
}

var _ portssvc.PortfolioSvc = (*portfolioService)(nil)

// GetPortfolioSummary merges holdings per symbol across the given accounts.
func (s *portfolioService) GetPortfolioSummary(ctx context.Context, accountIDs []string, asOf time.Time) (*domain.PortfolioSummary, error) {
	if len(accountIDs) == 0 {
		return nil, fmt.Errorf("at least one account is required")
	}
	asOf = domain.NormalizeDate(asOf)

	symbols, err := s.collectSymbols(ctx, accountIDs, asOf)
	if err != nil {
		return nil, err
	}

	summary := &domain.PortfolioSummary{
		AccountIDs:          accountIDs,
		AsOfDate:            asOf,
		TotalMarketValue:    decimal.Zero,
		TotalCost:           decimal.Zero,
		TotalRealizedGain:   decimal.Zero,
		TotalUnrealizedGain: decimal.Zero,
		TotalDividends:      decimal.Zero,
		Breakdown: domain.CurrencyBreakdown{
			StockValue:                   map[string]decimal.Decimal{},
			RealizedGain:                 map[string]decimal.Decimal{},
			UnrealizedGain:               map[string]decimal.Decimal{},
			Dividends:                    map[string]decimal.Decimal{},
			Interest:                     map[string]decimal.Decimal{},
			Deposits:                     map[string]decimal.Decimal{},
			Withdrawals:                  map[string]decimal.Decimal{},
			TotalStockValueReporting:     decimal.Zero,
			TotalRealizedGainReporting:   decimal.Zero,
			TotalUnrealizedGainReporting: decimal.Zero,
		},
	}

	reportingValueByCurrency := map[string]decimal.Decimal{}

	for _, symbol := range symbols {
		total, err := s.position.GetTotalPosition(ctx, symbol, accountIDs, asOf)
		if err != nil {
			return nil, err
		}
		if total.TotalBoughtShares.IsZero() && total.TotalDividends.IsZero() && total.TotalInterest.IsZero() {
			continue
		}

		currency := total.CurrencyCode
		summary.Breakdown.RealizedGain[currency] = summary.Breakdown.RealizedGain[currency].Add(total.RealizedGain)
		summary.Breakdown.Dividends[currency] = summary.Breakdown.Dividends[currency].Add(total.TotalDividends)
		summary.Breakdown.Interest[currency] = summary.Breakdown.Interest[currency].Add(total.TotalInterest)

		realized, err := s.conversion.Convert(ctx, total.RealizedGain, currency, domain.ReportingCurrency, asOf)
		if err != nil {
			return nil, err
		}
		dividends, err := s.conversion.Convert(ctx, total.TotalDividends, currency, domain.ReportingCurrency, asOf)
		if err != nil {
			return nil, err
		}
		summary.TotalRealizedGain = summary.TotalRealizedGain.Add(realized)
		summary.TotalDividends = summary.TotalDividends.Add(dividends)
		summary.Breakdown.TotalRealizedGainReporting = summary.Breakdown.TotalRealizedGainReporting.Add(realized)

		if total.CurrentShares.IsPositive() {
			summary.Holdings = append(summary.Holdings, *total)
			summary.Breakdown.StockValue[currency] = summary.Breakdown.StockValue[currency].Add(total.CurrentValue)
			summary.Breakdown.UnrealizedGain[currency] = summary.Breakdown.UnrealizedGain[currency].Add(total.UnrealizedGain)

			value, err := s.conversion.Convert(ctx, total.CurrentValue, currency, domain.ReportingCurrency, asOf)
			if err != nil {
				return nil, err
			}
			cost, err := s.conversion.Convert(ctx, total.TotalCost, currency, domain.ReportingCurrency, asOf)
			if err != nil {
				return nil, err
			}
			unrealized, err := s.conversion.Convert(ctx, total.UnrealizedGain, currency, domain.ReportingCurrency, asOf)
			if err != nil {
				return nil, err
			}
			reportingValueByCurrency[currency] = reportingValueByCurrency[currency].Add(value)
			summary.TotalMarketValue = summary.TotalMarketValue.Add(value)
			summary.TotalCost = summary.TotalCost.Add(cost)
			summary.TotalUnrealizedGain = summary.TotalUnrealizedGain.Add(unrealized)
			summary.Breakdown.TotalStockValueReporting = summary.Breakdown.TotalStockValueReporting.Add(value)
			summary.Breakdown.TotalUnrealizedGainReporting = summary.Breakdown.TotalUnrealizedGainReporting.Add(unrealized)
		} else if total.TotalBoughtShares.IsPositive() {
			summary.ClearedHoldings = append(summary.ClearedHoldings, domain.ClearedPosition{
				Symbol:          symbol,
				TotalBought:     total.TotalBoughtValue,
				TotalSold:       total.TotalSoldValue,
				RealizedGain:    total.RealizedGain,
				RealizedGainPct: accounting.PercentChange(total.TotalBoughtValue, total.TotalBoughtValue.Add(total.RealizedGain)),
				TotalDividends:  total.TotalDividends,
				CurrencyCode:    currency,
			})
		}
	}

	if err := s.sumCashFlows(ctx, summary, accountIDs, asOf); err != nil {
		return nil, err
	}

	summary.CurrencyAllocation = currencyAllocation(summary.TotalMarketValue, reportingValueByCurrency)
	summary.TopPerformers, summary.WorstPerformers = rankPerformers(summary.Holdings)

	return summary, nil
}

// collectSymbols unions the symbols ever traded across the accounts.
func (s *portfolioService) collectSymbols(ctx context.Context, accountIDs []string, asOf time.Time) ([]string, error) {
	seen := map[string]bool{}
	var symbols []string
	for _, accountID := range accountIDs {
		accountSymbols, err := s.txnRepo.ListSymbols(ctx, accountID, asOf)
		if err != nil {
			return nil, fmt.Errorf("failed to list symbols for %s: %w", accountID, err)
		}
		for _, symbol := range accountSymbols {
			if !seen[symbol] {
				seen[symbol] = true
				symbols = append(symbols, symbol)
			}
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// sumCashFlows fills the per-currency deposit/withdrawal breakdown from the
// ledger up to asOf.
func (s *portfolioService) sumCashFlows(ctx context.Context, summary *domain.PortfolioSummary, accountIDs []string, asOf time.Time) error {
	txns, err := s.txnRepo.ListTransactionsForAccounts(ctx, accountIDs, portsrepo.TransactionListOptions{
		Types:   []domain.TransactionType{domain.Deposit, domain.Withdrawal},
		EndDate: &asOf,
	})
	if err != nil {
		return fmt.Errorf("failed to load cash flow ledger: %w", err)
	}

	for _, txn := range txns {
		switch txn.Type {
		case domain.Deposit:
			summary.Breakdown.Deposits[txn.CurrencyCode] = summary.Breakdown.Deposits[txn.CurrencyCode].Add(txn.Amount)
		case domain.Withdrawal:
			summary.Breakdown.Withdrawals[txn.CurrencyCode] = summary.Breakdown.Withdrawals[txn.CurrencyCode].Add(txn.Amount)
		}
	}
	return nil
}

// currencyAllocation splits the reporting-currency market value by the
// holdings' trading currencies. Both numerator and denominator are in the
// reporting currency so the slices sum to 100.
func currencyAllocation(totalValue decimal.Decimal, valueByCurrency map[string]decimal.Decimal) []domain.AllocationSlice {
	if totalValue.IsZero() || len(valueByCurrency) == 0 {
		return nil
	}

	currencies := make([]string, 0, len(valueByCurrency))
	for currency := range valueByCurrency {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	hundred := decimal.NewFromInt(100)
	slices := make([]domain.AllocationSlice, 0, len(currencies))
	for _, currency := range currencies {
		value := valueByCurrency[currency]
		if value.IsZero() {
			continue
		}
		slices = append(slices, domain.AllocationSlice{
			Key:        currency,
			Value:      value,
			Percentage: value.DivRound(totalValue, 12).Mul(hundred),
		})
	}
	return slices
}

// rankPerformers sorts holdings by unrealized gain percentage and returns
// the best and worst few.
func rankPerformers(holdings []domain.PositionSnapshot) ([]domain.PositionSnapshot, []domain.PositionSnapshot) {
	if len(holdings) == 0 {
		return nil, nil
	}

	ranked := make([]domain.PositionSnapshot, len(holdings))
	copy(ranked, holdings)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].UnrealizedGainPct().GreaterThan(ranked[j].UnrealizedGainPct())
	})

	n := performerListSize
	if n > len(ranked) {
		n = len(ranked)
	}

	top := make([]domain.PositionSnapshot, n)
	copy(top, ranked[:n])
	worst := make([]domain.PositionSnapshot, n)
	copy(worst, ranked[len(ranked)-n:])
	// Worst first.
	for i, j := 0, len(worst)-1; i < j; i, j = i+1, j-1 {
		worst[i], worst[j] = worst[j], worst[i]
	}
	return top, worst
}
