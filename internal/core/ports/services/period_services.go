package services

import (
	"context"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
)

// PeriodAnalyzerSvc computes period-over-period statistics. Stock figures
// are always snapshot(end) minus snapshot(start) through ValuationSvc;
// flow figures are sums of ledger entries inside the window.
type PeriodAnalyzerSvc interface {
	// GetPeriodStats computes statistics for one window over a set of
	// accounts.
	GetPeriodStats(ctx context.Context, accountIDs []string, period domain.Period) (*domain.PeriodStats, error)

	// GetPeriodSeries computes one PeriodStats per sub-window (e.g. the
	// four quarters of a year, the twelve months of a year, or the days
	// of a trailing window).
	GetPeriodSeries(ctx context.Context, accountIDs []string, periods []domain.Period) ([]domain.PeriodStats, error)
}
