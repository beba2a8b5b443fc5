package services

import (
	"context"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
)

// ValuationSvc combines position snapshots with reconstructed cash to
// value a whole account at a date. This is the single "value at a date"
// code path; every period boundary goes through it.
type ValuationSvc interface {
	// GetAssetSnapshot values an account at asOf: stock market value plus
	// cash, in the reporting currency.
	GetAssetSnapshot(ctx context.Context, accountID string, asOf time.Time) (*domain.AssetSnapshot, error)
}

// PortfolioSvc aggregates accounts into the household-level view.
type PortfolioSvc interface {
	// GetPortfolioSummary merges holdings per symbol across the given
	// accounts and reports cleared positions and aggregate totals.
	GetPortfolioSummary(ctx context.Context, accountIDs []string, asOf time.Time) (*domain.PortfolioSummary, error)
}
