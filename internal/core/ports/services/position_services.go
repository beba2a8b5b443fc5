package services

import (
	"context"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
)

// PositionSvc is the FIFO lot engine: it replays the ledger for one
// (account, symbol) pair and produces point-in-time position snapshots.
type PositionSvc interface {
	// GetPositionSnapshot replays BUY/SELL entries up to asOf through a
	// FIFO lot queue and resolves the position's price and value.
	GetPositionSnapshot(ctx context.Context, symbol, accountID string, asOf time.Time) (*domain.PositionSnapshot, error)

	// GetTotalPosition merges per-account snapshots of one symbol across
	// accounts. Realized gain is computed per account first; lots never
	// cross account boundaries.
	GetTotalPosition(ctx context.Context, symbol string, accountIDs []string, asOf time.Time) (*domain.PositionSnapshot, error)

	// ListPositions returns a snapshot for every symbol ever traded in
	// the account as of asOf, including fully-sold ones.
	ListPositions(ctx context.Context, accountID string, asOf time.Time) ([]domain.PositionSnapshot, error)
}
