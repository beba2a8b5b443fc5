package repositories

import (
	"context"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
)

// APITokenRepository defines the interface for API token data access operations
type APITokenRepository interface {
	// Create persists a new API token
	Create(ctx context.Context, token *domain.APIToken) error

	// FindByID retrieves an API token by its ID
	FindByID(ctx context.Context, id string) (*domain.APIToken, error)

	// FindByMemberID retrieves all API tokens for a specific member
	FindByMemberID(ctx context.Context, memberID string) ([]domain.APIToken, error)

	// Update updates an existing API token (e.g., to update last_used_at)
	Update(ctx context.Context, token *domain.APIToken) error

	// Delete removes an API token by ID
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes all API tokens that expired before the cutoff
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)

	// ListActive retrieves all non-deleted, non-expired tokens for
	// validation sweeps.
	ListActive(ctx context.Context) ([]domain.APIToken, error)
}
