package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/apperrors"
	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portsrepo "github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/utils"
	"github.com/google/uuid"
)

// apiTokenService issues and validates member API tokens. The plaintext has
// the form "<tokenID>.<secret>"; only the bcrypt hash of the secret is
// stored, and the ID prefix lets validation hit a single row instead of
// scanning every hash.
type apiTokenService struct {
	tokenRepo portsrepo.APITokenRepository
}

// NewAPITokenService creates the API token service.
func NewAPITokenService(tokenRepo portsrepo.APITokenRepository) portssvc.APITokenSvc {
	return &apiTokenService{tokenRepo: tokenRepo}
}

var _ portssvc.APITokenSvc = (*apiTokenService)(nil)

// CreateToken issues a new token; the plaintext is returned exactly once.
func (s *apiTokenService) CreateToken(ctx context.Context, memberID, name string, expiresAt *time.Time) (*domain.APIToken, string, error) {
	if memberID == "" {
		return nil, "", apperrors.NewValidationError("member ID is required")
	}
	if name == "" {
		return nil, "", apperrors.NewValidationError("token name is required")
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return nil, "", apperrors.NewValidationError("expiry must be in the future")
	}

	secret, err := utils.GenerateSecureRandomString(32)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token secret: %w", err)
	}
	hash, err := utils.HashSecret(secret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash token secret: %w", err)
	}

	now := time.Now()
	token := &domain.APIToken{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		Name:      name,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, "", fmt.Errorf("failed to save token: %w", err)
	}

	return token, token.ID + "." + secret, nil
}

// ListTokens retrieves a member's tokens.
func (s *apiTokenService) ListTokens(ctx context.Context, memberID string) ([]domain.APIToken, error) {
	if memberID == "" {
		return nil, apperrors.NewValidationError("member ID is required")
	}
	return s.tokenRepo.FindByMemberID(ctx, memberID)
}

// RevokeToken deletes a token after checking ownership.
func (s *apiTokenService) RevokeToken(ctx context.Context, memberID, tokenID string) error {
	token, err := s.tokenRepo.FindByID(ctx, tokenID)
	if err != nil {
		return err
	}
	if token.MemberID != memberID {
		// Do not reveal that the token exists under another member.
		return apperrors.NewNotFoundError("token not found")
	}
	return s.tokenRepo.Delete(ctx, tokenID)
}

// ValidateToken checks a presented plaintext token and returns its record.
func (s *apiTokenService) ValidateToken(ctx context.Context, plaintext string) (*domain.APIToken, error) {
	tokenID, secret, found := strings.Cut(plaintext, ".")
	if !found || tokenID == "" || secret == "" {
		return nil, apperrors.ErrUnauthorized
	}

	token, err := s.tokenRepo.FindByID(ctx, tokenID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !utils.CheckSecretHash(secret, token.TokenHash) {
		return nil, apperrors.ErrUnauthorized
	}
	if token.IsExpired() {
		_ = s.tokenRepo.Delete(ctx, token.ID)
		return nil, apperrors.ErrUnauthorized
	}

	token.UpdateLastUsed()
	// Best effort; a missed last_used update never blocks the request.
	_ = s.tokenRepo.Update(ctx, token)

	return token, nil
}
