package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/apperrors"
	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portsrepo "github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	"github.com/famvest/portfolio_tracker_app/internal/models"
	"github.com/famvest/portfolio_tracker_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const apiTokenColumns = `
	id, member_id, name, token_hash, last_used_at, expires_at,
	created_at, updated_at, deleted_at`

type PgxAPITokenRepository struct {
	BaseRepository
}

func newPgxAPITokenRepository(db *pgxpool.Pool) portsrepo.APITokenRepository {
	return &PgxAPITokenRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

var _ portsrepo.APITokenRepository = (*PgxAPITokenRepository)(nil)

func scanAPIToken(row pgx.Row) (models.APIToken, error) {
	var m models.APIToken
	err := row.Scan(
		&m.ID, &m.MemberID, &m.Name, &m.TokenHash, &m.LastUsedAt, &m.ExpiresAt,
		&m.CreatedAt, &m.UpdatedAt, &m.DeletedAt,
	)
	return m, err
}

// Create persists a new API token.
func (r *PgxAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	if token == nil {
		return apperrors.NewValidationError("token cannot be nil")
	}
	m := mapping.ToModelAPIToken(*token)

	_, err := r.Pool.Exec(ctx, `
		INSERT INTO api_tokens (
			id, member_id, name, token_hash, last_used_at, expires_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.MemberID, m.Name, m.TokenHash, m.LastUsedAt, m.ExpiresAt,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to create API token", err)
	}
	return nil
}

// FindByID retrieves an API token by its ID.
func (r *PgxAPITokenRepository) FindByID(ctx context.Context, id string) (*domain.APIToken, error) {
	query := `SELECT` + apiTokenColumns + ` FROM api_tokens WHERE id = $1 AND deleted_at IS NULL;`

	m, err := scanAPIToken(r.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("token not found")
		}
		return nil, apperrors.NewAppError(500, "failed to get API token", err)
	}

	d := mapping.ToDomainAPIToken(m)
	return &d, nil
}

// FindByMemberID retrieves all API tokens for a specific member.
func (r *PgxAPITokenRepository) FindByMemberID(ctx context.Context, memberID string) ([]domain.APIToken, error) {
	query := `SELECT` + apiTokenColumns + `
		FROM api_tokens
		WHERE member_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC;`

	rows, err := r.Pool.Query(ctx, query, memberID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list API tokens", err)
	}
	defer rows.Close()

	var ms []models.APIToken
	for rows.Next() {
		m, err := scanAPIToken(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan API token", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating API tokens", err)
	}
	return mapping.ToDomainAPITokenSlice(ms), nil
}

// Update refreshes a token's last_used_at timestamp.
func (r *PgxAPITokenRepository) Update(ctx context.Context, token *domain.APIToken) error {
	if token == nil {
		return apperrors.NewValidationError("token cannot be nil")
	}

	tag, err := r.Pool.Exec(ctx, `
		UPDATE api_tokens
		SET last_used_at = COALESCE($2, last_used_at), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		token.ID, token.LastUsedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update API token", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("token not found")
	}
	return nil
}

// Delete soft-deletes an API token by ID.
func (r *PgxAPITokenRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.Pool.Exec(ctx,
		`UPDATE api_tokens SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete API token", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("token not found")
	}
	return nil
}

// DeleteExpired soft-deletes all tokens that expired before the cutoff.
func (r *PgxAPITokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.Pool.Exec(ctx,
		`UPDATE api_tokens SET deleted_at = NOW() WHERE expires_at < $1 AND deleted_at IS NULL`,
		before,
	)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to delete expired API tokens", err)
	}
	return tag.RowsAffected(), nil
}

// ListActive retrieves all non-deleted, non-expired tokens.
func (r *PgxAPITokenRepository) ListActive(ctx context.Context) ([]domain.APIToken, error) {
	query := `SELECT` + apiTokenColumns + `
		FROM api_tokens
		WHERE deleted_at IS NULL AND (expires_at IS NULL OR expires_at > NOW());`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list active API tokens", err)
	}
	defer rows.Close()

	var ms []models.APIToken
	for rows.Next() {
		m, err := scanAPIToken(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan API token", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating API tokens", err)
	}
	return mapping.ToDomainAPITokenSlice(ms), nil
}
