package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akave-ai/logwatch/internal/model"
	"github.com/akave-ai/logwatch/internal/token"
)

// TokenRepository reads and revokes access tokens stored in PostgreSQL.
type TokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository returns a TokenRepository using the given pool.
func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Find returns the scope of a non-revoked token, or nil if none matches.
func (r *TokenRepository) Find(ctx context.Context, raw string) (*model.Scope, error) {
	var t model.AccessToken
	err := r.pool.QueryRow(ctx, `
		SELECT token, account_id, environment_id, revoked, created_at, revoked_at
		FROM tokens
		WHERE token = $1 AND revoked = false`, raw).Scan(
		&t.Token,
		&t.AccountID,
		&t.EnvironmentID,
		&t.Revoked,
		&t.CreatedAt,
		&t.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	scope := t.Scope()
	return &scope, nil
}

// Revoke flags the token revoked. Revoking twice is not an error.
func (r *TokenRepository) Revoke(ctx context.Context, raw string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tokens
		SET revoked = true, revoked_at = COALESCE(revoked_at, now())
		WHERE token = $1`, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return token.ErrTokenNotFound
	}
	return nil
}
