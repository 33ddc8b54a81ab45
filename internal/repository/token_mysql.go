package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/akave-ai/logwatch/internal/model"
	"github.com/akave-ai/logwatch/internal/token"
)

// MySQLTokenRepository reads and revokes access tokens stored in MySQL,
// where revoked is a TINYINT flag.
type MySQLTokenRepository struct {
	db *sql.DB
}

// NewMySQLTokenRepository returns a repository using db. The caller owns db.
func NewMySQLTokenRepository(db *sql.DB) *MySQLTokenRepository {
	return &MySQLTokenRepository{db: db}
}

// Find returns the scope of a non-revoked token, or nil if none matches.
func (r *MySQLTokenRepository) Find(ctx context.Context, raw string) (*model.Scope, error) {
	var t model.AccessToken
	var revoked int
	err := r.db.QueryRowContext(ctx,
		"SELECT account_id, environment_id, revoked FROM tokens WHERE token = ? AND revoked = 0 LIMIT 1",
		raw,
	).Scan(&t.AccountID, &t.EnvironmentID, &revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.Revoked = revoked != 0
	scope := t.Scope()
	return &scope, nil
}

// Revoke flags the token revoked.
func (r *MySQLTokenRepository) Revoke(ctx context.Context, raw string) error {
	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM tokens WHERE token = ? LIMIT 1", raw).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return token.ErrTokenNotFound
		}
		return err
	}
	_, err = r.db.ExecContext(ctx, "UPDATE tokens SET revoked = 1 WHERE token = ?", raw)
	return err
}
