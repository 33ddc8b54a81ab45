// Package token resolves bearer credentials to tenant scopes through a
// write-through cache in front of a credential store.
package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/akave-ai/logwatch/internal/model"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenRevoked  = errors.New("token revoked")
	ErrMissingToken  = errors.New("missing or malformed bearer token")
)

// Store is the backing credential store.
type Store interface {
	// Find returns the scope of a non-revoked token, or nil, nil when no such
	// token exists.
	Find(ctx context.Context, token string) (*model.Scope, error)
	// Revoke marks a token revoked. It returns ErrTokenNotFound when the
	// token does not exist.
	Revoke(ctx context.Context, token string) error
}

// Cache stores scope snapshots keyed by raw token.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, token string) (*model.Scope, error)
	Set(ctx context.Context, token string, scope model.Scope) error
	Delete(ctx context.Context, token string) error
	Close() error
}

// ExtractBearer returns the credential of an "Authorization: Bearer <token>"
// header value.
func ExtractBearer(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	tok := strings.TrimSpace(header[len(prefix):])
	if tok == "" || strings.ContainsAny(tok, " \t") {
		return "", ErrMissingToken
	}
	return tok, nil
}

// cacheKey derives a storage key that never exposes the raw credential.
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
