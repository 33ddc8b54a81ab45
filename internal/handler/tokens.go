package handler

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/akave-ai/logwatch/internal/response"
	"github.com/akave-ai/logwatch/internal/token"
)

// Revoker revokes access tokens.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
}

// TokenHandler serves the admin token routes.
type TokenHandler struct {
	Revoker Revoker
	Logger  zerolog.Logger
}

type revokeRequest struct {
	Token string `json:"token"`
}

// Revoke marks a token revoked and evicts it from the cache
// (POST /admin/tokens/revoke).
func (h *TokenHandler) Revoke(c echo.Context) error {
	var req revokeRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid JSON body", err.Error())
	}
	if req.Token == "" {
		return response.BadRequest(c, "missing 'token'", "missing 'token'")
	}
	err := h.Revoker.Revoke(c.Request().Context(), req.Token)
	switch {
	case err == nil:
		h.Logger.Info().Msg("access token revoked")
		return response.NoContent(c)
	case errors.Is(err, token.ErrTokenNotFound):
		return response.NotFound(c, "token not found", "token not found")
	default:
		h.Logger.Error().Err(err).Msg("revoke access token")
		return response.InternalError(c, "revoke failed", "revoke failed")
	}
}
