package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/akave-ai/logwatch/internal/response"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	Checks  map[string]HealthCheck
	Timeout time.Duration
}

// Health runs every check and answers 200 when all pass, 503 otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		if err := h.Checks[name](ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": status})
	}
	return response.OK(c, map[string]any{"status": "ok", "checks": status}, "")
}
