package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
	"github.com/akave-ai/logwatch/internal/response"
)

// SinkHandler handles /sinks/types. It is read-only: sinks are configured
// at startup, never through the API.
type SinkHandler struct {
	Registry *sinks.Registry
	// Active maps each enabled variant to the sink type it forwards to.
	Active map[string]string
}

// ListTypes returns config specs for every registered sink type and the
// sinks currently in use (GET /sinks/types).
func (h *SinkHandler) ListTypes(c echo.Context) error {
	return response.OK(c, map[string]any{
		"types":  h.Registry.AllTypesInfo(),
		"active": h.Active,
	}, "")
}

// GetTypeInfo returns the config spec for one sink type (GET /sinks/types/:type).
func (h *SinkHandler) GetTypeInfo(c echo.Context) error {
	typeName := c.Param("type")
	if typeName == "" {
		return response.BadRequest(c, "missing type in path", "missing type in path")
	}
	info, ok := h.Registry.GetTypeInfo(typeName)
	if !ok {
		return response.Error(c, http.StatusNotFound, "unknown sink type", "unknown sink type: "+typeName)
	}
	return response.OK(c, info, "")
}
