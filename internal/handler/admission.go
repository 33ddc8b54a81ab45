package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/akave-ai/logwatch/internal/admission"
	"github.com/akave-ai/logwatch/internal/response"
)

// Keys the admission variant and outcome are stored under in echo.Context
// for the request logger.
const (
	VariantKey = "admission_variant"
	OutcomeKey = "admission_outcome"
)

// AdmissionHandler serves one admission variant (POST /ingest or POST /entrypoint).
type AdmissionHandler struct {
	Pipeline *admission.Pipeline
}

// Handle runs the pipeline on the request body and writes its result.
func (h *AdmissionHandler) Handle(c echo.Context) error {
	req := c.Request()
	res := h.Pipeline.Admit(req.Context(), admission.Request{
		Body:          req.Body,
		Authorization: req.Header.Get(echo.HeaderAuthorization),
		Method:        req.Method,
		Path:          req.URL.Path,
		Query:         req.URL.RawQuery,
		Headers:       req.Header.Clone(),
		RequestID:     c.Response().Header().Get(echo.HeaderXRequestID),
	})
	c.Set(VariantKey, h.Pipeline.Variant())
	c.Set(OutcomeKey, string(res.Outcome))
	return response.Admission(c, res)
}
