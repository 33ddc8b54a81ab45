package server

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/akave-ai/logwatch/internal/handler"
	"github.com/akave-ai/logwatch/internal/response"
	"github.com/akave-ai/logwatch/internal/token"
)

// AuthMiddleware requires "Authorization: Bearer <adminKey>".
func AuthMiddleware(adminKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			presented, err := token.ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return response.Unauthorized(c, "missing authorization header", "expected 'Bearer <key>'")
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(adminKey)) != 1 {
				return response.Unauthorized(c, "invalid admin key", "invalid admin key")
			}
			return next(c)
		}
	}
}

func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURIPath:   true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := logger.Info()
			if v.Status >= 500 || v.Error != nil {
				ev = logger.Warn().Err(v.Error)
			}
			if variant, ok := c.Get(handler.VariantKey).(string); ok {
				ev = ev.Str("variant", variant)
			}
			if outcome, ok := c.Get(handler.OutcomeKey).(string); ok {
				ev = ev.Str("outcome", outcome)
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// newRelicMiddleware wraps every request in a web transaction named after the
// matched route.
func newRelicMiddleware(app *newrelic.Application) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			txn := app.StartTransaction(req.Method + " " + c.Path())
			defer txn.End()

			txn.SetWebRequestHTTP(req)
			c.Response().Writer = txn.SetWebResponse(c.Response().Writer)
			c.SetRequest(req.WithContext(newrelic.NewContext(req.Context(), txn)))

			err := next(c)
			if err != nil {
				txn.NoticeError(err)
			}
			return err
		}
	}
}
