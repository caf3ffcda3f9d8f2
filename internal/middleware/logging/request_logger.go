package loggingmw

import (
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/greenstay/hotelenergy/internal/logging"
)

// RequestLogger embeds a request-scoped logger into the context and
// writes one line per completed request. Health probes log at debug so
// orchestrator polling does not drown out telemetry traffic.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				// the request-id middleware runs first and stamps the response
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With(
				"method", req.Method,
				"route", c.Path(),
				"remote_ip", c.RealIP(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}

			status := c.Response().Status
			attrs := []any{
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes_out", c.Response().Size,
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}

			switch {
			case err != nil || status >= 500:
				l.Error("http request", attrs...)
			case status >= 400:
				l.Warn("http request", attrs...)
			case isHealthRoute(c.Path()):
				l.Debug("http request", attrs...)
			default:
				l.Info("http request", attrs...)
			}
			return nil
		}
	}
}

func isHealthRoute(route string) bool {
	return strings.HasPrefix(route, "/health/")
}
