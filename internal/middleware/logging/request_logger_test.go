package loggingmw

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/greenstay/hotelenergy/internal/logging"
)

func runLogged(t *testing.T, target string, handler echo.HandlerFunc) string {
	t.Helper()
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(target)

	require.NoError(t, RequestLogger(base)(handler)(c))
	return buf.String()
}

func TestRequestLoggerEmbedsContextLogger(t *testing.T) {
	out := runLogged(t, "/api/v1/metrics", func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context())
		require.NotEqual(t, slog.Default(), l)
		return c.NoContent(http.StatusOK)
	})
	require.Contains(t, out, `"msg":"http request"`)
	require.Contains(t, out, `"level":"INFO"`)
	require.Contains(t, out, `"request_id":"req-42"`)
	require.Contains(t, out, `"route":"/api/v1/metrics"`)
}

func TestRequestLoggerHealthProbesAtDebug(t *testing.T) {
	out := runLogged(t, "/health/live", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.Contains(t, out, `"level":"DEBUG"`)
}

func TestRequestLoggerErrorsAtErrorLevel(t *testing.T) {
	out := runLogged(t, "/api/v1/users", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
	})
	require.Contains(t, out, `"level":"ERROR"`)
	require.Contains(t, out, `"status":503`)
}
