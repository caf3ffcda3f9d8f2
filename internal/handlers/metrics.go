package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenstay/hotelenergy/internal/service"
)

type MetricsHandler struct {
	Metrics  *service.MetricsService
	Insights *service.InsightsService
}

func (h *MetricsHandler) Current(c echo.Context) error {
	m := h.Metrics.Generate()
	return c.JSON(http.StatusOK, echo.Map{
		"metrics":          m,
		"efficiency_score": h.Metrics.EfficiencyScore(h.Metrics.History()),
	})
}

func (h *MetricsHandler) GetInsights(c echo.Context) error {
	current := h.Metrics.Generate()
	history := h.Metrics.History()
	return c.JSON(http.StatusOK, echo.Map{
		"insights":      h.Insights.GenerateInsights(current, history),
		"optimizations": h.Insights.GenerateOptimizations(current),
	})
}

func (h *MetricsHandler) GetPredictions(c echo.Context) error {
	hours := parseIntDefault(c.QueryParam("hours"), 6)
	if hours < 1 || hours > 24 {
		return echo.NewHTTPError(http.StatusBadRequest, "hours must be between 1 and 24")
	}

	h.Metrics.Generate()
	return c.JSON(http.StatusOK, echo.Map{
		"predictions": h.Insights.PredictUsage(h.Metrics.History(), hours),
	})
}

func (h *MetricsHandler) GetAnomalies(c echo.Context) error {
	current := h.Metrics.Generate()
	return c.JSON(http.StatusOK, echo.Map{
		"anomalies": h.Insights.DetectAnomalies(current, h.Metrics.History()),
	})
}
