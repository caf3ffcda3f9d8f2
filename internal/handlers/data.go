package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/greenstay/hotelenergy/internal/es"
	"github.com/greenstay/hotelenergy/internal/events"
	"github.com/greenstay/hotelenergy/internal/logging"
	"github.com/greenstay/hotelenergy/internal/models"
	"github.com/greenstay/hotelenergy/internal/service/search"
	"github.com/greenstay/hotelenergy/internal/util"
)

type DataHandler struct {
	DB       *gorm.DB
	ES       *elasticsearch.Client
	Producer *events.Producer
}

// Create ingests one telemetry reading. The search index and the event
// stream are best-effort; a broker or index failure never fails ingest.
func (h *DataHandler) Create(c echo.Context) error {
	var req struct {
		RoomID   string  `json:"room_id"`
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Occupied bool    `json:"occupied"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.RoomID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "room_id is required")
	}

	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "data.create", "room_id", req.RoomID)

	reading := models.RoomData{
		RoomID:    req.RoomID,
		Temp:      req.Temp,
		Humidity:  req.Humidity,
		Occupied:  req.Occupied,
		Timestamp: time.Now().UTC(),
	}
	if err := h.DB.WithContext(ctx).Create(&reading).Error; err != nil {
		l.Error("ingest failed", "status", 503, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
	}

	if h.ES != nil {
		if err := search.Index(ctx, h.ES, es.RoomDataIndex, &reading); err != nil {
			l.Error("search index error", "error", err)
		}
	}

	pubCtx, cancel := contextWithPublishTimeout(c)
	defer cancel()
	event := map[string]any{
		"type":    "reading_ingested",
		"room_id": reading.RoomID,
		"id":      reading.ID,
	}
	if err := h.Producer.Publish(pubCtx, events.TopicTelemetryEvents, reading.RoomID, event); err != nil {
		l.Error("kafka publish error", "error", err)
	}

	return c.JSON(http.StatusCreated, reading)
}

func (h *DataHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	ctx := c.Request().Context()

	var total int64
	if err := h.DB.WithContext(ctx).Model(&models.RoomData{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
	}

	var readings []models.RoomData
	if err := h.DB.WithContext(ctx).Order("timestamp DESC").
		Offset(offset).Limit(limit).Find(&readings).Error; err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": readings,
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

func (h *DataHandler) Latest(c echo.Context) error {
	roomID := c.Param("room_id")

	var reading models.RoomData
	err := h.DB.WithContext(c.Request().Context()).
		Where("room_id = ?", roomID).
		Order("timestamp DESC").
		First(&reading).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no data found for room "+roomID)
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
	}

	return c.JSON(http.StatusOK, reading)
}
