package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenstay/hotelenergy/internal/handlers"
	authmw "github.com/greenstay/hotelenergy/internal/middleware/auth"
	"github.com/greenstay/hotelenergy/internal/rbac"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	DataHandler    *handlers.DataHandler
	MetricsHandler *handlers.MetricsHandler
	SearchHandler  *handlers.SearchHandler
	AuthMW         *authmw.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.GET("/", func(c echo.Context) error {
		id, _ := authmw.IdentityFrom(c)
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "user": id.Subject})
	}, d.AuthMW.Authenticate)

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh-token", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)

	secured := v1.Group("", d.AuthMW.Authenticate)

	secured.GET("/users/me", d.UserHandler.Me)

	users := secured.Group("/users", authmw.RequireRole(rbac.RoleAdmin))
	users.POST("", d.UserHandler.Create)
	users.GET("", d.UserHandler.List)
	users.GET("/:id", d.UserHandler.Get)
	users.PATCH("/:id", d.UserHandler.Update)
	users.DELETE("/:id", d.UserHandler.Delete)

	secured.POST("/data", d.DataHandler.Create, authmw.RequirePermissions(rbac.PermCreateRoomData))
	secured.GET("/data/all", d.DataHandler.List, authmw.RequirePermissions(rbac.PermReadRoomData))
	secured.GET("/room/:room_id/latest", d.DataHandler.Latest, authmw.RequirePermissions(rbac.PermReadRoomData))

	viewer := secured.Group("", authmw.RequireRole(rbac.RoleViewer))
	viewer.GET("/metrics", d.MetricsHandler.Current)
	viewer.GET("/insights", d.MetricsHandler.GetInsights)
	viewer.GET("/predictions", d.MetricsHandler.GetPredictions)
	viewer.GET("/anomalies", d.MetricsHandler.GetAnomalies)
	viewer.GET("/search", d.SearchHandler.Search)
}
