package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/greenstay/hotelenergy/internal/events"
	"github.com/greenstay/hotelenergy/internal/logging"
	authmw "github.com/greenstay/hotelenergy/internal/middleware/auth"
	"github.com/greenstay/hotelenergy/internal/models"
	"github.com/greenstay/hotelenergy/internal/rbac"
	"github.com/greenstay/hotelenergy/internal/service"
	"github.com/greenstay/hotelenergy/internal/util"
)

type UserHandler struct {
	Users    *service.UserService
	Producer *events.Producer
}

func userError(err error) error {
	switch {
	case errors.Is(err, service.ErrDuplicateUsername),
		errors.Is(err, service.ErrDuplicateEmail):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidRole):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSelfRoleChange),
		errors.Is(err, service.ErrSelfDelete),
		errors.Is(err, service.ErrLastAdminProtected):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
}

// actor resolves the authenticated identity back to its user record for
// the self-targeting checks.
func (h *UserHandler) actor(c echo.Context) (*models.User, error) {
	id, ok := authmw.IdentityFrom(c)
	if !ok {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}
	user, err := h.Users.GetByUsername(c.Request().Context(), id.Subject)
	if err != nil {
		return nil, userError(err)
	}
	return user, nil
}

func (h *UserHandler) Create(c echo.Context) error {
	var req struct {
		Username string  `json:"username"`
		Password string  `json:"password"`
		Email    *string `json:"email"`
		Role     string  `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.create", "username", req.Username)

	user, err := h.Users.Create(ctx, service.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     rbac.Role(req.Role),
	})
	if err != nil {
		l.Warn("create user failed", "error", err)
		return userError(err)
	}

	h.publish(c, map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
		"role":     string(user.Role),
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	users, total, err := h.Users.List(c.Request().Context(), offset, limit)
	if err != nil {
		return userError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": users,
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	user, err := h.Users.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		return userError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.actor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	actor, err := h.actor(c)
	if err != nil {
		return err
	}

	var req struct {
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	patch := service.UpdateUserInput{
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Role != nil {
		role := rbac.Role(*req.Role)
		patch.Role = &role
	}

	user, err := h.Users.Update(c.Request().Context(), actor.ID, uint(id), patch)
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn("update user failed",
			"handler", "users.update", "target", id, "error", err)
		return userError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	actor, err := h.actor(c)
	if err != nil {
		return err
	}

	if err := h.Users.Delete(c.Request().Context(), actor.ID, uint(id)); err != nil {
		logging.FromContext(c.Request().Context()).Warn("delete user failed",
			"handler", "users.delete", "target", id, "error", err)
		return userError(err)
	}

	h.publish(c, map[string]any{
		"type":   "user_deleted",
		"userID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := contextWithPublishTimeout(c)
	defer cancel()
	if err := h.Producer.Publish(ctx, events.TopicUserEvents, eventKey(event), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}
