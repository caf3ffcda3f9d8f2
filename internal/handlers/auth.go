package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenstay/hotelenergy/internal/events"
	"github.com/greenstay/hotelenergy/internal/logging"
	authmw "github.com/greenstay/hotelenergy/internal/middleware/auth"
	"github.com/greenstay/hotelenergy/internal/service"
	"github.com/greenstay/hotelenergy/internal/tokens"
)

type AuthHandler struct {
	Users    *service.UserService
	Tokens   *service.TokenService
	Producer *events.Producer
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := contextWithPublishTimeout(c)
	defer cancel()
	if err := h.Producer.Publish(ctx, events.TopicUserEvents, eventKey(event), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed credentials")
	}

	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login", "username", req.Username)

	user, err := h.Users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			l.Warn("login failed", "status", 401)
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
		}
		l.Error("login failed", "status", 503, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
	}

	pair, err := h.Tokens.IssuePair(ctx, user)
	if err != nil {
		l.Error("login failed", "status", 503, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
	}

	h.publish(c, map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "bearer",
	})
}

// Refresh exchanges a refresh token for a new access token. Presenting
// an access token here is a 400; anything invalid, expired or revoked
// is a 401.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw, ok := authmw.BearerToken(c)
	if !ok {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	access, _, err := h.Tokens.Refresh(ctx, raw)
	if err != nil {
		switch {
		case errors.Is(err, tokens.ErrWrongKind):
			return echo.NewHTTPError(http.StatusBadRequest, "not a refresh token")
		case errors.Is(err, tokens.ErrTokenRevoked),
			errors.Is(err, tokens.ErrTokenExpired),
			errors.Is(err, tokens.ErrInvalidToken):
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired refresh token")
		}
		l.Error("refresh failed", "status", 503, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": access,
		"token_type":   "bearer",
	})
}

// Logout revokes the presented refresh token. The kind is checked first
// so presenting an access token is a 400, not a silent no-op.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, ok := authmw.BearerToken(c)
	if !ok {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	if _, err := h.Tokens.VerifyRefresh(raw); err != nil {
		if errors.Is(err, tokens.ErrWrongKind) {
			return echo.NewHTTPError(http.StatusBadRequest, "not a refresh token")
		}
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired refresh token")
	}

	ctx := c.Request().Context()
	if err := h.Tokens.Revoke(ctx, raw); err != nil {
		logging.FromContext(ctx).Error("logout failed", "status", 503, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
