package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/greenstay/hotelenergy/internal/rbac"
	"github.com/greenstay/hotelenergy/internal/service"
)

const identityKey = "identity"

// Identity is the authenticated caller as decoded from the access
// token. The role is the snapshot taken at issuance.
type Identity struct {
	Subject string
	Role    rbac.Role
}

type Middleware struct {
	Tokens *service.TokenService
}

// BearerToken extracts the credential from the Authorization header.
func BearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Authenticate requires a valid access token. Missing, malformed,
// expired or wrong-kind tokens all map to 401 with a bearer challenge;
// 403 is reserved for valid identities lacking rights.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := BearerToken(c)
		if !ok {
			return unauthenticated(c, "missing bearer token")
		}

		claims, err := m.Tokens.VerifyAccess(raw)
		if err != nil {
			return unauthenticated(c, "invalid or expired token")
		}

		c.Set(identityKey, Identity{
			Subject: claims.Subject,
			Role:    rbac.Role(claims.Role),
		})
		return next(c)
	}
}

func RequireRole(required rbac.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return unauthenticated(c, "missing bearer token")
			}
			if !id.Role.Satisfies(required) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}

func RequirePermissions(perms ...rbac.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return unauthenticated(c, "missing bearer token")
			}
			if !id.Role.HasAll(perms...) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}

func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

func unauthenticated(c echo.Context, msg string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}
