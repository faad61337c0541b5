package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mailgate/internal/logger"
	"mailgate/internal/model"
)

const identityKey = "identity"

// IdentityResolver turns an inbound request into the authenticated user, if
// any. The OAuth handler implements this against its session store.
type IdentityResolver interface {
	CurrentUser(c echo.Context) (*model.User, error)
}

// LoadIdentity resolves the caller once per request and attaches it to the
// context for the gates below. A request with no session passes through with
// no identity set; denying is the gates' job.
func LoadIdentity(resolver IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if user, err := resolver.CurrentUser(c); err == nil && user != nil {
				c.Set(identityKey, user)
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the authenticated user attached to the request, or
// (nil, false) when the request is anonymous.
func IdentityFrom(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(identityKey).(*model.User)
	return user, ok && user != nil
}

// SetIdentity attaches a user directly, bypassing session resolution. Tests
// use it to exercise the gates in isolation.
func SetIdentity(c echo.Context, user *model.User) {
	c.Set(identityKey, user)
}

func identityEmail(c echo.Context) string {
	if user, ok := IdentityFrom(c); ok {
		return user.Email
	}
	return "unknown"
}

// RequireAuth denies anonymous requests. It must run before any role or
// ownership gate.
func RequireAuth(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := IdentityFrom(c); !ok {
				log.Warnf("auth denied: no identity for %s %s", c.Request().Method, c.Request().URL.Path)
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"success": false,
					"message": "Authentication required",
				})
			}
			return next(c)
		}
	}
}

// RequireRoles denies callers whose role set does not intersect the required
// roles. Assumes RequireAuth already ran.
func RequireRoles(log *logger.Logger, roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := IdentityFrom(c)
			if !ok || !user.Roles.Intersects(roles) {
				log.Warnf("role denied: %s on %s %s", identityEmail(c), c.Request().Method, c.Request().URL.Path)
				return c.JSON(http.StatusForbidden, map[string]interface{}{
					"success": false,
					"message": "Insufficient permissions",
				})
			}
			log.Debugf("role granted: %s on %s %s", user.Email, c.Request().Method, c.Request().URL.Path)
			return next(c)
		}
	}
}

// RequireOwnershipOrRoles allows the request when the path parameter equals
// the caller's id, or when the caller holds one of the bypass roles.
func RequireOwnershipOrRoles(log *logger.Logger, param string, roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			resourceID := c.Param(param)
			if resourceID == "" {
				log.Warnf("ownership denied: missing %q param on %s %s", param, c.Request().Method, c.Request().URL.Path)
				return c.JSON(http.StatusBadRequest, map[string]interface{}{
					"success": false,
					"message": "Invalid request",
				})
			}

			user, ok := IdentityFrom(c)
			if ok && user.ID == resourceID {
				log.Debugf("ownership granted: %s owns %s", user.Email, resourceID)
				return next(c)
			}
			if ok && user.Roles.Intersects(roles) {
				log.Debugf("ownership bypassed by role: %s on %s", user.Email, resourceID)
				return next(c)
			}

			log.Warnf("ownership denied: %s on %s %s", identityEmail(c), c.Request().Method, c.Request().URL.Path)
			return c.JSON(http.StatusForbidden, map[string]interface{}{
				"success": false,
				"message": "Access denied",
			})
		}
	}
}

// RequireGoogleConnected denies callers with no stored Gmail credential. The
// machine-readable code lets the frontend route straight into the OAuth flow.
func RequireGoogleConnected(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := IdentityFrom(c)
			if !ok || !user.GoogleConnected() {
				log.Warnf("google gate denied: %s on %s %s", identityEmail(c), c.Request().Method, c.Request().URL.Path)
				return c.JSON(http.StatusForbidden, map[string]interface{}{
					"success": false,
					"message": "Google account not connected. Please authenticate with Google first.",
					"code":    "GOOGLE_NOT_CONNECTED",
				})
			}
			return next(c)
		}
	}
}
