package router

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"mailgate/internal/config"
	"mailgate/internal/handler"
	"mailgate/internal/logger"
	mw "mailgate/internal/middleware"
	"mailgate/internal/model"
)

// SetupRoutes wires handlers behind the gate chain. Order matters: rate
// limiting runs before identity resolution, authentication before any role
// or ownership check.
func SetupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	log *logger.Logger,
	rl *mw.RateLimiter,
	authHandler *handler.AuthHandler,
	emailHandler *handler.EmailHandler,
	userHandler *handler.UserHandler,
) {
	globalPolicy := mw.Policy{
		Name:   "global",
		Window: time.Duration(cfg.GlobalRateWindow) * time.Second,
		Max:    cfg.GlobalRateMax,
	}
	mailPolicy := mw.Policy{
		Name:   "mail",
		Window: time.Duration(cfg.MailRateWindow) * time.Second,
		Max:    cfg.MailRateMax,
	}

	e.Use(rl.Limit(globalPolicy))
	e.Use(mw.LoadIdentity(authHandler))

	// Public routes
	e.GET("/auth/:provider", authHandler.BeginAuthHandler)
	e.GET("/auth/:provider/callback", authHandler.CallbackHandler)
	e.GET("/auth/logout", authHandler.LogoutHandler)
	e.GET("/auth/me", authHandler.Me)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	// Mailbox routes: authenticated, Google-connected, stricter rate policy
	emails := e.Group("/api/emails")
	emails.Use(rl.Limit(mailPolicy))
	emails.Use(mw.RequireAuth(log))
	emails.Use(mw.RequireGoogleConnected(log))
	emails.GET("", emailHandler.ListEmails)
	emails.GET("/:id", emailHandler.GetEmail)

	// Profile routes: owner or admin
	users := e.Group("/api/users")
	users.Use(mw.RequireAuth(log))
	users.GET("/:userId", userHandler.GetUser, mw.RequireOwnershipOrRoles(log, "userId", model.RoleAdmin))
	users.PUT("/:userId", userHandler.UpdateUser, mw.RequireOwnershipOrRoles(log, "userId", model.RoleAdmin))

	// Admin routes
	admin := e.Group("/api/admin")
	admin.Use(mw.RequireAuth(log))
	admin.Use(mw.RequireRoles(log, model.RoleAdmin))
	admin.GET("/users", userHandler.ListUsers)
}
