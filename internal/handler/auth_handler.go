package handler

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"

	"mailgate/internal/config"
	"mailgate/internal/logger"
	"mailgate/internal/model"
	"mailgate/internal/service"
)

type AuthHandler struct {
	authService service.AuthService
	config      *config.Config
	store       sessions.Store
	logger      *logger.Logger
}

func NewAuthHandler(authService service.AuthService, cfg *config.Config, log *logger.Logger) *AuthHandler {
	store := NewSessionStore([]byte(cfg.SessionSecret), cfg.IsProduction())
	gothic.Store = store

	goth.UseProviders(
		google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.BaseURL+"/auth/google/callback",
			"https://www.googleapis.com/auth/gmail.readonly",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		),
	)

	return &AuthHandler{
		authService: authService,
		config:      cfg,
		store:       store,
		logger:      log,
	}
}

// BeginAuthHandler initiates the OAuth flow
func (h *AuthHandler) BeginAuthHandler(c echo.Context) error {
	provider := c.Param("provider")
	if provider != "google" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid provider",
		})
	}

	gothic.BeginAuthHandler(c.Response(), withProvider(c, provider))
	return nil
}

// CallbackHandler completes the OAuth exchange, upserts the user with the new
// token pair and starts a session.
func (h *AuthHandler) CallbackHandler(c echo.Context) error {
	req := withProvider(c, "google")

	googleUser, err := gothic.CompleteUserAuth(c.Response(), req)
	if err != nil {
		h.logger.Error("Failed to complete user auth:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Authentication failed",
		})
	}

	user, err := h.authService.GetOrCreateUser(
		c.Request().Context(),
		googleUser.Provider+"_"+googleUser.UserID,
		googleUser.Email,
		googleUser.Name,
		googleUser.AccessToken,
		googleUser.RefreshToken,
		googleUser.ExpiresAt,
	)
	if err != nil {
		h.logger.Error("Failed to get or create user:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to process user",
		})
	}

	session, _ := h.store.Get(req, sessionName)
	session.Values["user_id"] = user.ID
	if err := session.Save(req, c.Response()); err != nil {
		h.logger.Error("Failed to save session:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to save session",
		})
	}

	return c.Redirect(http.StatusTemporaryRedirect, "/")
}

// LogoutHandler destroys the session.
func (h *AuthHandler) LogoutHandler(c echo.Context) error {
	req := withProvider(c, "google")
	gothic.Logout(c.Response(), req)

	session, _ := h.store.Get(req, sessionName)
	session.Options.MaxAge = -1
	_ = session.Save(req, c.Response())

	return c.Redirect(http.StatusTemporaryRedirect, "/")
}

// Me returns the current authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.CurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"message": "Authentication required",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// CurrentUser resolves the session to a user. Implements
// middleware.IdentityResolver.
func (h *AuthHandler) CurrentUser(c echo.Context) (*model.User, error) {
	session, err := h.store.Get(c.Request(), sessionName)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	userID, ok := session.Values["user_id"].(string)
	if !ok {
		return nil, fmt.Errorf("user not authenticated")
	}

	user, err := h.authService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// withProvider sets the provider query parameter so gothic can route the
// request without relying on path matching.
func withProvider(c echo.Context, provider string) *http.Request {
	req := c.Request()
	q := req.URL.Query()
	q.Set("provider", provider)
	req.URL.RawQuery = q.Encode()
	return req
}
