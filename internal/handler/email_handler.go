package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"mailgate/internal/config"
	"mailgate/internal/logger"
	"mailgate/internal/mailbox"
	"mailgate/internal/middleware"
)

type EmailHandler struct {
	mailClient mailbox.Client
	config     *config.Config
	logger     *logger.Logger
}

func NewEmailHandler(mailClient mailbox.Client, cfg *config.Config, log *logger.Logger) *EmailHandler {
	return &EmailHandler{
		mailClient: mailClient,
		config:     cfg,
		logger:     log,
	}
}

// ListEmails handles GET /api/emails with optional isRead/timeRange/
// timeValue/maxResults filters.
func (h *EmailHandler) ListEmails(c echo.Context) error {
	user, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"message": "Authentication required",
		})
	}

	filter, err := mailbox.ParseFilter(mailbox.RawFilter{
		IsRead:     c.QueryParam("isRead"),
		TimeRange:  c.QueryParam("timeRange"),
		TimeValue:  c.QueryParam("timeValue"),
		MaxResults: c.QueryParam("maxResults"),
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	emails, err := h.mailClient.ListMessages(c.Request().Context(), user, filter)
	if err != nil {
		return h.remoteError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(emails),
		"filters": filter,
		"emails":  emails,
	})
}

// GetEmail handles GET /api/emails/:id.
func (h *EmailHandler) GetEmail(c echo.Context) error {
	user, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"message": "Authentication required",
		})
	}

	email, err := h.mailClient.GetMessage(c.Request().Context(), user, c.Param("id"))
	if err != nil {
		return h.remoteError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"email":   email,
	})
}

// remoteError maps a mailbox error onto the response contract. Anything
// unclassified is a 500 whose detail is hidden in production.
func (h *EmailHandler) remoteError(c echo.Context, err error) error {
	email := "unknown"
	if user, ok := middleware.IdentityFrom(c); ok {
		email = user.Email
	}
	h.logger.Warnf("mailbox error for %s on %s %s: %v", email, c.Request().Method, c.Request().URL.Path, err)

	switch {
	case errors.Is(err, mailbox.ErrAuthExpired):
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Google authentication expired. Please re-authenticate.",
			"code":  "AUTH_EXPIRED",
		})
	case errors.Is(err, mailbox.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{
			"error":   "Email not found",
			"message": mailbox.RemoteMessage(err),
		})
	}

	message := err.Error()
	if h.config.IsProduction() {
		message = "Internal server error"
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": message,
	})
}
