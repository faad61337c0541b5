package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mailgate/internal/logger"
	"mailgate/internal/service"
)

type UserHandler struct {
	authService service.AuthService
	logger      *logger.Logger
}

func NewUserHandler(authService service.AuthService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		authService: authService,
		logger:      log,
	}
}

// GetUser handles GET /api/users/:userId. The ownership gate in front of it
// has already decided the caller may see this profile.
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.authService.GetUser(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "User not found",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

type updateProfileRequest struct {
	Name     string `json:"name" validate:"omitempty,max=100"`
	Timezone string `json:"timezone" validate:"omitempty,max=64"`
}

// UpdateUser handles PUT /api/users/:userId.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Validation failed",
			"errors":  fieldErrors(err),
		})
	}

	user, err := h.authService.UpdateProfile(c.Request().Context(), c.Param("userId"), req.Name, req.Timezone)
	if err != nil {
		h.logger.Error("Failed to update profile:", err)
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// ListUsers handles GET /api/admin/users, admin only.
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.authService.ListUsers(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list users:", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to list users",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(users),
		"users":   users,
	})
}
