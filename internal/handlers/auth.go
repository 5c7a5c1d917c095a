// internal/handlers/auth.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/baraholka/backend/internal/i18n"
	"github.com/baraholka/backend/internal/services"
	"github.com/baraholka/backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /auth/telegram
func (h *AuthHandler) TelegramLogin(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.TelegramLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	resp, err := h.authService.TelegramLogin(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTelegramAuthInvalid):
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthTelegramRejected))
		case errors.Is(err, services.ErrPermissionDenied):
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyUserBanned))
		default:
			if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
				utils.ValidationErrorResponse(c, validationErrors)
				return
			}
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	utils.SuccessResponse(c, resp)
}

// POST /auth/staff/login
func (h *AuthHandler) StaffLogin(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.StaffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	resp, err := h.authService.StaffLogin(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
		case errors.Is(err, services.ErrPermissionDenied):
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyUserBanned))
		default:
			if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
				utils.ValidationErrorResponse(c, validationErrors)
				return
			}
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	utils.SuccessResponse(c, resp)
}

// POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "refresh_token is required", nil)
		return
	}

	resp, err := h.authService.RefreshToken(req.RefreshToken)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	utils.SuccessResponse(c, resp)
}

// GET /auth/me
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	user, err := h.authService.GetProfile(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "user")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, user)
}
