package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/accounts_admin/internal/service"
	"github.com/GTDGit/accounts_admin/internal/utils"
)

type AuthHandler struct {
	authService *service.AdminAuthService
}

func NewAuthHandler(authService *service.AdminAuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /v1/admin/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrTooManyAttempts):
			utils.Error(c, 429, "TOO_MANY_ATTEMPTS", "Too many failed login attempts, try again later")
		case errors.Is(err, utils.ErrAccountInactive):
			utils.Error(c, 403, "ACCOUNT_INACTIVE", "Account is inactive")
		case errors.Is(err, utils.ErrNotAdmin):
			utils.Error(c, 403, "NOT_ADMIN", "Account has no admin access")
		case errors.Is(err, utils.ErrInvalidCredentials):
			utils.Error(c, 401, "INVALID_CREDENTIALS", "Invalid credentials")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Login failed")
		}
		return
	}

	utils.Success(c, 200, "Login successful", gin.H{
		"token": token,
	})
}
