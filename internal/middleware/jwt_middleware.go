package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/accounts_admin/internal/models"
	"github.com/GTDGit/accounts_admin/internal/utils"
)

// Context keys set by JWTMiddleware.
const (
	ContextAdminID    = "admin_id"
	ContextAdminEmail = "admin_email"
)

// TokenValidator verifies admin session tokens.
type TokenValidator interface {
	Validate(token string) (*utils.Claims, error)
}

// AccountLookup loads the account behind a token.
type AccountLookup interface {
	GetByID(ctx context.Context, id int) (*models.UserAccount, error)
}

// JWTMiddleware guards back-office routes with the admin session token. The
// account is reloaded on every request, so deactivation or loss of admin
// access takes effect before the token expires.
type JWTMiddleware struct {
	tokens   TokenValidator
	accounts AccountLookup
}

func NewJWTMiddleware(tokens TokenValidator, accounts AccountLookup) *JWTMiddleware {
	return &JWTMiddleware{tokens: tokens, accounts: accounts}
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Error(c, 401, "UNAUTHORIZED", "Invalid authorization header")
			c.Abort()
			return
		}

		claims, err := m.tokens.Validate(parts[1])
		if err != nil {
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		account, err := m.accounts.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, utils.ErrAccountNotFound) {
				utils.Error(c, 401, "INVALID_TOKEN", "Account no longer exists")
			} else {
				log.Error().Err(err).Int("admin_id", claims.UserID).Msg("Failed to load admin account")
				utils.Error(c, 500, "INTERNAL_ERROR", "Failed to verify session")
			}
			c.Abort()
			return
		}
		if !account.IsActive {
			utils.Error(c, 403, "ACCOUNT_INACTIVE", "Account is inactive")
			c.Abort()
			return
		}
		if !account.IsAdmin {
			utils.Error(c, 403, "NOT_ADMIN", "Account has no admin access")
			c.Abort()
			return
		}

		c.Set(ContextAdminID, account.ID)
		c.Set(ContextAdminEmail, account.Email)
		c.Next()
	}
}
