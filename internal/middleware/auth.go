package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gymhub/api/internal/apperr"
	"gymhub/api/internal/config"
	"gymhub/api/internal/models"
	"gymhub/api/internal/security"
)

// AccountSource is the account lookup the auth middleware needs. Satisfied
// by repository.AccountRepository.
type AccountSource interface {
	GetByID(ctx context.Context, id string) (models.Account, error)
}

// TenantSource is the tenant lookup counterpart.
type TenantSource interface {
	GetByID(ctx context.Context, id string) (models.Tenant, error)
}

// Auth validates the bearer token and re-checks both active flags on every
// request. Tokens are stateless, so these checks are what stands in for
// revocation.
func Auth(cfg *config.AppConfig, accounts AccountSource, tenants TenantSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTSecret)
		if err != nil {
			unauthorized(c)
			return
		}

		account, err := accounts.GetByID(c.Request.Context(), claims.AccountID)
		if err != nil {
			unauthorized(c)
			return
		}
		if account.TenantID != claims.TenantID {
			unauthorized(c)
			return
		}
		if account.Status != models.AccountStatusActive {
			forbidden(c, apperr.MsgAccountDisabled)
			return
		}

		tenant, err := tenants.GetByID(c.Request.Context(), account.TenantID)
		if err != nil {
			unauthorized(c)
			return
		}
		if tenant.Status != models.TenantStatusActive {
			forbidden(c, apperr.MsgTenantDisabled)
			return
		}

		c.Set("access_claims", *claims)
		c.Set("current_account", account)
		c.Set("current_tenant", tenant)

		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   "Ikke innlogget",
	})
}

func forbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error":   message,
	})
}
