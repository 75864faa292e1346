package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gymhub/api/internal/models"
)

func RequireRoles(roles ...models.AccountRole) gin.HandlerFunc {
	roleSet := make(map[models.AccountRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		accountVal, exists := c.Get("current_account")
		if !exists {
			unauthorized(c)
			return
		}
		account, ok := accountVal.(models.Account)
		if !ok {
			unauthorized(c)
			return
		}

		if _, ok := roleSet[account.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Ingen tilgang",
			})
			return
		}

		c.Next()
	}
}
