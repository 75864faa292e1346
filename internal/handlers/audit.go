package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gymhub/api/internal/models"
)

type auditResponse struct {
	ID        string            `json:"id"`
	TenantID  string            `json:"tenantId"`
	AccountID string            `json:"accountId"`
	Action    string            `json:"action"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (h HandlerSet) ListAudit(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	tenantID := account.TenantID
	if account.Role == models.AccountRoleSuperAdmin {
		if requested := c.Query("tenantId"); requested != "" {
			tenantID = requested
		}
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}

	records, err := h.auditRecords.ListByTenant(c.Request.Context(), tenantID, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := make([]auditResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, auditResponse{
			ID:        record.ID,
			TenantID:  record.TenantID,
			AccountID: record.AccountID,
			Action:    string(record.Action),
			Metadata:  record.Metadata,
			CreatedAt: record.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"records": resp})
}
