package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gymhub/api/internal/models"
)

type createTenantRequest struct {
	Name      string `json:"name" binding:"required"`
	Subdomain string `json:"subdomain" binding:"required"`
}

func (h HandlerSet) CreateTenant(c *gin.Context) {
	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Ugyldig forespørsel")
		return
	}

	tenant, err := h.tenantService.Create(c.Request.Context(), req.Name, req.Subdomain)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"tenant": tenantResponse{
		ID:        tenant.ID,
		Name:      tenant.Name,
		Subdomain: tenant.Subdomain,
		Status:    string(tenant.Status),
	}})
}

func (h HandlerSet) ListTenants(c *gin.Context) {
	tenants, err := h.tenantService.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := make([]tenantResponse, 0, len(tenants))
	for _, t := range tenants {
		resp = append(resp, tenantResponse{
			ID:        t.ID,
			Name:      t.Name,
			Subdomain: t.Subdomain,
			Status:    string(t.Status),
		})
	}
	c.JSON(http.StatusOK, gin.H{"tenants": resp})
}

func (h HandlerSet) SetTenantStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Ugyldig forespørsel")
		return
	}

	if err := h.tenantService.SetStatus(c.Request.Context(), c.Param("id"), models.TenantStatus(req.Status)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
