package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gymhub/api/internal/models"
	"gymhub/api/internal/service"
)

func (h HandlerSet) ListAccounts(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	// Admins see their own tenant; super-admins may ask for any.
	tenantID := account.TenantID
	if account.Role == models.AccountRoleSuperAdmin {
		if requested := c.Query("tenantId"); requested != "" {
			tenantID = requested
		}
	}

	accounts, err := h.accountService.ListByTenant(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, toAccountResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"users": resp})
}

type createAccountRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Phone     string `json:"phone"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	TenantID  string `json:"tenantId"`
}

func (h HandlerSet) CreateAccount(c *gin.Context) {
	admin, ok := currentAccount(c)
	if !ok {
		return
	}

	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Ugyldig forespørsel")
		return
	}

	tenantID := admin.TenantID
	if admin.Role == models.AccountRoleSuperAdmin && req.TenantID != "" {
		tenantID = req.TenantID
	}

	role := models.AccountRole(req.Role)
	if req.Role == "" {
		role = models.AccountRoleCustomer
	}

	account, err := h.accountService.Create(c.Request.Context(), service.CreateAccountInput{
		TenantID:  tenantID,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Username:  req.Username,
		Role:      role,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": toAccountResponse(account)})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h HandlerSet) SetAccountStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Ugyldig forespørsel")
		return
	}

	if err := h.accountService.SetStatus(c.Request.Context(), c.Param("id"), models.AccountStatus(req.Status)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h HandlerSet) SetAccountRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Ugyldig forespørsel")
		return
	}

	if err := h.accountService.SetRole(c.Request.Context(), c.Param("id"), models.AccountRole(req.Role)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type transferRequest struct {
	TenantID string `json:"tenantId" binding:"required"`
}

func (h HandlerSet) TransferAccount(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Ugyldig forespørsel")
		return
	}

	if err := h.accountService.Transfer(c.Request.Context(), c.Param("id"), req.TenantID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) DeleteAccount(c *gin.Context) {
	if err := h.accountService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
