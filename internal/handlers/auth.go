package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gymhub/api/internal/models"
	"gymhub/api/internal/service"
)

type accountResponse struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenantId"`
	Email       string  `json:"email"`
	Username    *string `json:"username,omitempty"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
	Role        string  `json:"role"`
	Status      string  `json:"status"`
	LastLoginAt *string `json:"lastLoginAt,omitempty"`
}

func toAccountResponse(account models.Account) accountResponse {
	resp := accountResponse{
		ID:        account.ID,
		TenantID:  account.TenantID,
		Email:     account.Email,
		Username:  account.Username,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Phone:     account.Phone,
		Role:      string(account.Role),
		Status:    string(account.Status),
	}
	if account.DateOfBirth != nil {
		dob := account.DateOfBirth.Format("2006-01-02")
		resp.DateOfBirth = &dob
	}
	if account.LastLoginAt != nil {
		ts := account.LastLoginAt.Format(time.RFC3339)
		resp.LastLoginAt = &ts
	}
	return resp
}

type tenantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
	Status    string `json:"status,omitempty"`
}

type registerRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName" binding:"required"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"dateOfBirth"`
	Username    string `json:"username"`
	TenantID    string `json:"tenantId" binding:"required"`
}

func (h HandlerSet) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Ugyldig forespørsel")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Username:    req.Username,
		TenantID:    req.TenantID,
		ClientIP:    c.ClientIP(),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":  toAccountResponse(result.Account),
		"token": result.Token,
	})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	TenantID   string `json:"tenantId"`
}

// identifierValue tolerates the three field names older app versions send.
func (r loginRequest) identifierValue() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	if r.Email != "" {
		return r.Email
	}
	return r.Username
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Ugyldig forespørsel")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Identifier: req.identifierValue(),
		Password:   req.Password,
		TenantHint: req.TenantID,
		ClientIP:   c.ClientIP(),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if result.RequiresTenantSelection {
		tenants := make([]tenantResponse, 0, len(result.Tenants))
		for _, t := range result.Tenants {
			tenants = append(tenants, tenantResponse{ID: t.ID, Name: t.Name, Subdomain: t.Subdomain})
		}
		c.JSON(http.StatusOK, gin.H{
			"requiresTenantSelection": true,
			"tenants":                 tenants,
			"identifier":              result.Identifier,
			"selectionToken":          result.SelectionToken,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  toAccountResponse(result.Account),
		"token": result.Token,
	})
}

type selectTenantRequest struct {
	SelectionToken string `json:"selectionToken" binding:"required"`
	TenantID       string `json:"tenantId" binding:"required"`
}

func (h HandlerSet) SelectTenant(c *gin.Context) {
	var req selectTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Ugyldig forespørsel")
		return
	}

	result, err := h.authService.SelectTenant(c.Request.Context(), service.SelectTenantInput{
		SelectionToken: req.SelectionToken,
		TenantID:       req.TenantID,
		ClientIP:       c.ClientIP(),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  toAccountResponse(result.Account),
		"token": result.Token,
	})
}

func (h HandlerSet) Me(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": toAccountResponse(account),
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Ugyldig forespørsel")
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), account.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func currentAccount(c *gin.Context) (models.Account, bool) {
	accountVal, exists := c.Get("current_account")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Ikke innlogget"})
		return models.Account{}, false
	}
	account, ok := accountVal.(models.Account)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Ikke innlogget"})
		return models.Account{}, false
	}
	return account, true
}
