package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gymhub/api/internal/apperr"
	"gymhub/api/internal/audit"
	"gymhub/api/internal/config"
	"gymhub/api/internal/middleware"
	"gymhub/api/internal/models"
	"gymhub/api/internal/notify"
	"gymhub/api/internal/ratelimit"
	"gymhub/api/internal/repository"
	"gymhub/api/internal/service"
)

// auditLister is the slice of the audit repository the admin listing needs.
type auditLister interface {
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]models.AuditRecord, error)
}

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	db             *pgxpool.Pool
	cache          *redis.Client
	authService    *service.AuthService
	accountService *service.AccountService
	tenantService  *service.TenantService
	accounts       middleware.AccountSource
	tenants        middleware.TenantSource
	auditRecords   auditLister
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, limiter ratelimit.Limiter, cfg *config.AppConfig) HandlerSet {
	accountRepo := repository.NewAccountRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	recorder := audit.NewRecorder(cache, cfg.Audit.Stream, log)
	mailer := notify.NewLogMailer(log)

	auth := service.NewAuthService(accountRepo, tenantRepo, limiter, recorder, mailer, cfg, log)
	accounts := service.NewAccountService(accountRepo, tenantRepo, recorder, log)
	tenants := service.NewTenantService(tenantRepo, log)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		db:             db,
		cache:          cache,
		authService:    auth,
		accountService: accounts,
		tenantService:  tenants,
		accounts:       accountRepo,
		tenants:        tenantRepo,
		auditRecords:   auditRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterAccount)
		auth.POST("/login", h.Login)
		auth.POST("/select-tenant", h.SelectTenant)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.cfg, h.accounts, h.tenants))
		protected.GET("/me", h.Me)
		protected.POST("/change-password", h.ChangePassword)

		admin := v1.Group("/admin")
		admin.Use(
			middleware.Auth(h.cfg, h.accounts, h.tenants),
			middleware.RequireRoles(models.AccountRoleAdmin, models.AccountRoleSuperAdmin),
		)
		admin.GET("/accounts", h.ListAccounts)
		admin.POST("/accounts", h.CreateAccount)
		admin.PATCH("/accounts/:id/status", h.SetAccountStatus)
		admin.PATCH("/accounts/:id/role", h.SetAccountRole)
		admin.GET("/audit", h.ListAudit)

		super := v1.Group("/admin")
		super.Use(
			middleware.Auth(h.cfg, h.accounts, h.tenants),
			middleware.RequireRoles(models.AccountRoleSuperAdmin),
		)
		super.POST("/accounts/:id/transfer", h.TransferAccount)
		super.DELETE("/accounts/:id", h.DeleteAccount)
		super.POST("/tenants", h.CreateTenant)
		super.GET("/tenants", h.ListTenants)
		super.PATCH("/tenants/:id/status", h.SetTenantStatus)
	}
}

// respondError maps a service failure to its HTTP status, exposing only
// the sanitized message.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	appErr := apperr.From(err)
	if appErr.Kind == apperr.KindInternal {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	if appErr.Kind == apperr.KindRateLimited && appErr.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(appErr.RetryAfter.Seconds())))
	}
	c.JSON(appErr.Kind.HTTPStatus(), gin.H{
		"success": false,
		"error":   appErr.Message,
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   message,
	})
}
