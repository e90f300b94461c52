package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"posada/internal/core/apperror"
	"posada/internal/core/tenant"
	"posada/internal/infrastructure/storage/postgres"
)

// HeaderTenantID selects the property database for the request.
const HeaderTenantID = "X-Tenant-ID"

// TenantDB resolves the tenant from the X-Tenant-ID header and injects
// the tenant, its connection pool, and a transaction manager into the
// request context. Every data access downstream goes through them.
func TenantDB(manager *tenant.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(HeaderTenantID)
		if tenantID == "" {
			_ = c.Error(apperror.NewValidation("missing tenant header").
				WithDetail("header", HeaderTenantID))
			c.Abort()
			return
		}
		if _, err := uuid.Parse(tenantID); err != nil {
			_ = c.Error(apperror.NewValidation("invalid tenant id").
				WithDetail("tenant_id", tenantID))
			c.Abort()
			return
		}

		t, pool, err := manager.Resolve(tenantID)
		if err != nil {
			if errors.Is(err, tenant.ErrTenantNotFound) {
				_ = c.Error(apperror.NewNotFound("tenant", tenantID))
			} else {
				_ = c.Error(apperror.NewInternal(err))
			}
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		ctx = tenant.WithTenant(ctx, t)
		ctx = tenant.WithPool(ctx, pool)
		ctx = tenant.WithTxManager(ctx, postgres.NewTxManager(pool))
		c.Request = c.Request.WithContext(ctx)

		c.Set("tenant_id", tenantID)
		c.Next()
	}
}
