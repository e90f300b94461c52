package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"posada/internal/core/apperror"
	appctx "posada/internal/core/context"
)

// JWTValidator validates access tokens. Implemented by auth.JWTService.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth validates the Bearer token and injects the user into the request
// context. The token tenant must match the header tenant: a valid token
// for property A grants nothing on property B.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			_ = c.Error(apperror.NewUnauthorized("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			_ = c.Error(apperror.NewUnauthorized("invalid authorization header format"))
			c.Abort()
			return
		}

		user, err := validator.ValidateToken(parts[1])
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		if tenantID := c.GetString("tenant_id"); tenantID != "" && user.TenantID != tenantID {
			_ = c.Error(apperror.NewForbidden("token does not belong to this tenant"))
			c.Abort()
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", user.UserID)
		c.Next()
	}
}

// RequireRole rejects requests from users holding none of the given
// roles. Must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, role := range roles {
			if appctx.HasRole(c.Request.Context(), role) {
				c.Next()
				return
			}
		}
		_ = c.Error(apperror.NewForbidden("insufficient permissions").
			WithDetail("required_roles", roles))
		c.Abort()
	}
}
