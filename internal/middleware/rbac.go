package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/voluntrack/voluntrack-api/internal/models"
	appErrors "github.com/voluntrack/voluntrack-api/pkg/errors"
	"github.com/voluntrack/voluntrack-api/pkg/response"
)

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...models.UserRole) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedRoles[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrPermissionDenied)
		c.Abort()
	}
}

// Reviewers allows coordinators and administrators.
func Reviewers() gin.HandlerFunc {
	return RBAC(models.RoleCoordinator, models.RoleAdmin)
}

// AdminOnly restricts a route to administrators.
func AdminOnly() gin.HandlerFunc {
	return RBAC(models.RoleAdmin)
}
