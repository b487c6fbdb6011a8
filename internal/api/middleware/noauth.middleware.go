package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoAuthMiddleware binds a system principal when auth is disabled. The
// requested tenant (TenantContext) is honored as is.
func NoAuthMiddleware(globalAdminRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := &Principal{Kind: PrincipalSystem, Subject: "system"}
		if globalAdminRole != "" {
			p.Roles = []string{globalAdminRole}
		}
		bindPrincipal(c, p, globalAdminRole)
		c.Next()
	}
}
