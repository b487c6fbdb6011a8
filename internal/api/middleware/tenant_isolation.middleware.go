package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/theo-core/internal/config"
	"github.com/platformbuilds/theo-core/internal/tenancy"
)

const (
	DefaultTenantHeader = "X-Tenant-ID"
	TenantQueryParam    = "tenantId"
)

// TenantContext attaches the explicitly requested tenant (header, then query
// parameter) to the request context. The principal's claim is added later by
// the auth middleware and takes precedence at connection acquisition.
func TenantContext(cfg config.TenancyConfig) gin.HandlerFunc {
	header := cfg.HeaderName
	if header == "" {
		header = DefaultTenantHeader
	}
	return func(c *gin.Context) {
		requested := strings.TrimSpace(c.GetHeader(header))
		if requested == "" {
			requested = strings.TrimSpace(c.Query(TenantQueryParam))
		}

		tc, _ := tenancy.FromContext(c.Request.Context())
		tc.Requested = requested
		c.Request = c.Request.WithContext(tenancy.WithContext(c.Request.Context(), tc))
		if requested != "" {
			c.Set(ContextKeyTenantID, requested)
		}
		c.Next()
	}
}

// bindPrincipal records the authenticated principal and its tenant claim.
// A principal bound to a tenant may not address a different one. A
// principal with no tenant claim keeps the requested tenant only when it
// holds the global admin role.
func bindPrincipal(c *gin.Context, p *Principal, globalAdminRole string) bool {
	ctx := c.Request.Context()
	tc, _ := tenancy.FromContext(ctx)

	switch {
	case p.TenantID != "":
		if tc.Requested != "" && !strings.EqualFold(tc.Requested, p.TenantID) {
			AbortWithError(c, http.StatusForbidden, "Tenant does not match credentials")
			return false
		}
		tc.Claim = p.TenantID
	case !p.HasRole(globalAdminRole):
		tc.Requested = ""
	}

	c.Request = c.Request.WithContext(tenancy.WithContext(ctx, tc))
	c.Set(ContextKeyPrincipal, p)
	if tc.Claim != "" {
		c.Set(ContextKeyTenantID, tc.Claim)
	} else if tc.Requested != "" {
		c.Set(ContextKeyTenantID, tc.Requested)
	} else {
		delete(c.Keys, ContextKeyTenantID)
	}
	return true
}
