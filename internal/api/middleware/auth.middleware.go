package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/platformbuilds/theo-core/internal/config"
	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/monitoring"
	"github.com/platformbuilds/theo-core/internal/services"
)

const (
	ContextKeyTenantID  = "tenant_id"
	ContextKeyPrincipal = "principal"

	defaultTenantClaim = "tenant"
)

type PrincipalKind string

const (
	PrincipalUser   PrincipalKind = "user"
	PrincipalAgent  PrincipalKind = "agent"
	PrincipalSystem PrincipalKind = "system"
)

// Principal is the authenticated caller.
type Principal struct {
	Kind     PrincipalKind
	Subject  string
	TenantID string
	Roles    []string

	// Set for agent access keys only.
	AgentRoleID uuid.UUID
	AccessKeyID uuid.UUID
}

func (p *Principal) HasRole(role string) bool {
	if p == nil || role == "" {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PrincipalFrom returns the principal bound by the auth middleware.
func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(ContextKeyPrincipal)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}

// KeyAuthenticator resolves an agent access key secret.
type KeyAuthenticator interface {
	AuthenticateKey(ctx context.Context, secret string) (*models.AgentRoleAccessKey, error)
}

// AuthMiddleware accepts either an HMAC signed JWT or an agent access key as
// a bearer token. Agent keys are looked up under the requested tenant, so
// TenantContext must run first.
func AuthMiddleware(authConfig config.AuthConfig, keys KeyAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isPublicEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		token := extractToken(c)
		if token == "" {
			AbortWithError(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		var principal *Principal
		if keys != nil && models.LooksLikeAccessKey(token, authConfig.AgentKeyPrefix) {
			key, err := keys.AuthenticateKey(c.Request.Context(), token)
			switch {
			case errors.Is(err, services.ErrUnauthorized):
				AbortWithError(c, http.StatusUnauthorized, "Invalid access key")
				return
			case err != nil:
				_ = c.Error(err)
				c.Abort()
				return
			}
			principal = &Principal{
				Kind:        PrincipalAgent,
				Subject:     key.AgentRoleID.String(),
				TenantID:    key.TenantID.String(),
				AgentRoleID: key.AgentRoleID,
				AccessKeyID: key.ID,
			}
		} else {
			p, err := validateJWTToken(token, authConfig.JWT)
			if err != nil {
				monitoring.RecordAuthAttempt("jwt", "failure")
				AbortWithError(c, http.StatusUnauthorized, "Invalid token")
				return
			}
			monitoring.RecordAuthAttempt("jwt", "success")
			principal = p
		}

		if !bindPrincipal(c, principal, authConfig.GlobalAdminRole) {
			return
		}

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")

		c.Next()
	}
}

// extractToken reads the bearer token. Query string tokens are not accepted.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

func validateJWTToken(tokenString string, jwtConfig config.JWTConfig) (*Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if jwtConfig.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(jwtConfig.Issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtConfig.Secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("token has no subject")
	}

	tenantClaim := jwtConfig.TenantClaim
	if tenantClaim == "" {
		tenantClaim = defaultTenantClaim
	}
	tenantID, _ := claims[tenantClaim].(string)

	return &Principal{
		Kind:     PrincipalUser,
		Subject:  sub,
		TenantID: strings.TrimSpace(tenantID),
		Roles:    rolesClaim(claims["roles"]),
	}, nil
}

func rolesClaim(v interface{}) []string {
	switch roles := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(roles))
		for _, r := range roles {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(roles)
	default:
		return nil
	}
}

func isPublicEndpoint(path string) bool {
	if path == "/" {
		return true
	}
	publicPaths := []string{
		"/health",
		"/ready",
		"/api/openapi.yaml",
		"/api/openapi.json",
		"/swagger/",
		"/metrics",
	}

	for _, publicPath := range publicPaths {
		if strings.HasPrefix(path, publicPath) {
			return true
		}
	}
	return false
}

// RequireRole rejects principals that do not hold role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok || !p.HasRole(role) {
			AbortWithError(c, http.StatusForbidden, "Insufficient permissions")
			return
		}
		c.Next()
	}
}

// RequirePrincipal rejects requests made with the wrong kind of credential.
func RequirePrincipal(kinds ...PrincipalKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if ok {
			for _, k := range kinds {
				if p.Kind == k {
					c.Next()
					return
				}
			}
		}
		AbortWithError(c, http.StatusForbidden, "Credential not accepted for this operation")
	}
}
