package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/theo-core/internal/config"
	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/services"
	"github.com/platformbuilds/theo-core/internal/tenancy"
)

const testSecret = "secret123"

type mockKeys struct{ mock.Mock }

func (m *mockKeys) AuthenticateKey(ctx context.Context, secret string) (*models.AgentRoleAccessKey, error) {
	args := m.Called(ctx, secret)
	if k, ok := args.Get(0).(*models.AgentRoleAccessKey); ok {
		return k, args.Error(1)
	}
	return nil, args.Error(1)
}

func authConfig() config.AuthConfig {
	return config.AuthConfig{
		Enabled:         true,
		JWT:             config.JWTConfig{Secret: testSecret, TenantClaim: "tenant"},
		GlobalAdminRole: "global_admin",
		AgentKeyPrefix:  "tka_",
	}
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

type seen struct {
	tenant    tenancy.Context
	principal *Principal
}

func authRouter(keys KeyAuthenticator, out *seen) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TenantContext(config.TenancyConfig{}), AuthMiddleware(authConfig(), keys))
	r.GET("/api/v1/things", func(c *gin.Context) {
		out.tenant, _ = tenancy.FromContext(c.Request.Context())
		out.principal, _ = PrincipalFrom(c)
		c.String(http.StatusOK, "ok")
	})
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func do(r http.Handler, path, token, tenant string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestExtractToken_BearerOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	c.Request = httptest.NewRequest(http.MethodGet, "/x?token=qt", http.NoBody)
	assert.Empty(t, extractToken(c))

	c.Request = httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
	c.Request.Header.Set("Authorization", "Bearer abcd")
	assert.Equal(t, "abcd", extractToken(c))
}

func TestValidateJWTToken(t *testing.T) {
	cfg := authConfig().JWT

	s := signToken(t, jwt.MapClaims{"sub": "u1", "tenant": "t1", "roles": []string{"viewer", "admin"}})
	p, err := validateJWTToken(s, cfg)
	require.NoError(t, err)
	assert.Equal(t, PrincipalUser, p.Kind)
	assert.Equal(t, "u1", p.Subject)
	assert.Equal(t, "t1", p.TenantID)
	assert.Equal(t, []string{"viewer", "admin"}, p.Roles)

	_, err = validateJWTToken(signToken(t, jwt.MapClaims{"tenant": "t1"}), cfg)
	assert.Error(t, err, "subject is required")

	expired := signToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()})
	_, err = validateJWTToken(expired, cfg)
	assert.Error(t, err)

	cfg.Issuer = "theo"
	_, err = validateJWTToken(s, cfg)
	assert.Error(t, err, "issuer mismatch")
}

func TestValidateJWTToken_CustomTenantClaim(t *testing.T) {
	cfg := config.JWTConfig{Secret: testSecret, TenantClaim: "org"}
	p, err := validateJWTToken(signToken(t, jwt.MapClaims{"sub": "u1", "org": "t9", "roles": "a b"}), cfg)
	require.NoError(t, err)
	assert.Equal(t, "t9", p.TenantID)
	assert.Equal(t, []string{"a", "b"}, p.Roles)
}

func TestAuth_PublicAndMissingToken(t *testing.T) {
	var out seen
	r := authRouter(nil, &out)

	assert.Equal(t, http.StatusOK, do(r, "/health", "", "").Code)

	w := do(r, "/api/v1/things", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"status":"error","error":"Authentication required","code":"UNAUTHORIZED"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/v1/things", "garbage", "").Code)
}

func TestAuth_JWTClaimBindsTenant(t *testing.T) {
	var out seen
	r := authRouter(nil, &out)
	tenant := uuid.NewString()

	w := do(r, "/api/v1/things", signToken(t, jwt.MapClaims{"sub": "u1", "tenant": tenant}), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenant, out.tenant.Claim)
	assert.Equal(t, "u1", out.principal.Subject)

	// Same tenant in the header is fine, any other is rejected.
	assert.Equal(t, http.StatusOK, do(r, "/api/v1/things", signToken(t, jwt.MapClaims{"sub": "u1", "tenant": tenant}), tenant).Code)
	w = do(r, "/api/v1/things", signToken(t, jwt.MapClaims{"sub": "u1", "tenant": tenant}), uuid.NewString())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuth_RequestedTenantNeedsAdminWithoutClaim(t *testing.T) {
	var out seen
	r := authRouter(nil, &out)
	tenant := uuid.NewString()

	require.Equal(t, http.StatusOK, do(r, "/api/v1/things", signToken(t, jwt.MapClaims{"sub": "u1"}), tenant).Code)
	assert.Empty(t, out.tenant.Requested)
	assert.Empty(t, out.tenant.Claim)

	require.Equal(t, http.StatusOK, do(r, "/api/v1/things", signToken(t, jwt.MapClaims{"sub": "root", "roles": []string{"global_admin"}}), tenant).Code)
	assert.Equal(t, tenant, out.tenant.Requested)
	assert.Empty(t, out.tenant.Claim)
}

func TestAuth_AgentKey(t *testing.T) {
	tenant, role, keyID := uuid.New(), uuid.New(), uuid.New()
	secret := "tka_" + "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

	keys := new(mockKeys)
	keys.On("AuthenticateKey", mock.Anything, secret).
		Return(&models.AgentRoleAccessKey{ID: keyID, TenantID: tenant, AgentRoleID: role}, nil).Once()
	keys.On("AuthenticateKey", mock.Anything, "tka_unknown").Return(nil, services.ErrUnauthorized).Once()

	var out seen
	r := authRouter(keys, &out)

	w := do(r, "/api/v1/things", secret, tenant.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, PrincipalAgent, out.principal.Kind)
	assert.Equal(t, role, out.principal.AgentRoleID)
	assert.Equal(t, keyID, out.principal.AccessKeyID)
	assert.Equal(t, tenant.String(), out.tenant.Claim)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/v1/things", "tka_unknown", tenant.String()).Code)
	keys.AssertExpectations(t)
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TenantContext(config.TenancyConfig{}), AuthMiddleware(authConfig(), nil), RequireRole("global_admin"))
	r.POST("/api/v1/tenants", func(c *gin.Context) { c.String(http.StatusCreated, "ok") })

	req := func(roles []string) int {
		rq := httptest.NewRequest(http.MethodPost, "/api/v1/tenants", http.NoBody)
		rq.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{"sub": "u", "roles": roles}))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, rq)
		return w.Code
	}
	assert.Equal(t, http.StatusForbidden, req([]string{"viewer"}))
	assert.Equal(t, http.StatusCreated, req([]string{"global_admin"}))
}

func TestRequirePrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TenantContext(config.TenancyConfig{}), AuthMiddleware(authConfig(), nil), RequirePrincipal(PrincipalAgent))
	r.GET("/api/v1/agent-only", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := do(r, "/api/v1/agent-only", signToken(t, jwt.MapClaims{"sub": "u"}), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
