package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/platformbuilds/theo-core/internal/config"
	"github.com/platformbuilds/theo-core/internal/tenancy"
)

func TestTenantContext_Sources(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		cfg    config.TenancyConfig
		target string
		header map[string]string
		want   string
	}{
		{name: "none", target: "/x", want: ""},
		{name: "default header", target: "/x", header: map[string]string{"X-Tenant-ID": " t1 "}, want: "t1"},
		{name: "query", target: "/x?tenantId=t2", want: "t2"},
		{name: "header beats query", target: "/x?tenantId=t2", header: map[string]string{"X-Tenant-ID": "t1"}, want: "t1"},
		{name: "custom header", cfg: config.TenancyConfig{HeaderName: "X-Org"}, target: "/x", header: map[string]string{"X-Org": "t3", "X-Tenant-ID": "t1"}, want: "t3"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(TenantContext(tt.cfg))
			var got tenancy.Context
			r.GET("/x", func(c *gin.Context) {
				got, _ = tenancy.FromContext(c.Request.Context())
				c.Status(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, tt.target, http.NoBody)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			r.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got.Requested)
			assert.Empty(t, got.Claim)
		})
	}
}
