package monitoring

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSetupPrometheusMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HTTPMetricsMiddleware())
	SetupPrometheusMetrics(r, "")
	r.GET("/api/v1/workspaces/:id", func(c *gin.Context) { c.Status(204) })

	RecordTenantBinding("unbound", "none")
	RecordDBOperation("select", "workspaces", time.Millisecond, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/workspaces/6b1f3c2e-8d4a-4f0e-9b7c-2a1d5e6f7a8b", nil))
	assert.Equal(t, 204, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "theo_core_tenant_binding_total"))
	assert.True(t, strings.Contains(body, `endpoint="/api/v1/workspaces/:id"`))
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "/api/v1/runs/:id/logs", normalizeEndpoint("/api/v1/runs/6b1f3c2e-8d4a-4f0e-9b7c-2a1d5e6f7a8b/logs"))
	assert.Equal(t, "/api/v1/items/:id", normalizeEndpoint("/api/v1/items/42"))
	assert.Equal(t, "/health", normalizeEndpoint("/health"))
}

func TestStatementLabels(t *testing.T) {
	cases := []struct {
		sql, op, table string
	}{
		{"SELECT id, name FROM workspaces WHERE id = $1", "select", "workspaces"},
		{"INSERT INTO scenario_run_logs (run_id) VALUES ($1)", "insert", "scenario_run_logs"},
		{"UPDATE ontologies SET status = $1", "update", "ontologies"},
		{"DELETE FROM agent_roles WHERE id = $1", "delete", "agent_roles"},
		{"SELECT set_config('app.tenant_id', $1, false)", "select", "none"},
		{"  ", "unknown", "unknown"},
		{"SET ROLE theo_app", "set", "none"},
		{`SELECT EXISTS (SELECT 1 FROM "users" WHERE id = $1)`, "select", "users"},
		{`INSERT INTO "public"."scratchpad_notes" (title) VALUES ($1)`, "insert", "scratchpad_notes"},
	}
	for _, tc := range cases {
		op, table := statementLabels(tc.sql)
		assert.Equal(t, tc.op, op, tc.sql)
		assert.Equal(t, tc.table, table, tc.sql)
	}
}
