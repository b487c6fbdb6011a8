//go:build e2e

// Package e2e drives a running theo-core started with auth disabled, e.g.
//
//	THEO_E2E_BASE_URL=http://localhost:8080 go test -tags e2e ./deployments/localdev/e2e
package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func baseURL(t *testing.T) string {
	v := os.Getenv("THEO_E2E_BASE_URL")
	if v == "" {
		t.Skip("THEO_E2E_BASE_URL not set")
	}
	return v
}

var client = &http.Client{Timeout: 15 * time.Second}

// call sends body as JSON and decodes the data field of the envelope into out.
func call(t *testing.T, method, url, tenant string, body, out any) int {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode
}

type idOnly struct {
	ID string `json:"id"`
}

func TestHealthAndOpenAPI(t *testing.T) {
	b := baseURL(t)
	for _, path := range []string{"/health", "/ready", "/api/openapi.json"} {
		resp, err := client.Get(b + path)
		require.NoError(t, err, path)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func provision(t *testing.T, b string) string {
	t.Helper()
	var tenant idOnly
	code := call(t, http.MethodPost, b+"/api/v1/tenants", "", map[string]any{"name": "e2e-" + uuid.NewString()[:8]}, &tenant)
	require.Equal(t, http.StatusCreated, code)
	return tenant.ID
}

func TestWorkspaceIsolation(t *testing.T) {
	b := baseURL(t)
	tenantA, tenantB := provision(t, b), provision(t, b)

	var owner idOnly
	require.Equal(t, http.StatusCreated,
		call(t, http.MethodPost, b+"/api/v1/users", tenantA, map[string]any{"email": "owner-" + uuid.NewString()[:8] + "@example.com"}, &owner))

	var ws struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}
	require.Equal(t, http.StatusCreated,
		call(t, http.MethodPost, b+"/api/v1/workspaces", tenantA, map[string]any{"name": "Churn review", "ownerId": owner.ID}, &ws))
	require.Equal(t, "draft", ws.State)

	require.Equal(t, http.StatusOK,
		call(t, http.MethodPost, b+"/api/v1/workspaces/"+ws.ID+"/state", tenantA, map[string]any{"state": "working"}, &ws))
	require.Equal(t, "working", ws.State)

	// Another tenant sees nothing, and cannot modify it either.
	require.Equal(t, http.StatusNotFound, call(t, http.MethodGet, b+"/api/v1/workspaces/"+ws.ID, tenantB, nil, nil))
	require.Equal(t, http.StatusNotFound,
		call(t, http.MethodPatch, b+"/api/v1/workspaces/"+ws.ID, tenantB, map[string]any{"name": "hijacked"}, nil))

	require.Equal(t, http.StatusOK, call(t, http.MethodGet, b+"/api/v1/workspaces/"+ws.ID, tenantA, nil, &ws))
}
