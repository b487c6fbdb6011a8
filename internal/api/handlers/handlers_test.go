package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/theo-core/internal/api/middleware"
	"github.com/platformbuilds/theo-core/internal/config"
	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

const testAdminRole = "theo_admin"

func quietLogger() logger.Logger {
	return logger.NewMockLogger(io.Discard)
}

// newTestRouter wires the same error, tenant and principal middleware the
// server uses so handlers see a realistic request context.
func newTestRouter(register func(r *gin.Engine)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(
		middleware.ErrorHandler(quietLogger()),
		middleware.TenantContext(config.TenancyConfig{HeaderName: middleware.DefaultTenantHeader}),
		middleware.NoAuthMiddleware(testAdminRole),
	)
	register(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Code   string          `json:"code"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e
}

func tenantHeader(id uuid.UUID) http.Header {
	h := http.Header{}
	h.Set(middleware.DefaultTenantHeader, id.String())
	return h
}

// mockStore implements the store methods the handler tests reach. Any other
// repo.Store method panics on the nil embedded interface.
type mockStore struct {
	mock.Mock
	repo.Store
}

func (m *mockStore) GetWorkspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *mockStore) SetWorkspaceState(ctx context.Context, id uuid.UUID, from, to models.WorkspaceState) (*models.Workspace, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *mockStore) BeginWorkspaceSetup(ctx context.Context, id uuid.UUID, run models.ScenarioRunInput) (*models.Workspace, *models.ScenarioRun, error) {
	args := m.Called(ctx, id, run)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Workspace), args.Get(1).(*models.ScenarioRun), args.Error(2)
}

func (m *mockStore) SetGraphConnection(ctx context.Context, id uuid.UUID, conn *models.GraphConnection) (*models.Ontology, error) {
	args := m.Called(ctx, id, conn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ontology), args.Error(1)
}

func (m *mockStore) FindAccessKeyByHash(ctx context.Context, hash string) (*models.AgentRoleAccessKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AgentRoleAccessKey), args.Error(1)
}

func (m *mockStore) GetAgentRole(ctx context.Context, id uuid.UUID) (*models.AgentRole, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AgentRole), args.Error(1)
}

func (m *mockStore) ListAgentRoleIntents(ctx context.Context, roleID uuid.UUID) ([]*models.Intent, error) {
	args := m.Called(ctx, roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Intent), args.Error(1)
}
