package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/internal/services"
	"github.com/platformbuilds/theo-core/internal/tenancy"
	"github.com/platformbuilds/theo-core/pkg/cache"
)

const testKeyPrefix = "tka_"

func agentRouter(store *mockStore) *gin.Engine {
	svc := services.NewAgentService(store, cache.NewNoopValkeyCache(quietLogger()), tenancy.NewResolver(""),
		testKeyPrefix, time.Minute, quietLogger())
	h := NewAgentHandler(svc)
	return newTestRouter(func(r *gin.Engine) {
		r.POST("/agents/authorize", h.Authorize)
	})
}

func TestAgentHandler_Authorize(t *testing.T) {
	secret, err := models.GenerateAccessKey(testKeyPrefix)
	require.NoError(t, err)
	tenantID, roleID, intentID := uuid.New(), uuid.New(), uuid.New()
	readOntology := uuid.New()

	newStore := func() *mockStore {
		store := &mockStore{}
		store.On("FindAccessKeyByHash", mock.Anything, models.HashAccessKey(secret)).
			Return(&models.AgentRoleAccessKey{ID: uuid.New(), TenantID: tenantID, AgentRoleID: roleID}, nil)
		store.On("GetAgentRole", mock.Anything, roleID).
			Return(&models.AgentRole{ID: roleID, TenantID: tenantID, ReadOntologyID: &readOntology}, nil)
		store.On("ListAgentRoleIntents", mock.Anything, roleID).
			Return([]*models.Intent{{ID: intentID, TenantID: tenantID, OpID: "metrics.query"}}, nil)
		return store
	}

	t.Run("granted", func(t *testing.T) {
		w := doJSON(t, agentRouter(newStore()), http.MethodPost, "/agents/authorize",
			gin.H{"secret": secret, "opId": "metrics.query"}, tenantHeader(tenantID))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var grant models.AgentGrant
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &grant))
		assert.Equal(t, intentID, grant.IntentID)
		assert.Equal(t, roleID, grant.AgentRoleID)
		require.NotNil(t, grant.ReadOntologyID)
		assert.Equal(t, readOntology, *grant.ReadOntologyID)
	})

	t.Run("intent not granted", func(t *testing.T) {
		w := doJSON(t, agentRouter(newStore()), http.MethodPost, "/agents/authorize",
			gin.H{"secret": secret, "opId": "ontology.write"}, tenantHeader(tenantID))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "ACCESS_DENIED", decode(t, w).Code)
	})

	t.Run("unknown key", func(t *testing.T) {
		store := &mockStore{}
		store.On("FindAccessKeyByHash", mock.Anything, mock.Anything).Return(nil, repo.ErrNotFound)

		w := doJSON(t, agentRouter(store), http.MethodPost, "/agents/authorize",
			gin.H{"secret": testKeyPrefix + "deadbeef", "opId": "metrics.query"}, tenantHeader(tenantID))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong prefix never reaches the store", func(t *testing.T) {
		store := &mockStore{}
		w := doJSON(t, agentRouter(store), http.MethodPost, "/agents/authorize",
			gin.H{"secret": "sk_live_123", "opId": "metrics.query"}, tenantHeader(tenantID))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		store.AssertNotCalled(t, "FindAccessKeyByHash", mock.Anything, mock.Anything)
	})

	t.Run("missing op id", func(t *testing.T) {
		w := doJSON(t, agentRouter(&mockStore{}), http.MethodPost, "/agents/authorize",
			gin.H{"secret": secret}, tenantHeader(tenantID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_REQUEST", decode(t, w).Code)
	})
}
