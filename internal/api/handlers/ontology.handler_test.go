package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/secrets"
	"github.com/platformbuilds/theo-core/internal/services"
	"github.com/platformbuilds/theo-core/internal/tenancy"
)

func ontologyRouter(t *testing.T, store *mockStore) (*gin.Engine, *secrets.Sealer) {
	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	sealer, err := secrets.NewSealer(key)
	require.NoError(t, err)

	h := NewOntologyHandler(services.NewOntologyService(store, nil, quietLogger()), sealer, tenancy.NewResolver(""))
	return newTestRouter(func(r *gin.Engine) {
		r.PUT("/ontologies/:id/graph-connection", h.BindGraphConnection)
	}), sealer
}

func TestOntologyHandler_BindGraphConnectionSealsPassword(t *testing.T) {
	store := &mockStore{}
	r, sealer := ontologyRouter(t, store)
	tenantID := uuid.New()
	id := uuid.New()

	var stored *models.GraphConnection
	store.On("SetGraphConnection", mock.Anything, id, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(2).(*models.GraphConnection) }).
		Return(&models.Ontology{ID: id, TenantID: tenantID}, nil)

	w := doJSON(t, r, http.MethodPut, "/ontologies/"+id.String()+"/graph-connection",
		gin.H{"uri": "bolt://graph:7687", "username": "neo4j", "password": "s3cret"}, tenantHeader(tenantID))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, stored)
	assert.Equal(t, "bolt://graph:7687", stored.URI)
	assert.NotEmpty(t, stored.PasswordCiphertext)
	assert.NotContains(t, string(stored.PasswordCiphertext), "s3cret")

	plain, err := sealer.Open(tenantID, stored.PasswordCiphertext)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", plain)

	_, err = sealer.Open(uuid.New(), stored.PasswordCiphertext)
	assert.Error(t, err, "ciphertext must be bound to its tenant")
}

func TestOntologyHandler_BindGraphConnectionWithoutPassword(t *testing.T) {
	store := &mockStore{}
	r, _ := ontologyRouter(t, store)
	id := uuid.New()
	store.On("SetGraphConnection", mock.Anything, id, mock.MatchedBy(func(c *models.GraphConnection) bool {
		return c.PasswordCiphertext == nil
	})).Return(&models.Ontology{ID: id}, nil)

	w := doJSON(t, r, http.MethodPut, "/ontologies/"+id.String()+"/graph-connection",
		gin.H{"uri": "bolt://graph:7687", "username": "reader"}, tenantHeader(uuid.New()))

	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestOntologyHandler_BindGraphConnectionRequiresTenant(t *testing.T) {
	store := &mockStore{}
	r, _ := ontologyRouter(t, store)

	w := doJSON(t, r, http.MethodPut, "/ontologies/"+uuid.NewString()+"/graph-connection",
		gin.H{"uri": "bolt://graph:7687", "username": "neo4j", "password": "s3cret"}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Error, "tenant")
	store.AssertNotCalled(t, "SetGraphConnection", mock.Anything, mock.Anything, mock.Anything)
}

func TestOntologyHandler_BindGraphConnectionValidates(t *testing.T) {
	store := &mockStore{}
	r, _ := ontologyRouter(t, store)

	w := doJSON(t, r, http.MethodPut, "/ontologies/"+uuid.NewString()+"/graph-connection",
		gin.H{"username": "neo4j"}, tenantHeader(uuid.New()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "SetGraphConnection", mock.Anything, mock.Anything, mock.Anything)
}
