package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/internal/tenancy"
)

func TestOntologySetStatus(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("finalize draft", func(t *testing.T) {
		store := &MockStore{}
		log, _ := testLogger()
		svc := NewOntologyService(store, nil, log)
		store.On("GetOntology", ctx, id).Return(&models.Ontology{ID: id, Status: models.OntologyDraft}, nil)
		store.On("SetOntologyStatus", ctx, id, models.OntologyFinalized).Return(&models.Ontology{ID: id, Status: models.OntologyFinalized}, nil)

		o, err := svc.SetStatus(ctx, id, models.OntologyFinalized)
		require.NoError(t, err)
		assert.Equal(t, models.OntologyFinalized, o.Status)
	})

	t.Run("finalized cannot return to draft", func(t *testing.T) {
		store := &MockStore{}
		log, _ := testLogger()
		svc := NewOntologyService(store, nil, log)
		store.On("GetOntology", ctx, id).Return(&models.Ontology{ID: id, Status: models.OntologyFinalized}, nil)

		_, err := svc.SetStatus(ctx, id, models.OntologyDraft)
		assert.ErrorIs(t, err, models.ErrInvalid)
		store.AssertNotCalled(t, "SetOntologyStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc := NewOntologyService(&MockStore{}, nil, nil)
		_, err := svc.SetStatus(ctx, id, "published")
		assert.ErrorIs(t, err, models.ErrInvalid)
	})
}

func TestCreateEntity_FinalizedOntologyRejects(t *testing.T) {
	ctx := context.Background()
	ont := uuid.New()
	store := &MockStore{}
	log, _ := testLogger()
	svc := NewOntologyService(store, nil, log)
	store.On("GetOntology", ctx, ont).Return(&models.Ontology{ID: ont, Status: models.OntologyFinalized}, nil)

	_, err := svc.CreateEntity(ctx, models.SemanticEntityInput{OntologyID: &ont, NodeLabel: "Supplier"})
	assert.ErrorIs(t, err, models.ErrInvalid)
	store.AssertNotCalled(t, "CreateEntity", mock.Anything, mock.Anything)
}

func TestCreateEntity_TenantWideSkipsGuard(t *testing.T) {
	ctx := context.Background()
	store := &MockStore{}
	log, _ := testLogger()
	svc := NewOntologyService(store, nil, log)
	in := models.SemanticEntityInput{NodeLabel: "Supplier", Name: "Supplier"}
	store.On("CreateEntity", ctx, in).Return(&models.SemanticEntity{ID: uuid.New(), NodeLabel: "Supplier", Version: 1}, nil)

	e, err := svc.CreateEntity(ctx, models.SemanticEntityInput{NodeLabel: "Supplier"})
	require.NoError(t, err)
	assert.Equal(t, 1, e.Version)
	store.AssertNotCalled(t, "GetOntology", mock.Anything, mock.Anything)
}

func TestAddField_DefaultsToCurrentVersion(t *testing.T) {
	ctx := context.Background()
	ont, entity := uuid.New(), uuid.New()
	store := &MockStore{}
	log, _ := testLogger()
	svc := NewOntologyService(store, nil, log)

	store.On("GetEntity", ctx, entity).Return(&models.SemanticEntity{ID: entity, OntologyID: &ont, Version: 3}, nil)
	store.On("GetOntology", ctx, ont).Return(&models.Ontology{ID: ont, Status: models.OntologyDraft}, nil)
	store.On("CreateField", ctx, entity, mock.MatchedBy(func(in models.SemanticFieldInput) bool {
		return in.Version == 3 && in.Kind == models.FieldKindProperty
	})).Return(&models.SemanticField{EntityID: entity, FieldName: "name", Version: 3}, nil)

	f, err := svc.AddField(ctx, entity, models.SemanticFieldInput{FieldName: "name"})
	require.NoError(t, err)
	assert.Equal(t, 3, f.Version)
	store.AssertExpectations(t)
}

func TestDeleteOntology_DropsCachedAgentGrants(t *testing.T) {
	secret := "tka_" + strings.Repeat("ef", 32)
	hash := models.HashAccessKey(secret)
	tenantID, roleID, intentID, ont := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	ctx := tenancy.WithTenant(context.Background(), tenantID)

	store := &MockStore{}
	agents := newAgentService(store)
	svc := NewOntologyService(store, agents, agents.logger)

	store.On("FindAccessKeyByHash", mock.Anything, hash).Return(&models.AgentRoleAccessKey{TenantID: tenantID, AgentRoleID: roleID}, nil)
	store.On("ListAgentRoleIntents", mock.Anything, roleID).Return([]*models.Intent{{ID: intentID, OpID: "graph.read"}}, nil)
	store.On("GetAgentRole", mock.Anything, roleID).Return(&models.AgentRole{ID: roleID, ReadOntologyID: &ont, WriteOntologyID: &ont}, nil).Once()

	grant, err := agents.Authorize(ctx, models.AuthorizeRequest{Secret: secret, OpID: "graph.read"})
	require.NoError(t, err)
	require.Equal(t, &ont, grant.ReadOntologyID)

	store.On("ListAgentRoles", ctx).Return([]*models.AgentRole{{ID: roleID, ReadOntologyID: &ont, WriteOntologyID: &ont}}, nil)
	store.On("DeleteOntology", ctx, ont).Return(nil)
	require.NoError(t, svc.Delete(ctx, ont))

	// The database cleared both columns.
	store.On("GetAgentRole", mock.Anything, roleID).Return(&models.AgentRole{ID: roleID}, nil).Once()
	grant, err = agents.Authorize(ctx, models.AuthorizeRequest{Secret: secret, OpID: "graph.read"})
	require.NoError(t, err)
	assert.Nil(t, grant.ReadOntologyID)
	assert.Nil(t, grant.WriteOntologyID)
	store.AssertNumberOfCalls(t, "GetAgentRole", 2)
}

func TestDeleteOntology_FailureKeepsGrants(t *testing.T) {
	ctx := tenancy.WithTenant(context.Background(), uuid.New())
	ont := uuid.New()
	store := &MockStore{}
	agents := newAgentService(store)
	svc := NewOntologyService(store, agents, agents.logger)

	store.On("ListAgentRoles", ctx).Return([]*models.AgentRole{{ID: uuid.New(), ReadOntologyID: &ont}}, nil)
	store.On("DeleteOntology", ctx, ont).Return(repo.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, ont), repo.ErrNotFound)
}
