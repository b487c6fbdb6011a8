package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/internal/tenancy"
	"github.com/platformbuilds/theo-core/pkg/cache"
)

func newAgentService(store *MockStore) *AgentService {
	log, _ := testLogger()
	return NewAgentService(store, cache.NewNoopValkeyCache(log), tenancy.NewResolver(""), "tka_", time.Minute, log)
}

func TestCreateAgentRole_PartialFailure(t *testing.T) {
	ctx := context.Background()
	store := &MockStore{}
	svc := newAgentService(store)
	roleID := uuid.New()
	intents := []uuid.UUID{uuid.New()}

	in := models.AgentRoleInput{Name: "analyst", IntentIDs: intents}
	store.On("CreateAgentRole", ctx, in).Return(&models.AgentRole{ID: roleID, Name: "analyst"}, nil)
	store.On("SetAgentRoleIntents", ctx, roleID, intents).Return(repo.ErrNotFound)

	_, err := svc.CreateAgentRole(ctx, in)
	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, roleID, partial.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestCreateAgentRole_ResumeUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	store := &MockStore{}
	svc := newAgentService(store)
	roleID := uuid.New()
	intents := []uuid.UUID{uuid.New()}

	in := models.AgentRoleInput{Name: "analyst", IntentIDs: intents, ResumeRoleID: &roleID}
	store.On("UpdateAgentRole", ctx, roleID, in).Return(&models.AgentRole{ID: roleID}, nil)
	store.On("SetAgentRoleIntents", ctx, roleID, intents).Return(nil)
	store.On("GetAgentRole", ctx, roleID).Return(&models.AgentRole{ID: roleID, IntentIDs: intents}, nil)

	role, err := svc.CreateAgentRole(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, intents, role.IntentIDs)
	store.AssertNotCalled(t, "CreateAgentRole", mock.Anything, mock.Anything)
}

func TestIssueAccessKey_StoresOnlyHash(t *testing.T) {
	ctx := context.Background()
	store := &MockStore{}
	svc := newAgentService(store)
	roleID := uuid.New()

	var stored models.AgentRoleAccessKey
	store.On("CreateAccessKey", ctx, mock.AnythingOfType("models.AgentRoleAccessKey")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(models.AgentRoleAccessKey) }).
		Return(&models.AgentRoleAccessKey{ID: uuid.New(), AgentRoleID: roleID, Prefix: "tka_abcd"}, nil)

	issued, err := svc.IssueAccessKey(ctx, roleID, models.AccessKeyInput{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(issued.Secret, "tka_"))
	assert.Len(t, issued.Secret, len("tka_")+64)
	assert.Equal(t, models.HashAccessKey(issued.Secret), stored.KeyHash)
	assert.Equal(t, issued.Secret[:8], stored.Prefix)
	assert.NotContains(t, stored.KeyHash, issued.Secret)
	assert.NotEmpty(t, issued.Warning)
}

func TestIssueAccessKey_PastExpiry(t *testing.T) {
	svc := newAgentService(&MockStore{})
	past := time.Now().Add(-time.Hour)
	_, err := svc.IssueAccessKey(context.Background(), uuid.New(), models.AccessKeyInput{ExpiresAt: &past})
	assert.ErrorIs(t, err, models.ErrInvalid)
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	secret := "tka_" + strings.Repeat("ab", 32)
	hash := models.HashAccessKey(secret)
	tenantID, roleID, intentID := uuid.New(), uuid.New(), uuid.New()
	key := &models.AgentRoleAccessKey{ID: uuid.New(), TenantID: tenantID, AgentRoleID: roleID}

	t.Run("malformed secret", func(t *testing.T) {
		store := &MockStore{}
		_, err := newAgentService(store).Authorize(ctx, models.AuthorizeRequest{Secret: "nope", OpID: "graph.read"})
		assert.ErrorIs(t, err, ErrUnauthorized)
		store.AssertNotCalled(t, "FindAccessKeyByHash", mock.Anything, mock.Anything)
	})

	t.Run("unknown key", func(t *testing.T) {
		store := &MockStore{}
		store.On("FindAccessKeyByHash", mock.Anything, hash).Return(nil, repo.ErrNotFound)
		_, err := newAgentService(store).Authorize(ctx, models.AuthorizeRequest{Secret: secret, OpID: "graph.read"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("expired key", func(t *testing.T) {
		store := &MockStore{}
		past := time.Now().Add(-time.Minute)
		store.On("FindAccessKeyByHash", mock.Anything, hash).Return(&models.AgentRoleAccessKey{ID: key.ID, ExpiresAt: &past}, nil)
		_, err := newAgentService(store).Authorize(ctx, models.AuthorizeRequest{Secret: secret, OpID: "graph.read"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("store failure is not unauthorized", func(t *testing.T) {
		store := &MockStore{}
		store.On("FindAccessKeyByHash", mock.Anything, hash).Return(nil, errors.New("connection reset"))
		_, err := newAgentService(store).Authorize(ctx, models.AuthorizeRequest{Secret: secret, OpID: "graph.read"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("intent outside allow-list", func(t *testing.T) {
		store := &MockStore{}
		store.On("FindAccessKeyByHash", mock.Anything, hash).Return(key, nil)
		store.On("GetAgentRole", mock.Anything, roleID).Return(&models.AgentRole{ID: roleID}, nil)
		store.On("ListAgentRoleIntents", mock.Anything, roleID).Return([]*models.Intent{{ID: intentID, OpID: "graph.read"}}, nil)
		_, err := newAgentService(store).Authorize(ctx, models.AuthorizeRequest{Secret: secret, OpID: "graph.write"})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("allowed and cached", func(t *testing.T) {
		store := &MockStore{}
		ont := uuid.New()
		store.On("FindAccessKeyByHash", mock.Anything, hash).Return(key, nil)
		store.On("GetAgentRole", mock.Anything, roleID).Return(&models.AgentRole{ID: roleID, ReadOntologyID: &ont}, nil).Once()
		store.On("ListAgentRoleIntents", mock.Anything, roleID).Return([]*models.Intent{{ID: intentID, OpID: "graph.read"}}, nil).Once()
		svc := newAgentService(store)

		for i := 0; i < 2; i++ {
			grant, err := svc.Authorize(ctx, models.AuthorizeRequest{Secret: secret, OpID: "graph.read"})
			require.NoError(t, err)
			assert.Equal(t, intentID, grant.IntentID)
			assert.Equal(t, tenantID, grant.TenantID)
			assert.Equal(t, &ont, grant.ReadOntologyID)
		}
		store.AssertNumberOfCalls(t, "ListAgentRoleIntents", 1)
		store.AssertNumberOfCalls(t, "FindAccessKeyByHash", 2)
	})
}

func TestSetAgentRoleIntents_InvalidatesAllowList(t *testing.T) {
	secret := "tka_" + strings.Repeat("cd", 32)
	hash := models.HashAccessKey(secret)
	tenantID, roleID := uuid.New(), uuid.New()
	readID, writeID := uuid.New(), uuid.New()
	ctx := tenancy.WithTenant(context.Background(), tenantID)

	store := &MockStore{}
	svc := newAgentService(store)
	store.On("FindAccessKeyByHash", mock.Anything, hash).Return(&models.AgentRoleAccessKey{TenantID: tenantID, AgentRoleID: roleID}, nil)
	store.On("GetAgentRole", mock.Anything, roleID).Return(&models.AgentRole{ID: roleID}, nil)
	store.On("ListAgentRoleIntents", mock.Anything, roleID).Return([]*models.Intent{{ID: readID, OpID: "graph.read"}}, nil).Once()

	_, err := svc.Authorize(ctx, models.AuthorizeRequest{Secret: secret, OpID: "graph.write"})
	require.ErrorIs(t, err, ErrForbidden)

	store.On("SetAgentRoleIntents", ctx, roleID, []uuid.UUID{writeID}).Return(nil)
	require.NoError(t, svc.SetAgentRoleIntents(ctx, roleID, []uuid.UUID{writeID}))

	store.On("ListAgentRoleIntents", mock.Anything, roleID).Return([]*models.Intent{{ID: writeID, OpID: "graph.write"}}, nil).Once()
	grant, err := svc.Authorize(ctx, models.AuthorizeRequest{Secret: secret, OpID: "graph.write"})
	require.NoError(t, err)
	assert.Equal(t, writeID, grant.IntentID)
}

func TestDeleteIntent_InvalidatesAfterDelete(t *testing.T) {
	tenantID, roleID, intentID := uuid.New(), uuid.New(), uuid.New()
	ctx := tenancy.WithTenant(context.Background(), tenantID)
	key := allowListKey(tenantID, roleID)

	t.Run("entry survives until the delete commits", func(t *testing.T) {
		log, _ := testLogger()
		c := cache.NewNoopValkeyCache(log)
		store := &MockStore{}
		svc := NewAgentService(store, c, tenancy.NewResolver(""), "tka_", time.Minute, log)
		require.NoError(t, c.Set(ctx, key, roleGrants{Intents: map[string]uuid.UUID{"graph.read": intentID}}, time.Minute))

		store.On("ListAgentRoles", ctx).Return([]*models.AgentRole{
			{ID: roleID, IntentIDs: []uuid.UUID{intentID}},
			{ID: uuid.New()},
		}, nil)
		store.On("DeleteIntent", ctx, intentID).Run(func(mock.Arguments) {
			_, err := c.Get(ctx, key)
			assert.NoError(t, err, "allow-list dropped before the intent was deleted")
		}).Return(nil)

		require.NoError(t, svc.DeleteIntent(ctx, intentID))
		_, err := c.Get(ctx, key)
		assert.ErrorIs(t, err, cache.ErrKeyNotFound)
	})

	t.Run("failed delete keeps the entry", func(t *testing.T) {
		log, _ := testLogger()
		c := cache.NewNoopValkeyCache(log)
		store := &MockStore{}
		svc := NewAgentService(store, c, tenancy.NewResolver(""), "tka_", time.Minute, log)
		require.NoError(t, c.Set(ctx, key, roleGrants{}, time.Minute))

		store.On("ListAgentRoles", ctx).Return([]*models.AgentRole{{ID: roleID, IntentIDs: []uuid.UUID{intentID}}}, nil)
		store.On("DeleteIntent", ctx, intentID).Return(repo.ErrNotFound)

		assert.ErrorIs(t, svc.DeleteIntent(ctx, intentID), repo.ErrNotFound)
		_, err := c.Get(ctx, key)
		assert.NoError(t, err)
	})
}

func TestRolesForOntology(t *testing.T) {
	ctx := context.Background()
	ont := uuid.New()
	reader, writer, other := uuid.New(), uuid.New(), uuid.New()
	store := &MockStore{}
	store.On("ListAgentRoles", ctx).Return([]*models.AgentRole{
		{ID: reader, ReadOntologyID: &ont},
		{ID: writer, WriteOntologyID: &ont},
		{ID: other, ReadOntologyID: ptrTo(uuid.New())},
	}, nil)

	assert.ElementsMatch(t, []uuid.UUID{reader, writer}, newAgentService(store).RolesForOntology(ctx, ont))
}

func ptrTo[T any](v T) *T { return &v }
