package services

import (
	"bytes"
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

// MockStore implements the store methods exercised by these tests. Calling
// any other repo.Store method panics on the nil embedded interface.
type MockStore struct {
	mock.Mock
	repo.Store
}

func testLogger() (logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.NewMockLogger(&buf), &buf
}

func (m *MockStore) CreateTenant(ctx context.Context, id uuid.UUID, in models.TenantInput) (*models.Tenant, error) {
	args := m.Called(ctx, id, in)
	if fn, ok := args.Get(0).(func(context.Context, uuid.UUID, models.TenantInput) *models.Tenant); ok {
		return fn(ctx, id, in), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockStore) GetWorkspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockStore) UpdateWorkspace(ctx context.Context, id uuid.UUID, patch models.WorkspacePatch) (*models.Workspace, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockStore) SetWorkspaceState(ctx context.Context, id uuid.UUID, from, to models.WorkspaceState) (*models.Workspace, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockStore) BeginWorkspaceSetup(ctx context.Context, id uuid.UUID, run models.ScenarioRunInput) (*models.Workspace, *models.ScenarioRun, error) {
	args := m.Called(ctx, id, run)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Workspace), args.Get(1).(*models.ScenarioRun), args.Error(2)
}

func (m *MockStore) UpsertMember(ctx context.Context, workspaceID, userID uuid.UUID, role string) (*models.WorkspaceMember, error) {
	args := m.Called(ctx, workspaceID, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkspaceMember), args.Error(1)
}

func (m *MockStore) GetOntology(ctx context.Context, id uuid.UUID) (*models.Ontology, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ontology), args.Error(1)
}

func (m *MockStore) SetOntologyStatus(ctx context.Context, id uuid.UUID, status models.OntologyStatus) (*models.Ontology, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ontology), args.Error(1)
}

func (m *MockStore) CreateEntity(ctx context.Context, in models.SemanticEntityInput) (*models.SemanticEntity, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SemanticEntity), args.Error(1)
}

func (m *MockStore) GetEntity(ctx context.Context, id uuid.UUID) (*models.SemanticEntity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SemanticEntity), args.Error(1)
}

func (m *MockStore) CreateField(ctx context.Context, entityID uuid.UUID, in models.SemanticFieldInput) (*models.SemanticField, error) {
	args := m.Called(ctx, entityID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SemanticField), args.Error(1)
}

func (m *MockStore) GetRun(ctx context.Context, id uuid.UUID) (*models.ScenarioRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScenarioRun), args.Error(1)
}

func (m *MockStore) TransitionRun(ctx context.Context, id uuid.UUID, from models.RunStatus, t models.RunTransition) (*models.ScenarioRun, error) {
	args := m.Called(ctx, id, from, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScenarioRun), args.Error(1)
}

func (m *MockStore) GetAttachment(ctx context.Context, id uuid.UUID) (*models.ScratchpadAttachment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScratchpadAttachment), args.Error(1)
}

func (m *MockStore) UpdateAttachmentProcessing(ctx context.Context, id uuid.UUID, from models.ProcessingStatus, u models.ProcessingUpdate) (*models.ScratchpadAttachment, error) {
	args := m.Called(ctx, id, from, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScratchpadAttachment), args.Error(1)
}

func (m *MockStore) SetBlockContent(ctx context.Context, blockID uuid.UUID, content models.BlockContent) (*models.ReportBlock, error) {
	args := m.Called(ctx, blockID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReportBlock), args.Error(1)
}

func (m *MockStore) CreateReport(ctx context.Context, in models.ReportInput) (*models.Report, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *MockStore) CreateAgentRole(ctx context.Context, in models.AgentRoleInput) (*models.AgentRole, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AgentRole), args.Error(1)
}

func (m *MockStore) UpdateAgentRole(ctx context.Context, id uuid.UUID, in models.AgentRoleInput) (*models.AgentRole, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AgentRole), args.Error(1)
}

func (m *MockStore) GetAgentRole(ctx context.Context, id uuid.UUID) (*models.AgentRole, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AgentRole), args.Error(1)
}

func (m *MockStore) SetAgentRoleIntents(ctx context.Context, roleID uuid.UUID, intentIDs []uuid.UUID) error {
	args := m.Called(ctx, roleID, intentIDs)
	return args.Error(0)
}

func (m *MockStore) ListAgentRoleIntents(ctx context.Context, roleID uuid.UUID) ([]*models.Intent, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).([]*models.Intent), args.Error(1)
}

func (m *MockStore) CreateAccessKey(ctx context.Context, key models.AgentRoleAccessKey) (*models.AgentRoleAccessKey, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AgentRoleAccessKey), args.Error(1)
}

func (m *MockStore) FindAccessKeyByHash(ctx context.Context, hash string) (*models.AgentRoleAccessKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AgentRoleAccessKey), args.Error(1)
}

func (m *MockStore) DeleteOntology(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) DeleteIntent(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) ListAgentRoles(ctx context.Context) ([]*models.AgentRole, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AgentRole), args.Error(1)
}
