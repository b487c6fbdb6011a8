package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/internal/tracing"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

// WorkspaceService owns the workspace lifecycle, membership and pinned items.
type WorkspaceService struct {
	store  repo.WorkspaceStore
	logger logger.Logger
}

func NewWorkspaceService(store repo.WorkspaceStore, log logger.Logger) *WorkspaceService {
	return &WorkspaceService{store: store, logger: log}
}

func (s *WorkspaceService) Create(ctx context.Context, in models.WorkspaceInput) (*models.Workspace, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateWorkspace(ctx, in)
}

func (s *WorkspaceService) Get(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	return s.store.GetWorkspace(ctx, id)
}

func (s *WorkspaceService) List(ctx context.Context, filter models.WorkspaceListFilter) ([]*models.Workspace, error) {
	if filter.State != nil && !filter.State.Valid() {
		return nil, &models.ValidationError{Field: "state", Message: fmt.Sprintf("unknown state %q", *filter.State)}
	}
	page := repo.Page{Limit: filter.Limit, Offset: filter.Offset}.Normalize()
	filter.Limit, filter.Offset = page.Limit, page.Offset
	return s.store.ListWorkspaces(ctx, filter)
}

// Update applies a partial patch. An empty patch returns the current row.
func (s *WorkspaceService) Update(ctx context.Context, id uuid.UUID, patch models.WorkspacePatch) (*models.Workspace, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.store.GetWorkspace(ctx, id)
	}
	return s.store.UpdateWorkspace(ctx, id, patch)
}

func (s *WorkspaceService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteWorkspace(ctx, id)
}

// Transition moves the workspace to state to. A concurrent transition
// surfaces as ErrConflict.
func (s *WorkspaceService) Transition(ctx context.Context, id uuid.UUID, to models.WorkspaceState) (*models.Workspace, error) {
	if !to.Valid() {
		return nil, &models.ValidationError{Field: "state", Message: fmt.Sprintf("unknown state %q", to)}
	}
	w, err := s.store.GetWorkspace(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.State == to {
		return w, nil
	}
	if !w.State.CanTransitionTo(to) {
		return nil, models.ErrStateTransition(w.State, to)
	}
	out, err := s.store.SetWorkspaceState(ctx, id, w.State, to)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Workspace state changed", "workspace_id", id, "from", w.State, "to", to)
	return out, nil
}

// StartSetup creates the setup run on the requested engine and links it to
// the workspace, which enters the setup state at intent discovery.
func (s *WorkspaceService) StartSetup(ctx context.Context, id uuid.UUID, req models.SetupRequest) (*models.Workspace, *models.ScenarioRun, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "workspaces", "start_setup", attribute.String("workspace.id", id.String()))
	defer span.End()
	w, run, err := s.startSetup(ctx, id, req)
	tracing.RecordError(span, err)
	return w, run, err
}

func (s *WorkspaceService) startSetup(ctx context.Context, id uuid.UUID, req models.SetupRequest) (*models.Workspace, *models.ScenarioRun, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	title := "Workspace setup"
	run := models.ScenarioRunInput{WorkspaceID: id, Engine: req.Engine, Title: &title}
	if req.Prompt != "" {
		run.Prompt = &req.Prompt
	}
	if err := run.Validate(); err != nil {
		return nil, nil, err
	}
	w, r, err := s.store.BeginWorkspaceSetup(ctx, id, run)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("Workspace setup started", "workspace_id", id, "run_id", r.ID, "engine", r.Engine)
	return w, r, nil
}

// CancelSetup unlinks the setup run. The run and the workspace state are left
// as they are; the engine is told to stop through TransitionRun.
func (s *WorkspaceService) CancelSetup(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	return s.store.ClearSetupRun(ctx, id)
}

// SetupArtifacts are the JSON documents produced during setup.
type SetupArtifacts struct {
	DataScope        json.RawMessage    `json:"dataScope,omitempty"`
	ExecutionResults json.RawMessage    `json:"executionResults,omitempty"`
	IntentPackage    json.RawMessage    `json:"intentPackage,omitempty"`
	TeamConfig       json.RawMessage    `json:"teamConfig,omitempty"`
	SetupStage       *models.SetupStage `json:"setupStage,omitempty"`
	ExpectedVersion  *int64             `json:"expectedVersion,omitempty"`
}

func (s *WorkspaceService) SaveSetupArtifacts(ctx context.Context, id uuid.UUID, a SetupArtifacts) (*models.Workspace, error) {
	return s.Update(ctx, id, models.WorkspacePatch{
		DataScope:        a.DataScope,
		ExecutionResults: a.ExecutionResults,
		IntentPackage:    a.IntentPackage,
		TeamConfig:       a.TeamConfig,
		SetupStage:       a.SetupStage,
		ExpectedVersion:  a.ExpectedVersion,
	})
}

func (s *WorkspaceService) UpsertMember(ctx context.Context, workspaceID, userID uuid.UUID, role string) (*models.WorkspaceMember, error) {
	if role == "" {
		role = models.MemberViewer
	}
	if err := models.ValidateMemberRole(role); err != nil {
		return nil, err
	}
	return s.store.UpsertMember(ctx, workspaceID, userID, role)
}

func (s *WorkspaceService) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceMember, error) {
	return s.store.ListMembers(ctx, workspaceID)
}

func (s *WorkspaceService) RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	return s.store.RemoveMember(ctx, workspaceID, userID)
}

func (s *WorkspaceService) PinItem(ctx context.Context, workspaceID uuid.UUID, in models.WorkspaceItemInput) (*models.WorkspaceItem, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpsertItem(ctx, workspaceID, in)
}

func (s *WorkspaceService) ListItems(ctx context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceItem, error) {
	return s.store.ListItems(ctx, workspaceID)
}

func (s *WorkspaceService) UnpinItem(ctx context.Context, workspaceID, itemID uuid.UUID) error {
	return s.store.DeleteItem(ctx, workspaceID, itemID)
}
