package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

// CollaborationStore is the persistence behind a workspace's working surface.
type CollaborationStore interface {
	repo.ScenarioStore
	repo.ChangesetStore
	repo.ContentStore
}

// CollaborationService covers scenarios and their runs, overlay changesets,
// insights, the scratchpad, analyses and the workspace AI team.
type CollaborationService struct {
	store  CollaborationStore
	logger logger.Logger
}

func NewCollaborationService(store CollaborationStore, log logger.Logger) *CollaborationService {
	return &CollaborationService{store: store, logger: log}
}

func (s *CollaborationService) CreateScenario(ctx context.Context, workspaceID uuid.UUID, in models.ScenarioInput) (*models.Scenario, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateScenario(ctx, workspaceID, in)
}

func (s *CollaborationService) GetScenario(ctx context.Context, id uuid.UUID) (*models.Scenario, error) {
	return s.store.GetScenario(ctx, id)
}

func (s *CollaborationService) ListScenarios(ctx context.Context, workspaceID uuid.UUID) ([]*models.Scenario, error) {
	return s.store.ListScenarios(ctx, workspaceID)
}

func (s *CollaborationService) UpdateScenario(ctx context.Context, id uuid.UUID, patch models.ScenarioPatch) (*models.Scenario, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpdateScenario(ctx, id, patch)
}

func (s *CollaborationService) DeleteScenario(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteScenario(ctx, id)
}

// CreateRun queues a run on an external engine.
func (s *CollaborationService) CreateRun(ctx context.Context, in models.ScenarioRunInput) (*models.ScenarioRun, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	run, err := s.store.CreateRun(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Scenario run queued", "run_id", run.ID, "workspace_id", run.WorkspaceID, "engine", run.Engine)
	return run, nil
}

func (s *CollaborationService) GetRun(ctx context.Context, id uuid.UUID) (*models.ScenarioRun, error) {
	return s.store.GetRun(ctx, id)
}

func (s *CollaborationService) ListRuns(ctx context.Context, filter repo.RunFilter) ([]*models.ScenarioRun, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, &models.ValidationError{Field: "status", Message: fmt.Sprintf("unknown run status %q", *filter.Status)}
	}
	filter.Page = filter.Page.Normalize()
	return s.store.ListRuns(ctx, filter)
}

// TransitionRun validates the move against the run's current status and
// applies it only if no one else moved the run first.
func (s *CollaborationService) TransitionRun(ctx context.Context, id uuid.UUID, t models.RunTransition) (*models.ScenarioRun, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if !run.Status.CanTransitionTo(t.Status) {
		return nil, &models.ValidationError{Field: "status", Message: fmt.Sprintf("cannot move run from %s to %s", run.Status, t.Status)}
	}
	out, err := s.store.TransitionRun(ctx, id, run.Status, t)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Scenario run transitioned", "run_id", id, "from", run.Status, "to", t.Status)
	return out, nil
}

func (s *CollaborationService) AppendRunLog(ctx context.Context, runID uuid.UUID, in models.RunLogInput) (*models.ScenarioRunLog, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.AppendRunLog(ctx, runID, in)
}

func (s *CollaborationService) ListRunLogs(ctx context.Context, runID uuid.UUID, afterID int64, limit int) ([]*models.ScenarioRunLog, error) {
	if afterID < 0 {
		afterID = 0
	}
	return s.store.ListRunLogs(ctx, runID, afterID, limit)
}

func (s *CollaborationService) AddScenarioMetric(ctx context.Context, scenarioID uuid.UUID, in models.MetricInput) (*models.Metric, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.AddScenarioMetric(ctx, scenarioID, in)
}

func (s *CollaborationService) ListScenarioMetrics(ctx context.Context, scenarioID uuid.UUID) ([]*models.Metric, error) {
	return s.store.ListScenarioMetrics(ctx, scenarioID)
}

func (s *CollaborationService) CreateChangeset(ctx context.Context, workspaceID uuid.UUID, in models.ChangesetInput) (*models.OverlayChangeset, error) {
	return s.store.CreateChangeset(ctx, workspaceID, in)
}

func (s *CollaborationService) GetChangeset(ctx context.Context, id uuid.UUID) (*models.OverlayChangeset, error) {
	return s.store.GetChangeset(ctx, id)
}

func (s *CollaborationService) ListChangesets(ctx context.Context, workspaceID uuid.UUID) ([]*models.OverlayChangeset, error) {
	return s.store.ListChangesets(ctx, workspaceID)
}

func (s *CollaborationService) SetChangesetComment(ctx context.Context, id uuid.UUID, comment string) (*models.OverlayChangeset, error) {
	return s.store.SetChangesetComment(ctx, id, comment)
}

// SetChangesetStatus applies or rejects a draft changeset.
func (s *CollaborationService) SetChangesetStatus(ctx context.Context, id uuid.UUID, to models.ChangesetStatus) (*models.OverlayChangeset, error) {
	cs, err := s.store.GetChangeset(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cs.Status.CanTransitionTo(to) {
		return nil, &models.ValidationError{Field: "status", Message: fmt.Sprintf("cannot move changeset from %s to %s", cs.Status, to)}
	}
	return s.store.SetChangesetStatus(ctx, id, cs.Status, to)
}

func (s *CollaborationService) DeleteChangeset(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteChangeset(ctx, id)
}

func (s *CollaborationService) UpsertNodePatch(ctx context.Context, changesetID uuid.UUID, nodeID string, in models.PatchInput) (*models.OverlayNodePatch, error) {
	if nodeID == "" {
		return nil, &models.ValidationError{Field: "nodeId", Message: "is required"}
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpsertNodePatch(ctx, changesetID, nodeID, in)
}

func (s *CollaborationService) DeleteNodePatch(ctx context.Context, changesetID uuid.UUID, nodeID string) error {
	return s.store.DeleteNodePatch(ctx, changesetID, nodeID)
}

func (s *CollaborationService) UpsertEdgePatch(ctx context.Context, changesetID uuid.UUID, edgeID string, in models.PatchInput) (*models.OverlayEdgePatch, error) {
	if edgeID == "" {
		return nil, &models.ValidationError{Field: "edgeId", Message: "is required"}
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpsertEdgePatch(ctx, changesetID, edgeID, in)
}

func (s *CollaborationService) DeleteEdgePatch(ctx context.Context, changesetID uuid.UUID, edgeID string) error {
	return s.store.DeleteEdgePatch(ctx, changesetID, edgeID)
}

func (s *CollaborationService) CreateInsight(ctx context.Context, in models.InsightInput) (*models.Insight, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateInsight(ctx, in)
}

func (s *CollaborationService) GetInsight(ctx context.Context, id uuid.UUID) (*models.Insight, error) {
	return s.store.GetInsight(ctx, id)
}

func (s *CollaborationService) ListInsights(ctx context.Context, workspaceID *uuid.UUID, page repo.Page) ([]*models.Insight, error) {
	return s.store.ListInsights(ctx, workspaceID, page.Normalize())
}

func (s *CollaborationService) DeleteInsight(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteInsight(ctx, id)
}

func (s *CollaborationService) CreateNote(ctx context.Context, workspaceID uuid.UUID, in models.NoteInput) (*models.ScratchpadNote, error) {
	return s.store.CreateNote(ctx, workspaceID, in)
}

func (s *CollaborationService) GetNote(ctx context.Context, id uuid.UUID) (*models.ScratchpadNote, error) {
	return s.store.GetNote(ctx, id)
}

func (s *CollaborationService) ListNotes(ctx context.Context, workspaceID uuid.UUID) ([]*models.ScratchpadNote, error) {
	return s.store.ListNotes(ctx, workspaceID)
}

func (s *CollaborationService) UpdateNote(ctx context.Context, id uuid.UUID, patch models.NotePatch) (*models.ScratchpadNote, error) {
	if patch.Title == nil && patch.Content == nil {
		return s.store.GetNote(ctx, id)
	}
	return s.store.UpdateNote(ctx, id, patch)
}

func (s *CollaborationService) DeleteNote(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteNote(ctx, id)
}

func (s *CollaborationService) CreateAttachment(ctx context.Context, workspaceID uuid.UUID, in models.AttachmentInput) (*models.ScratchpadAttachment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateAttachment(ctx, workspaceID, in)
}

func (s *CollaborationService) GetAttachment(ctx context.Context, id uuid.UUID) (*models.ScratchpadAttachment, error) {
	return s.store.GetAttachment(ctx, id)
}

func (s *CollaborationService) ListAttachments(ctx context.Context, workspaceID uuid.UUID) ([]*models.ScratchpadAttachment, error) {
	return s.store.ListAttachments(ctx, workspaceID)
}

// UpdateProcessing moves an attachment through the indexing pipeline.
func (s *CollaborationService) UpdateProcessing(ctx context.Context, id uuid.UUID, u models.ProcessingUpdate) (*models.ScratchpadAttachment, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	a, err := s.store.GetAttachment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.ProcessingStatus.CanTransitionTo(u.Status) {
		return nil, &models.ValidationError{Field: "status", Message: fmt.Sprintf("cannot move attachment from %s to %s", a.ProcessingStatus, u.Status)}
	}
	return s.store.UpdateAttachmentProcessing(ctx, id, a.ProcessingStatus, u)
}

func (s *CollaborationService) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteAttachment(ctx, id)
}

func (s *CollaborationService) CreateAnalysis(ctx context.Context, workspaceID uuid.UUID, in models.AnalysisInput) (*models.WorkspaceAnalysis, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateAnalysis(ctx, workspaceID, in)
}

func (s *CollaborationService) GetAnalysis(ctx context.Context, id uuid.UUID) (*models.WorkspaceAnalysis, error) {
	return s.store.GetAnalysis(ctx, id)
}

func (s *CollaborationService) ListAnalyses(ctx context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceAnalysis, error) {
	return s.store.ListAnalyses(ctx, workspaceID)
}

func (s *CollaborationService) AddAnalysisMetric(ctx context.Context, analysisID uuid.UUID, in models.MetricInput) (*models.Metric, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.AddAnalysisMetric(ctx, analysisID, in)
}

func (s *CollaborationService) ListAnalysisMetrics(ctx context.Context, analysisID uuid.UUID) ([]*models.Metric, error) {
	return s.store.ListAnalysisMetrics(ctx, analysisID)
}

func (s *CollaborationService) UpsertAITeam(ctx context.Context, workspaceID uuid.UUID, in models.AITeamInput) (*models.AITeam, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpsertAITeam(ctx, workspaceID, in)
}

func (s *CollaborationService) GetAITeam(ctx context.Context, workspaceID uuid.UUID) (*models.AITeam, error) {
	return s.store.GetAITeam(ctx, workspaceID)
}

func (s *CollaborationService) DeleteAITeam(ctx context.Context, workspaceID uuid.UUID) error {
	return s.store.DeleteAITeam(ctx, workspaceID)
}

// AddAITeamMember adds a member to the workspace's team.
func (s *CollaborationService) AddAITeamMember(ctx context.Context, workspaceID uuid.UUID, in models.AITeamMemberInput) (*models.AITeamMember, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	team, err := s.store.GetAITeam(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return s.store.AddAITeamMember(ctx, team.ID, in)
}

func (s *CollaborationService) UpdateAITeamMember(ctx context.Context, memberID uuid.UUID, in models.AITeamMemberInput) (*models.AITeamMember, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpdateAITeamMember(ctx, memberID, in)
}

func (s *CollaborationService) RemoveAITeamMember(ctx context.Context, memberID uuid.UUID) error {
	return s.store.RemoveAITeamMember(ctx, memberID)
}
