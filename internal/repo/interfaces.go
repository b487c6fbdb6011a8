package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/platformbuilds/theo-core/internal/models"
)

// Page bounds list queries.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 500
)

// Normalize clamps Limit to (0, MaxPageLimit] and Offset to >= 0.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// TenantStore persists tenants. Reads only ever see the bound tenant.
type TenantStore interface {
	CreateTenant(ctx context.Context, id uuid.UUID, in models.TenantInput) (*models.Tenant, error)
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	UpdateTenant(ctx context.Context, id uuid.UUID, in models.TenantInput) (*models.Tenant, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, in models.UserInput) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, page Page) ([]*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error

	CreateRole(ctx context.Context, name, description string) (*models.Role, error)
	ListRoles(ctx context.Context) ([]*models.Role, error)
	DeleteRole(ctx context.Context, name string) error
	AssignRole(ctx context.Context, userID uuid.UUID, roleName string) error
	RevokeRole(ctx context.Context, userID uuid.UUID, roleName string) error
	ListUserRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type CompanyStore interface {
	CreateCompany(ctx context.Context, in models.CompanyInput) (*models.Company, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	ListCompanies(ctx context.Context, page Page) ([]*models.Company, error)
	UpdateCompany(ctx context.Context, id uuid.UUID, patch models.CompanyPatch) (*models.Company, error)
	DeleteCompany(ctx context.Context, id uuid.UUID) error
}

type WorkspaceStore interface {
	CreateWorkspace(ctx context.Context, in models.WorkspaceInput) (*models.Workspace, error)
	GetWorkspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	ListWorkspaces(ctx context.Context, filter models.WorkspaceListFilter) ([]*models.Workspace, error)
	// UpdateWorkspace applies a partial patch. With ExpectedVersion set, a
	// version mismatch returns ErrConflict.
	UpdateWorkspace(ctx context.Context, id uuid.UUID, patch models.WorkspacePatch) (*models.Workspace, error)
	DeleteWorkspace(ctx context.Context, id uuid.UUID) error

	// SetWorkspaceState moves from -> to; ErrConflict if the row is no longer in from.
	SetWorkspaceState(ctx context.Context, id uuid.UUID, from, to models.WorkspaceState) (*models.Workspace, error)
	// BeginWorkspaceSetup creates the setup run and links it in one transaction.
	BeginWorkspaceSetup(ctx context.Context, id uuid.UUID, run models.ScenarioRunInput) (*models.Workspace, *models.ScenarioRun, error)
	// ClearSetupRun unlinks the setup run. The run row itself is untouched.
	ClearSetupRun(ctx context.Context, id uuid.UUID) (*models.Workspace, error)

	UpsertMember(ctx context.Context, workspaceID, userID uuid.UUID, role string) (*models.WorkspaceMember, error)
	ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceMember, error)
	RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error

	UpsertItem(ctx context.Context, workspaceID uuid.UUID, in models.WorkspaceItemInput) (*models.WorkspaceItem, error)
	ListItems(ctx context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceItem, error)
	DeleteItem(ctx context.Context, workspaceID, itemID uuid.UUID) error
}

type OntologyStore interface {
	CreateOntology(ctx context.Context, in models.OntologyInput) (*models.Ontology, error)
	GetOntology(ctx context.Context, id uuid.UUID) (*models.Ontology, error)
	ListOntologies(ctx context.Context, page Page) ([]*models.Ontology, error)
	UpdateOntology(ctx context.Context, id uuid.UUID, patch models.OntologyPatch) (*models.Ontology, error)
	SetOntologyStatus(ctx context.Context, id uuid.UUID, status models.OntologyStatus) (*models.Ontology, error)
	// SetGraphConnection stores conn, or clears the binding when conn is nil.
	SetGraphConnection(ctx context.Context, id uuid.UUID, conn *models.GraphConnection) (*models.Ontology, error)
	DeleteOntology(ctx context.Context, id uuid.UUID) error

	CreateEntity(ctx context.Context, in models.SemanticEntityInput) (*models.SemanticEntity, error)
	GetEntity(ctx context.Context, id uuid.UUID) (*models.SemanticEntity, error)
	// ListEntities lists entities of one ontology, or tenant-wide entities when ontologyID is nil.
	ListEntities(ctx context.Context, ontologyID *uuid.UUID) ([]*models.SemanticEntity, error)
	UpdateEntity(ctx context.Context, id uuid.UUID, patch models.SemanticEntityPatch) (*models.SemanticEntity, error)
	DeleteEntity(ctx context.Context, id uuid.UUID) error
	// BumpEntityVersion increments the version and copies the current fields forward.
	BumpEntityVersion(ctx context.Context, id uuid.UUID) (*models.SemanticEntity, error)

	CreateField(ctx context.Context, entityID uuid.UUID, in models.SemanticFieldInput) (*models.SemanticField, error)
	GetField(ctx context.Context, id uuid.UUID) (*models.SemanticField, error)
	// ListFields returns fields of the given version; version 0 means all versions.
	ListFields(ctx context.Context, entityID uuid.UUID, version int) ([]*models.SemanticField, error)
	UpdateField(ctx context.Context, id uuid.UUID, patch models.SemanticFieldPatch) (*models.SemanticField, error)
	DeleteField(ctx context.Context, id uuid.UUID) error
}

// RunFilter selects runs by workspace and/or scenario.
type RunFilter struct {
	WorkspaceID *uuid.UUID
	ScenarioID  *uuid.UUID
	Status      *models.RunStatus
	Page        Page
}

type ScenarioStore interface {
	CreateScenario(ctx context.Context, workspaceID uuid.UUID, in models.ScenarioInput) (*models.Scenario, error)
	GetScenario(ctx context.Context, id uuid.UUID) (*models.Scenario, error)
	ListScenarios(ctx context.Context, workspaceID uuid.UUID) ([]*models.Scenario, error)
	UpdateScenario(ctx context.Context, id uuid.UUID, patch models.ScenarioPatch) (*models.Scenario, error)
	DeleteScenario(ctx context.Context, id uuid.UUID) error

	CreateRun(ctx context.Context, in models.ScenarioRunInput) (*models.ScenarioRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*models.ScenarioRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*models.ScenarioRun, error)
	// TransitionRun applies t if the run is still in from; ErrConflict otherwise.
	TransitionRun(ctx context.Context, id uuid.UUID, from models.RunStatus, t models.RunTransition) (*models.ScenarioRun, error)

	AppendRunLog(ctx context.Context, runID uuid.UUID, in models.RunLogInput) (*models.ScenarioRunLog, error)
	// ListRunLogs returns entries with id > afterID in ascending id order.
	ListRunLogs(ctx context.Context, runID uuid.UUID, afterID int64, limit int) ([]*models.ScenarioRunLog, error)

	AddScenarioMetric(ctx context.Context, scenarioID uuid.UUID, in models.MetricInput) (*models.Metric, error)
	ListScenarioMetrics(ctx context.Context, scenarioID uuid.UUID) ([]*models.Metric, error)
}

type ChangesetStore interface {
	CreateChangeset(ctx context.Context, workspaceID uuid.UUID, in models.ChangesetInput) (*models.OverlayChangeset, error)
	// GetChangeset includes node and edge patches.
	GetChangeset(ctx context.Context, id uuid.UUID) (*models.OverlayChangeset, error)
	ListChangesets(ctx context.Context, workspaceID uuid.UUID) ([]*models.OverlayChangeset, error)
	SetChangesetComment(ctx context.Context, id uuid.UUID, comment string) (*models.OverlayChangeset, error)
	SetChangesetStatus(ctx context.Context, id uuid.UUID, from, to models.ChangesetStatus) (*models.OverlayChangeset, error)
	DeleteChangeset(ctx context.Context, id uuid.UUID) error

	UpsertNodePatch(ctx context.Context, changesetID uuid.UUID, nodeID string, in models.PatchInput) (*models.OverlayNodePatch, error)
	DeleteNodePatch(ctx context.Context, changesetID uuid.UUID, nodeID string) error
	UpsertEdgePatch(ctx context.Context, changesetID uuid.UUID, edgeID string, in models.PatchInput) (*models.OverlayEdgePatch, error)
	DeleteEdgePatch(ctx context.Context, changesetID uuid.UUID, edgeID string) error
}

// ContentStore covers insights, scratchpad, analyses and AI teams.
type ContentStore interface {
	CreateInsight(ctx context.Context, in models.InsightInput) (*models.Insight, error)
	GetInsight(ctx context.Context, id uuid.UUID) (*models.Insight, error)
	ListInsights(ctx context.Context, workspaceID *uuid.UUID, page Page) ([]*models.Insight, error)
	DeleteInsight(ctx context.Context, id uuid.UUID) error

	CreateNote(ctx context.Context, workspaceID uuid.UUID, in models.NoteInput) (*models.ScratchpadNote, error)
	GetNote(ctx context.Context, id uuid.UUID) (*models.ScratchpadNote, error)
	ListNotes(ctx context.Context, workspaceID uuid.UUID) ([]*models.ScratchpadNote, error)
	UpdateNote(ctx context.Context, id uuid.UUID, patch models.NotePatch) (*models.ScratchpadNote, error)
	DeleteNote(ctx context.Context, id uuid.UUID) error

	CreateAttachment(ctx context.Context, workspaceID uuid.UUID, in models.AttachmentInput) (*models.ScratchpadAttachment, error)
	GetAttachment(ctx context.Context, id uuid.UUID) (*models.ScratchpadAttachment, error)
	ListAttachments(ctx context.Context, workspaceID uuid.UUID) ([]*models.ScratchpadAttachment, error)
	// UpdateAttachmentProcessing applies u if the attachment is still in from.
	UpdateAttachmentProcessing(ctx context.Context, id uuid.UUID, from models.ProcessingStatus, u models.ProcessingUpdate) (*models.ScratchpadAttachment, error)
	DeleteAttachment(ctx context.Context, id uuid.UUID) error

	// CreateAnalysis appends the next version for the workspace.
	CreateAnalysis(ctx context.Context, workspaceID uuid.UUID, in models.AnalysisInput) (*models.WorkspaceAnalysis, error)
	GetAnalysis(ctx context.Context, id uuid.UUID) (*models.WorkspaceAnalysis, error)
	ListAnalyses(ctx context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceAnalysis, error)
	AddAnalysisMetric(ctx context.Context, analysisID uuid.UUID, in models.MetricInput) (*models.Metric, error)
	ListAnalysisMetrics(ctx context.Context, analysisID uuid.UUID) ([]*models.Metric, error)

	UpsertAITeam(ctx context.Context, workspaceID uuid.UUID, in models.AITeamInput) (*models.AITeam, error)
	// GetAITeam returns the workspace's team with members ordered by position.
	GetAITeam(ctx context.Context, workspaceID uuid.UUID) (*models.AITeam, error)
	DeleteAITeam(ctx context.Context, workspaceID uuid.UUID) error
	AddAITeamMember(ctx context.Context, teamID uuid.UUID, in models.AITeamMemberInput) (*models.AITeamMember, error)
	UpdateAITeamMember(ctx context.Context, memberID uuid.UUID, in models.AITeamMemberInput) (*models.AITeamMember, error)
	RemoveAITeamMember(ctx context.Context, memberID uuid.UUID) error
}

// ReportFilter selects reports by parent.
type ReportFilter struct {
	WorkspaceAnalysisID *uuid.UUID
	ScenarioID          *uuid.UUID
	Page                Page
}

type ReportStore interface {
	CreateTemplate(ctx context.Context, def models.TemplateDefinition) (*models.ReportTemplate, error)
	// CreateTemplateVersion appends version max+1 of an existing template.
	CreateTemplateVersion(ctx context.Context, templateID uuid.UUID, def models.TemplateDefinition) (*models.ReportTemplate, error)
	// GetTemplate loads one version with sections and blocks; version 0 is the latest.
	GetTemplate(ctx context.Context, templateID uuid.UUID, version int) (*models.ReportTemplate, error)
	ListTemplates(ctx context.Context) ([]*models.ReportTemplate, error)
	ListTemplateVersions(ctx context.Context, templateID uuid.UUID) ([]*models.ReportTemplate, error)

	CreateReport(ctx context.Context, in models.ReportInput) (*models.Report, error)
	// GetReport assembles sections, blocks with their payloads, and sources.
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]*models.Report, error)
	UpdateReport(ctx context.Context, id uuid.UUID, patch models.ReportPatch) (*models.Report, error)
	SetReportGenerationRun(ctx context.Context, id uuid.UUID, runID *uuid.UUID) (*models.Report, error)
	DeleteReport(ctx context.Context, id uuid.UUID) error

	AddReportSection(ctx context.Context, reportID uuid.UUID, in models.ReportSectionInput) (*models.ReportSection, error)
	DeleteReportSection(ctx context.Context, id uuid.UUID) error
	AddReportBlock(ctx context.Context, sectionID uuid.UUID, in models.ReportBlockInput) (*models.ReportBlock, error)
	DeleteReportBlock(ctx context.Context, id uuid.UUID) error
	// SetBlockContent writes the payload into the variant table for the
	// block's type. A payload of another type is ErrInvalid.
	SetBlockContent(ctx context.Context, blockID uuid.UUID, content models.BlockContent) (*models.ReportBlock, error)

	AddSource(ctx context.Context, reportID uuid.UUID, in models.SourceInput) (*models.Source, error)
	ListSources(ctx context.Context, reportID uuid.UUID) ([]*models.Source, error)
	DeleteSource(ctx context.Context, id uuid.UUID) error
}

type AgentStore interface {
	CreateIntent(ctx context.Context, in models.IntentInput) (*models.Intent, error)
	GetIntent(ctx context.Context, id uuid.UUID) (*models.Intent, error)
	ListIntents(ctx context.Context, page Page) ([]*models.Intent, error)
	UpdateIntent(ctx context.Context, id uuid.UUID, in models.IntentInput) (*models.Intent, error)
	DeleteIntent(ctx context.Context, id uuid.UUID) error

	CreateAgentRole(ctx context.Context, in models.AgentRoleInput) (*models.AgentRole, error)
	// GetAgentRole includes the intent allow-list.
	GetAgentRole(ctx context.Context, id uuid.UUID) (*models.AgentRole, error)
	ListAgentRoles(ctx context.Context) ([]*models.AgentRole, error)
	UpdateAgentRole(ctx context.Context, id uuid.UUID, in models.AgentRoleInput) (*models.AgentRole, error)
	DeleteAgentRole(ctx context.Context, id uuid.UUID) error

	// SetAgentRoleIntents replaces the allow-list with exactly intentIDs.
	SetAgentRoleIntents(ctx context.Context, roleID uuid.UUID, intentIDs []uuid.UUID) error
	ListAgentRoleIntents(ctx context.Context, roleID uuid.UUID) ([]*models.Intent, error)

	CreateAccessKey(ctx context.Context, key models.AgentRoleAccessKey) (*models.AgentRoleAccessKey, error)
	ListAccessKeys(ctx context.Context, roleID uuid.UUID) ([]*models.AgentRoleAccessKey, error)
	DeleteAccessKey(ctx context.Context, id uuid.UUID) error
	FindAccessKeyByHash(ctx context.Context, hash string) (*models.AgentRoleAccessKey, error)
}

// Store is the full persistence surface.
type Store interface {
	TenantStore
	UserStore
	CompanyStore
	WorkspaceStore
	OntologyStore
	ScenarioStore
	ChangesetStore
	ContentStore
	ReportStore
	AgentStore

	Ping(ctx context.Context) error
	Close()
}
