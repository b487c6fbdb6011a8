package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// WorkspaceState is the workspace setup lifecycle.
type WorkspaceState string

const (
	WorkspaceDraft    WorkspaceState = "draft"
	WorkspaceSetup    WorkspaceState = "setup"
	WorkspaceWorking  WorkspaceState = "working"
	WorkspaceArchived WorkspaceState = "archived"
)

type SetupStage string

const (
	StageIntentDiscovery   SetupStage = "intent_discovery"
	StageDataScoping       SetupStage = "data_scoping"
	StageTeamConfiguration SetupStage = "team_configuration"
	StageExecution         SetupStage = "execution"
	StageReview            SetupStage = "review"
)

var workspaceTransitions = map[WorkspaceState][]WorkspaceState{
	WorkspaceDraft:   {WorkspaceSetup, WorkspaceWorking, WorkspaceArchived},
	WorkspaceSetup:   {WorkspaceWorking, WorkspaceDraft, WorkspaceArchived},
	WorkspaceWorking: {WorkspaceSetup, WorkspaceArchived},
}

// CanTransitionTo reports whether s may move to next. Archived is terminal.
func (s WorkspaceState) CanTransitionTo(next WorkspaceState) bool {
	if s == next {
		return true
	}
	for _, allowed := range workspaceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s WorkspaceState) Valid() bool {
	switch s {
	case WorkspaceDraft, WorkspaceSetup, WorkspaceWorking, WorkspaceArchived:
		return true
	}
	return false
}

func (s SetupStage) Valid() bool {
	switch s {
	case StageIntentDiscovery, StageDataScoping, StageTeamConfiguration, StageExecution, StageReview:
		return true
	}
	return false
}

type Workspace struct {
	ID          uuid.UUID      `json:"id"`
	TenantID    uuid.UUID      `json:"tenantId"`
	OwnerID     uuid.UUID      `json:"ownerId"`
	CompanyID   *uuid.UUID     `json:"companyId,omitempty"`
	OntologyID  *uuid.UUID     `json:"ontologyId,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Visibility  Visibility     `json:"visibility"`
	Intent      string         `json:"intent"`
	State       WorkspaceState `json:"state"`
	SetupStage  *SetupStage    `json:"setupStage,omitempty"`
	SetupRunID  *uuid.UUID     `json:"setupRunId,omitempty"`

	DataScope        json.RawMessage `json:"dataScope,omitempty"`
	ExecutionResults json.RawMessage `json:"executionResults,omitempty"`
	IntentPackage    json.RawMessage `json:"intentPackage,omitempty"`
	TeamConfig       json.RawMessage `json:"teamConfig,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type WorkspaceInput struct {
	OwnerID     uuid.UUID  `json:"ownerId"`
	CompanyID   *uuid.UUID `json:"companyId,omitempty"`
	OntologyID  *uuid.UUID `json:"ontologyId,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Visibility  Visibility `json:"visibility"`
	Intent      string     `json:"intent"`
}

func (w *WorkspaceInput) Validate() error {
	if err := requireText("name", w.Name); err != nil {
		return err
	}
	if w.OwnerID == uuid.Nil {
		return invalid("ownerId", "is required")
	}
	if w.Visibility == "" {
		w.Visibility = VisibilityPrivate
	}
	return requireOneOf("visibility", string(w.Visibility), string(VisibilityPrivate), string(VisibilityPublic))
}

// WorkspacePatch is a partial update. Only non-nil fields are written.
// ExpectedVersion, when set, turns the update into a compare-and-swap.
type WorkspacePatch struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Visibility  *Visibility `json:"visibility,omitempty"`
	Intent      *string     `json:"intent,omitempty"`
	CompanyID   *uuid.UUID  `json:"companyId,omitempty"`
	OntologyID  *uuid.UUID  `json:"ontologyId,omitempty"`
	SetupStage  *SetupStage `json:"setupStage,omitempty"`

	DataScope        json.RawMessage `json:"dataScope,omitempty"`
	ExecutionResults json.RawMessage `json:"executionResults,omitempty"`
	IntentPackage    json.RawMessage `json:"intentPackage,omitempty"`
	TeamConfig       json.RawMessage `json:"teamConfig,omitempty"`

	ExpectedVersion *int64 `json:"expectedVersion,omitempty"`
}

func (p *WorkspacePatch) Validate() error {
	if p.Name != nil {
		if err := requireText("name", *p.Name); err != nil {
			return err
		}
	}
	if p.Visibility != nil {
		if err := requireOneOf("visibility", string(*p.Visibility), string(VisibilityPrivate), string(VisibilityPublic)); err != nil {
			return err
		}
	}
	if p.SetupStage != nil && !p.SetupStage.Valid() {
		return invalid("setupStage", "unknown stage %q", *p.SetupStage)
	}
	for field, raw := range map[string]json.RawMessage{
		"dataScope":        p.DataScope,
		"executionResults": p.ExecutionResults,
		"intentPackage":    p.IntentPackage,
		"teamConfig":       p.TeamConfig,
	} {
		if err := requireJSON(field, raw); err != nil {
			return err
		}
	}
	return nil
}

// Empty reports whether the patch would change nothing.
func (p *WorkspacePatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Visibility == nil && p.Intent == nil &&
		p.CompanyID == nil && p.OntologyID == nil && p.SetupStage == nil &&
		len(p.DataScope) == 0 && len(p.ExecutionResults) == 0 && len(p.IntentPackage) == 0 && len(p.TeamConfig) == 0
}

// WorkspaceListFilter narrows ListWorkspaces.
type WorkspaceListFilter struct {
	OwnerID    *uuid.UUID
	CompanyID  *uuid.UUID
	State      *WorkspaceState
	Visibility *Visibility
	Limit      int
	Offset     int
}

const (
	MemberViewer = "viewer"
	MemberEditor = "editor"
	MemberOwner  = "owner"
)

type WorkspaceMember struct {
	TenantID    uuid.UUID `json:"tenantId"`
	WorkspaceID uuid.UUID `json:"workspaceId"`
	UserID      uuid.UUID `json:"userId"`
	Role        string    `json:"role"`
	AddedAt     time.Time `json:"addedAt"`
}

func ValidateMemberRole(role string) error {
	return requireOneOf("role", role, MemberViewer, MemberEditor, MemberOwner)
}

// WorkspaceItem pins a graph node and/or edge. The ids are opaque references
// into an external graph store. (workspace, node, edge) is unique so upserts
// are idempotent.
type WorkspaceItem struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenantId"`
	WorkspaceID uuid.UUID  `json:"workspaceId"`
	GraphNodeID string     `json:"graphNodeId"`
	GraphEdgeID string     `json:"graphEdgeId"`
	Labels      []string   `json:"labels"`
	PinnedBy    *uuid.UUID `json:"pinnedBy,omitempty"`
	PinnedAt    time.Time  `json:"pinnedAt"`
}

type WorkspaceItemInput struct {
	GraphNodeID string     `json:"graphNodeId"`
	GraphEdgeID string     `json:"graphEdgeId"`
	Labels      []string   `json:"labels"`
	PinnedBy    *uuid.UUID `json:"pinnedBy,omitempty"`
}

func (i *WorkspaceItemInput) Validate() error {
	if i.GraphNodeID == "" && i.GraphEdgeID == "" {
		return invalid("graphNodeId", "graphNodeId or graphEdgeId is required")
	}
	if i.Labels == nil {
		i.Labels = []string{}
	}
	return nil
}

// SetupRequest starts AI-assisted workspace setup.
type SetupRequest struct {
	Engine string `json:"engine"`
	Prompt string `json:"prompt"`
}

func (r *SetupRequest) Validate() error {
	if r.Engine == "" {
		r.Engine = DefaultEngine
	}
	return nil
}

// ErrStateTransition is returned for a disallowed workspace state change.
func ErrStateTransition(from, to WorkspaceState) error {
	return invalid("state", "cannot move workspace from %s to %s", from, to)
}
