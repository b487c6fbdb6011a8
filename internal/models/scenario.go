package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultEngine is the workflow engine used when a caller does not name one.
const DefaultEngine = "ai:theo"

type Scenario struct {
	ID                 uuid.UUID  `json:"id"`
	TenantID           uuid.UUID  `json:"tenantId"`
	WorkspaceID        uuid.UUID  `json:"workspaceId"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	OverlayChangesetID *uuid.UUID `json:"overlayChangesetId,omitempty"`
	CreatedBy          *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type ScenarioInput struct {
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	OverlayChangesetID *uuid.UUID `json:"overlayChangesetId,omitempty"`
	CreatedBy          *uuid.UUID `json:"createdBy,omitempty"`
}

func (s *ScenarioInput) Validate() error {
	return requireText("name", s.Name)
}

type ScenarioPatch struct {
	Name               *string    `json:"name,omitempty"`
	Description        *string    `json:"description,omitempty"`
	OverlayChangesetID *uuid.UUID `json:"overlayChangesetId,omitempty"`
}

func (p *ScenarioPatch) Validate() error {
	if p.Name != nil {
		return requireText("name", *p.Name)
	}
	return nil
}

type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

func (s RunStatus) Terminal() bool {
	return s == RunSucceeded || s == RunFailed || s == RunCancelled
}

func (s RunStatus) Valid() bool {
	switch s {
	case RunQueued, RunRunning, RunSucceeded, RunFailed, RunCancelled:
		return true
	}
	return false
}

// CanTransitionTo: queued -> running -> terminal, and queued -> cancelled.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	switch s {
	case RunQueued:
		return next == RunRunning || next == RunCancelled || next == RunFailed
	case RunRunning:
		return next.Terminal()
	}
	return false
}

// ScenarioRun tracks one job on an external engine. ScenarioID is optional;
// WorkspaceID is always set.
type ScenarioRun struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     uuid.UUID       `json:"tenantId"`
	WorkspaceID  uuid.UUID       `json:"workspaceId"`
	ScenarioID   *uuid.UUID      `json:"scenarioId,omitempty"`
	Engine       string          `json:"engine"`
	Title        *string         `json:"title,omitempty"`
	Prompt       *string         `json:"prompt,omitempty"`
	Inputs       json.RawMessage `json:"inputs,omitempty"`
	Outputs      json.RawMessage `json:"outputs,omitempty"`
	Status       RunStatus       `json:"status"`
	ErrorMessage *string         `json:"errorMessage,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	StartedAt    *time.Time      `json:"startedAt,omitempty"`
	FinishedAt   *time.Time      `json:"finishedAt,omitempty"`
}

type ScenarioRunInput struct {
	WorkspaceID uuid.UUID       `json:"workspaceId"`
	ScenarioID  *uuid.UUID      `json:"scenarioId,omitempty"`
	Engine      string          `json:"engine"`
	Title       *string         `json:"title,omitempty"`
	Prompt      *string         `json:"prompt,omitempty"`
	Inputs      json.RawMessage `json:"inputs,omitempty"`
}

func (r *ScenarioRunInput) Validate() error {
	if r.WorkspaceID == uuid.Nil {
		return invalid("workspaceId", "is required")
	}
	if r.Engine == "" {
		r.Engine = DefaultEngine
	}
	return requireJSON("inputs", r.Inputs)
}

// RunTransition moves a run to a new status.
type RunTransition struct {
	Status       RunStatus       `json:"status"`
	Outputs      json.RawMessage `json:"outputs,omitempty"`
	ErrorMessage *string         `json:"errorMessage,omitempty"`
}

func (t *RunTransition) Validate() error {
	if !t.Status.Valid() {
		return invalid("status", "unknown run status %q", t.Status)
	}
	if t.Status == RunFailed && (t.ErrorMessage == nil || *t.ErrorMessage == "") {
		return invalid("errorMessage", "is required when a run fails")
	}
	return requireJSON("outputs", t.Outputs)
}

// ScenarioRunLog is one event appended by an engine. IDs increase in append order.
type ScenarioRunLog struct {
	ID        int64           `json:"id"`
	TenantID  uuid.UUID       `json:"tenantId"`
	RunID     uuid.UUID       `json:"runId"`
	EventType string          `json:"eventType"`
	Event     json.RawMessage `json:"event"`
	CreatedAt time.Time       `json:"createdAt"`
}

type RunLogInput struct {
	EventType string          `json:"eventType"`
	Event     json.RawMessage `json:"event"`
}

func (l *RunLogInput) Validate() error {
	if err := requireText("eventType", l.EventType); err != nil {
		return err
	}
	if len(l.Event) == 0 {
		l.Event = json.RawMessage(`{}`)
	}
	return requireJSON("event", l.Event)
}

type ChangesetStatus string

const (
	ChangesetDraft    ChangesetStatus = "draft"
	ChangesetApplied  ChangesetStatus = "applied"
	ChangesetRejected ChangesetStatus = "rejected"
)

func (s ChangesetStatus) CanTransitionTo(next ChangesetStatus) bool {
	return s == ChangesetDraft && (next == ChangesetApplied || next == ChangesetRejected)
}

// OverlayChangeset groups proposed edits to the external graph.
type OverlayChangeset struct {
	ID          uuid.UUID          `json:"id"`
	TenantID    uuid.UUID          `json:"tenantId"`
	WorkspaceID uuid.UUID          `json:"workspaceId"`
	Status      ChangesetStatus    `json:"status"`
	Comment     string             `json:"comment"`
	CreatedBy   *uuid.UUID         `json:"createdBy,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	NodePatches []OverlayNodePatch `json:"nodePatches,omitempty"`
	EdgePatches []OverlayEdgePatch `json:"edgePatches,omitempty"`
}

type ChangesetInput struct {
	Comment   string     `json:"comment"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty"`
}

const (
	PatchUpsert = "upsert"
	PatchDelete = "delete"
)

type OverlayNodePatch struct {
	TenantID    uuid.UUID       `json:"tenantId"`
	ChangesetID uuid.UUID       `json:"changesetId"`
	NodeID      string          `json:"nodeId"`
	Op          string          `json:"op"`
	Patch       json.RawMessage `json:"patch"`
}

type OverlayEdgePatch struct {
	TenantID    uuid.UUID       `json:"tenantId"`
	ChangesetID uuid.UUID       `json:"changesetId"`
	EdgeID      string          `json:"edgeId"`
	Op          string          `json:"op"`
	Patch       json.RawMessage `json:"patch"`
}

// PatchInput is shared by node and edge patches.
type PatchInput struct {
	Op    string          `json:"op"`
	Patch json.RawMessage `json:"patch"`
}

func (p *PatchInput) Validate() error {
	if p.Op == "" {
		p.Op = PatchUpsert
	}
	if err := requireOneOf("op", p.Op, PatchUpsert, PatchDelete); err != nil {
		return err
	}
	if len(p.Patch) == 0 {
		p.Patch = json.RawMessage(`{}`)
	}
	return requireJSONObject("patch", p.Patch)
}
