package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

var insightSeverities = []string{"info", "low", "medium", "high", "critical"}

type Insight struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenantId"`
	WorkspaceID     *uuid.UUID      `json:"workspaceId,omitempty"`
	Severity        string          `json:"severity"`
	Title           string          `json:"title"`
	Body            string          `json:"body"`
	RelatedGraphIDs []string        `json:"relatedGraphIds"`
	EvidenceRefs    json.RawMessage `json:"evidenceRefs,omitempty"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

type InsightInput struct {
	WorkspaceID     *uuid.UUID      `json:"workspaceId,omitempty"`
	Severity        string          `json:"severity"`
	Title           string          `json:"title"`
	Body            string          `json:"body"`
	RelatedGraphIDs []string        `json:"relatedGraphIds"`
	EvidenceRefs    json.RawMessage `json:"evidenceRefs,omitempty"`
}

func (i *InsightInput) Validate() error {
	if err := requireText("title", i.Title); err != nil {
		return err
	}
	if i.Severity == "" {
		i.Severity = "info"
	}
	if err := requireOneOf("severity", i.Severity, insightSeverities...); err != nil {
		return err
	}
	if i.RelatedGraphIDs == nil {
		i.RelatedGraphIDs = []string{}
	}
	return requireJSON("evidenceRefs", i.EvidenceRefs)
}

type ScratchpadNote struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenantId"`
	WorkspaceID uuid.UUID  `json:"workspaceId"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	CreatedBy   *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastEdit    time.Time  `json:"lastEdit"`
}

type NoteInput struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty"`
}

type NotePatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

type ProcessingStatus string

const (
	ProcessingUnprocessed ProcessingStatus = "unprocessed"
	ProcessingQueued      ProcessingStatus = "queued"
	ProcessingProcessing  ProcessingStatus = "processing"
	ProcessingCompleted   ProcessingStatus = "completed"
	ProcessingFailed      ProcessingStatus = "failed"
)

var processingTransitions = map[ProcessingStatus][]ProcessingStatus{
	ProcessingUnprocessed: {ProcessingQueued},
	ProcessingQueued:      {ProcessingProcessing, ProcessingFailed},
	ProcessingProcessing:  {ProcessingCompleted, ProcessingFailed},
	ProcessingFailed:      {ProcessingQueued},
	ProcessingCompleted:   {ProcessingQueued},
}

// CanTransitionTo follows the indexing pipeline. Failed and completed
// attachments may be queued again for reprocessing.
func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	for _, allowed := range processingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ScratchpadAttachment struct {
	ID               uuid.UUID        `json:"id"`
	TenantID         uuid.UUID        `json:"tenantId"`
	WorkspaceID      uuid.UUID        `json:"workspaceId"`
	URI              string           `json:"uri"`
	Filename         string           `json:"filename"`
	ContentType      string           `json:"contentType"`
	SizeBytes        int64            `json:"sizeBytes"`
	ProcessingStatus ProcessingStatus `json:"processingStatus"`
	ProcessingError  *string          `json:"processingError,omitempty"`
	UploadedBy       *uuid.UUID       `json:"uploadedBy,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

type AttachmentInput struct {
	URI         string     `json:"uri"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	UploadedBy  *uuid.UUID `json:"uploadedBy,omitempty"`
}

func (a *AttachmentInput) Validate() error {
	if err := requireText("uri", a.URI); err != nil {
		return err
	}
	if err := requireText("filename", a.Filename); err != nil {
		return err
	}
	if a.SizeBytes < 0 {
		return invalid("sizeBytes", "must not be negative")
	}
	return nil
}

type ProcessingUpdate struct {
	Status ProcessingStatus `json:"status"`
	Error  *string          `json:"error,omitempty"`
}

func (u *ProcessingUpdate) Validate() error {
	if _, ok := processingTransitions[u.Status]; !ok {
		return invalid("status", "unknown processing status %q", u.Status)
	}
	if u.Status == ProcessingFailed && (u.Error == nil || *u.Error == "") {
		return invalid("error", "is required when processing fails")
	}
	return nil
}

// WorkspaceAnalysis versions are append-only per workspace.
type WorkspaceAnalysis struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenantId"`
	WorkspaceID uuid.UUID  `json:"workspaceId"`
	Version     int        `json:"version"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	RunID       *uuid.UUID `json:"runId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type AnalysisInput struct {
	Title   string     `json:"title"`
	Content string     `json:"content"`
	RunID   *uuid.UUID `json:"runId,omitempty"`
}

func (a *AnalysisInput) Validate() error {
	return requireText("title", a.Title)
}

// Metric is a point metric attached to an analysis or a scenario.
type Metric struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenantId"`
	ParentID  uuid.UUID       `json:"parentId"`
	Name      string          `json:"name"`
	Value     float64         `json:"value"`
	Unit      string          `json:"unit"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type MetricInput struct {
	Name     string          `json:"name"`
	Value    float64         `json:"value"`
	Unit     string          `json:"unit"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

func (m *MetricInput) Validate() error {
	if err := requireText("name", m.Name); err != nil {
		return err
	}
	return requireJSON("metadata", m.Metadata)
}

// AITeam is the single team of configured agents for a workspace.
type AITeam struct {
	ID          uuid.UUID      `json:"id"`
	TenantID    uuid.UUID      `json:"tenantId"`
	WorkspaceID uuid.UUID      `json:"workspaceId"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Members     []AITeamMember `json:"members"`
}

type AITeamInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (t *AITeamInput) Validate() error {
	return requireText("name", t.Name)
}

type AITeamMember struct {
	ID                 uuid.UUID `json:"id"`
	TenantID           uuid.UUID `json:"tenantId"`
	TeamID             uuid.UUID `json:"teamId"`
	Name               string    `json:"name"`
	Role               string    `json:"role"`
	Model              string    `json:"model"`
	Temperature        float64   `json:"temperature"`
	MaxTokens          int       `json:"maxTokens"`
	Tools              []string  `json:"tools"`
	Expertise          []string  `json:"expertise"`
	CommunicationStyle string    `json:"communicationStyle"`
	SystemPrompt       string    `json:"systemPrompt"`
	Position           int       `json:"position"`
	CreatedAt          time.Time `json:"createdAt"`
}

type AITeamMemberInput struct {
	Name               string   `json:"name"`
	Role               string   `json:"role"`
	Model              string   `json:"model"`
	Temperature        float64  `json:"temperature"`
	MaxTokens          int      `json:"maxTokens"`
	Tools              []string `json:"tools"`
	Expertise          []string `json:"expertise"`
	CommunicationStyle string   `json:"communicationStyle"`
	SystemPrompt       string   `json:"systemPrompt"`
	Position           int      `json:"position"`
}

func (m *AITeamMemberInput) Validate() error {
	if err := requireText("name", m.Name); err != nil {
		return err
	}
	if err := requireText("model", m.Model); err != nil {
		return err
	}
	if m.Temperature < 0 || m.Temperature > 2 {
		return invalid("temperature", "must be between 0 and 2")
	}
	if m.MaxTokens < 0 {
		return invalid("maxTokens", "must not be negative")
	}
	if m.Tools == nil {
		m.Tools = []string{}
	}
	if m.Expertise == nil {
		m.Expertise = []string{}
	}
	return nil
}
