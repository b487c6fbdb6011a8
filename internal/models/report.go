package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReportTemplate is identified by (ID, Version). Versions are append-only.
type ReportTemplate struct {
	ID          uuid.UUID         `json:"id"`
	Version     int               `json:"version"`
	TenantID    uuid.UUID         `json:"tenantId"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"createdAt"`
	Sections    []TemplateSection `json:"sections"`
}

type TemplateSection struct {
	ID                 uuid.UUID       `json:"id"`
	TenantID           uuid.UUID       `json:"tenantId"`
	TemplateID         uuid.UUID       `json:"templateId"`
	TemplateVersion    int             `json:"templateVersion"`
	Position           int             `json:"position"`
	Title              string          `json:"title"`
	SectionType        string          `json:"sectionType"`
	SemanticDefinition json.RawMessage `json:"semanticDefinition,omitempty"`
	Blocks             []TemplateBlock `json:"blocks"`
}

type TemplateBlock struct {
	ID                 uuid.UUID       `json:"id"`
	TenantID           uuid.UUID       `json:"tenantId"`
	SectionID          uuid.UUID       `json:"sectionId"`
	Position           int             `json:"position"`
	BlockType          BlockType       `json:"blockType"`
	LayoutHints        json.RawMessage `json:"layoutHints,omitempty"`
	SemanticDefinition json.RawMessage `json:"semanticDefinition,omitempty"`
}

// TemplateDefinition is the body of a new template or template version.
// It is also the YAML import format.
type TemplateDefinition struct {
	Name        string                      `json:"name"`
	Description string                      `json:"description"`
	Sections    []TemplateSectionDefinition `json:"sections"`
}

type TemplateSectionDefinition struct {
	Title              string                    `json:"title"`
	SectionType        string                    `json:"sectionType"`
	SemanticDefinition json.RawMessage           `json:"semanticDefinition,omitempty"`
	Blocks             []TemplateBlockDefinition `json:"blocks"`
}

type TemplateBlockDefinition struct {
	BlockType          BlockType       `json:"blockType"`
	LayoutHints        json.RawMessage `json:"layoutHints,omitempty"`
	SemanticDefinition json.RawMessage `json:"semanticDefinition,omitempty"`
}

func (d *TemplateDefinition) Validate() error {
	if err := requireText("name", d.Name); err != nil {
		return err
	}
	for i, s := range d.Sections {
		if err := requireText(fmt.Sprintf("sections[%d].title", i), s.Title); err != nil {
			return err
		}
		if err := requireJSON(fmt.Sprintf("sections[%d].semanticDefinition", i), s.SemanticDefinition); err != nil {
			return err
		}
		for j, b := range s.Blocks {
			field := fmt.Sprintf("sections[%d].blocks[%d]", i, j)
			if !b.BlockType.Valid() {
				return invalid(field+".blockType", "unknown block type %q", b.BlockType)
			}
			if err := requireJSON(field+".layoutHints", b.LayoutHints); err != nil {
				return err
			}
			if err := requireJSON(field+".semanticDefinition", b.SemanticDefinition); err != nil {
				return err
			}
		}
	}
	return nil
}

type ReportStatus string

const (
	ReportDraft      ReportStatus = "draft"
	ReportGenerating ReportStatus = "generating"
	ReportGenerated  ReportStatus = "generated"
	ReportPublished  ReportStatus = "published"
	ReportArchived   ReportStatus = "archived"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportDraft, ReportGenerating, ReportGenerated, ReportPublished, ReportArchived:
		return true
	}
	return false
}

// ReportParent names exactly one of a workspace analysis or a scenario.
type ReportParent struct {
	WorkspaceAnalysisID *uuid.UUID `json:"workspaceAnalysisId,omitempty"`
	ScenarioID          *uuid.UUID `json:"scenarioId,omitempty"`
}

func (p ReportParent) Validate() error {
	if (p.WorkspaceAnalysisID == nil) == (p.ScenarioID == nil) {
		return invalid("parent", "exactly one of workspaceAnalysisId or scenarioId is required")
	}
	return nil
}

type Report struct {
	ID              uuid.UUID  `json:"id"`
	TenantID        uuid.UUID  `json:"tenantId"`
	TemplateID      *uuid.UUID `json:"templateId,omitempty"`
	TemplateVersion *int       `json:"templateVersion,omitempty"`
	ReportParent
	Title           string          `json:"title"`
	Status          ReportStatus    `json:"status"`
	GenerationRunID *uuid.UUID      `json:"generationRunId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Sections        []ReportSection `json:"sections,omitempty"`
	Sources         []Source        `json:"sources,omitempty"`
}

type ReportInput struct {
	TemplateID      *uuid.UUID `json:"templateId,omitempty"`
	TemplateVersion *int       `json:"templateVersion,omitempty"`
	ReportParent
	Title string `json:"title"`
	// Mirror copies the template's sections and blocks into the report.
	Mirror bool `json:"mirror"`
}

func (r *ReportInput) Validate() error {
	if err := r.ReportParent.Validate(); err != nil {
		return err
	}
	if (r.TemplateID == nil) != (r.TemplateVersion == nil) {
		return invalid("templateVersion", "templateId and templateVersion go together")
	}
	if r.Mirror && r.TemplateID == nil {
		return invalid("mirror", "requires a template")
	}
	return requireText("title", r.Title)
}

type ReportPatch struct {
	Title  *string       `json:"title,omitempty"`
	Status *ReportStatus `json:"status,omitempty"`
}

func (p *ReportPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return invalid("status", "unknown report status %q", *p.Status)
	}
	if p.Title != nil {
		return requireText("title", *p.Title)
	}
	return nil
}

type ReportSection struct {
	ID                uuid.UUID     `json:"id"`
	TenantID          uuid.UUID     `json:"tenantId"`
	ReportID          uuid.UUID     `json:"reportId"`
	TemplateSectionID *uuid.UUID    `json:"templateSectionId,omitempty"`
	Position          int           `json:"position"`
	Title             string        `json:"title"`
	SectionType       string        `json:"sectionType"`
	Blocks            []ReportBlock `json:"blocks"`
}

type ReportSectionInput struct {
	TemplateSectionID *uuid.UUID `json:"templateSectionId,omitempty"`
	Position          int        `json:"position"`
	Title             string     `json:"title"`
	SectionType       string     `json:"sectionType"`
}

func (s *ReportSectionInput) Validate() error {
	return requireText("title", s.Title)
}

type ReportBlock struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenantId"`
	SectionID       uuid.UUID       `json:"sectionId"`
	TemplateBlockID *uuid.UUID      `json:"templateBlockId,omitempty"`
	Position        int             `json:"position"`
	BlockType       BlockType       `json:"blockType"`
	LayoutHints     json.RawMessage `json:"layoutHints,omitempty"`
	Content         BlockContent    `json:"-"`
}

// MarshalJSON renders Content as a typed envelope.
func (b ReportBlock) MarshalJSON() ([]byte, error) {
	type alias ReportBlock
	var content json.RawMessage
	if b.Content != nil {
		raw, err := json.Marshal(b.Content)
		if err != nil {
			return nil, err
		}
		content = raw
	}
	return json.Marshal(struct {
		alias
		Content json.RawMessage `json:"content,omitempty"`
	}{alias(b), content})
}

type ReportBlockInput struct {
	TemplateBlockID *uuid.UUID      `json:"templateBlockId,omitempty"`
	Position        int             `json:"position"`
	BlockType       BlockType       `json:"blockType"`
	LayoutHints     json.RawMessage `json:"layoutHints,omitempty"`
}

func (b *ReportBlockInput) Validate() error {
	if !b.BlockType.Valid() {
		return invalid("blockType", "unknown block type %q", b.BlockType)
	}
	return requireJSON("layoutHints", b.LayoutHints)
}

// Source records provenance for a report.
type Source struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenantId"`
	ReportID    uuid.UUID       `json:"reportId"`
	URI         string          `json:"uri"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type SourceInput struct {
	URI         string          `json:"uri"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

func (s *SourceInput) Validate() error {
	if err := requireText("uri", s.URI); err != nil {
		return err
	}
	return requireJSON("metadata", s.Metadata)
}
