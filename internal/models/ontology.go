package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OntologyStatus string

const (
	OntologyDraft     OntologyStatus = "draft"
	OntologyFinalized OntologyStatus = "finalized"
)

// CanTransitionTo allows draft -> finalized only. Finalized is terminal.
func (s OntologyStatus) CanTransitionTo(next OntologyStatus) bool {
	if s == next {
		return true
	}
	return s == OntologyDraft && next == OntologyFinalized
}

type Ontology struct {
	ID             uuid.UUID      `json:"id"`
	TenantID       uuid.UUID      `json:"tenantId"`
	CompanyID      *uuid.UUID     `json:"companyId,omitempty"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Semver         string         `json:"semver"`
	Status         OntologyStatus `json:"status"`
	GeneratedByRun *uuid.UUID     `json:"generatedByRunId,omitempty"`
	DomainExamples string         `json:"domainExamples,omitempty"`

	GraphURI      *string `json:"graphUri,omitempty"`
	GraphUsername *string `json:"graphUsername,omitempty"`
	// GraphPasswordCiphertext is sealed by the caller and never serialized.
	GraphPasswordCiphertext []byte `json:"-"`
	HasGraphPassword        bool   `json:"hasGraphPassword"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type OntologyInput struct {
	CompanyID      *uuid.UUID `json:"companyId,omitempty"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Semver         string     `json:"semver"`
	GeneratedByRun *uuid.UUID `json:"generatedByRunId,omitempty"`
	DomainExamples string     `json:"domainExamples,omitempty"`
}

func (o *OntologyInput) Validate() error {
	if err := requireText("name", o.Name); err != nil {
		return err
	}
	if o.Semver == "" {
		o.Semver = "0.1.0"
	}
	return ValidateSemver(o.Semver)
}

type OntologyPatch struct {
	Name           *string    `json:"name,omitempty"`
	Description    *string    `json:"description,omitempty"`
	Semver         *string    `json:"semver,omitempty"`
	CompanyID      *uuid.UUID `json:"companyId,omitempty"`
	DomainExamples *string    `json:"domainExamples,omitempty"`
}

func (p *OntologyPatch) Validate() error {
	if p.Name != nil {
		if err := requireText("name", *p.Name); err != nil {
			return err
		}
	}
	if p.Semver != nil {
		return ValidateSemver(*p.Semver)
	}
	return nil
}

// GraphConnection binds an ontology to an external graph database. The
// password arrives already encrypted.
type GraphConnection struct {
	URI                string
	Username           string
	PasswordCiphertext []byte
}

func (g *GraphConnection) Validate() error {
	if err := requireText("uri", g.URI); err != nil {
		return err
	}
	return requireText("username", g.Username)
}

// SemanticEntity describes one node type. OntologyID nil means a tenant-wide
// entity; only ontology-scoped entities have unique node labels.
type SemanticEntity struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenantId"`
	OntologyID  *uuid.UUID `json:"ontologyId,omitempty"`
	NodeLabel   string     `json:"nodeLabel"`
	Version     int        `json:"version"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type SemanticEntityInput struct {
	OntologyID  *uuid.UUID `json:"ontologyId,omitempty"`
	NodeLabel   string     `json:"nodeLabel"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
}

func (e *SemanticEntityInput) Validate() error {
	if err := requireText("nodeLabel", e.NodeLabel); err != nil {
		return err
	}
	if e.Name == "" {
		e.Name = e.NodeLabel
	}
	return nil
}

type SemanticEntityPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

const (
	FieldKindProperty     = "property"
	FieldKindRelationship = "relationship"
)

// SemanticField is owned by an entity; (entity, name, version) is unique.
type SemanticField struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenantId"`
	EntityID    uuid.UUID       `json:"entityId"`
	FieldName   string          `json:"fieldName"`
	Version     int             `json:"version"`
	Kind        string          `json:"kind"`
	DataType    *string         `json:"dataType,omitempty"`
	Description string          `json:"description"`
	RangeInfo   json.RawMessage `json:"rangeInfo,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type SemanticFieldInput struct {
	FieldName   string          `json:"fieldName"`
	Version     int             `json:"version"`
	Kind        string          `json:"kind"`
	DataType    *string         `json:"dataType,omitempty"`
	Description string          `json:"description"`
	RangeInfo   json.RawMessage `json:"rangeInfo,omitempty"`
}

func (f *SemanticFieldInput) Validate() error {
	if err := requireText("fieldName", f.FieldName); err != nil {
		return err
	}
	if f.Kind == "" {
		f.Kind = FieldKindProperty
	}
	if err := requireOneOf("kind", f.Kind, FieldKindProperty, FieldKindRelationship); err != nil {
		return err
	}
	if f.Version < 0 {
		return invalid("version", "must be positive")
	}
	return requireJSON("rangeInfo", f.RangeInfo)
}

type SemanticFieldPatch struct {
	Kind        *string         `json:"kind,omitempty"`
	DataType    *string         `json:"dataType,omitempty"`
	Description *string         `json:"description,omitempty"`
	RangeInfo   json.RawMessage `json:"rangeInfo,omitempty"`
}

func (p *SemanticFieldPatch) Validate() error {
	if p.Kind != nil {
		if err := requireOneOf("kind", *p.Kind, FieldKindProperty, FieldKindRelationship); err != nil {
			return err
		}
	}
	return requireJSON("rangeInfo", p.RangeInfo)
}
