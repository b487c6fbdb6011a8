package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

// OntologyService enforces the ontology lifecycle. The database has no
// transition guard, so every status change goes through SetStatus.
type OntologyService struct {
	store  repo.OntologyStore
	grants GrantCache
	logger logger.Logger
}

// GrantCache forgets cached agent grants. Deleting an ontology clears the
// agent-role columns that point at it, so those roles must be reloaded.
type GrantCache interface {
	RolesForOntology(ctx context.Context, ontologyID uuid.UUID) []uuid.UUID
	InvalidateRoles(ctx context.Context, roleIDs []uuid.UUID)
}

// NewOntologyService builds the service. grants may be nil when no agent
// grants are cached.
func NewOntologyService(store repo.OntologyStore, grants GrantCache, log logger.Logger) *OntologyService {
	return &OntologyService{store: store, grants: grants, logger: log}
}

func (s *OntologyService) Create(ctx context.Context, in models.OntologyInput) (*models.Ontology, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateOntology(ctx, in)
}

func (s *OntologyService) Get(ctx context.Context, id uuid.UUID) (*models.Ontology, error) {
	return s.store.GetOntology(ctx, id)
}

func (s *OntologyService) List(ctx context.Context, page repo.Page) ([]*models.Ontology, error) {
	return s.store.ListOntologies(ctx, page.Normalize())
}

func (s *OntologyService) Update(ctx context.Context, id uuid.UUID, patch models.OntologyPatch) (*models.Ontology, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpdateOntology(ctx, id, patch)
}

func (s *OntologyService) Delete(ctx context.Context, id uuid.UUID) error {
	var roles []uuid.UUID
	if s.grants != nil {
		roles = s.grants.RolesForOntology(ctx, id)
	}
	if err := s.store.DeleteOntology(ctx, id); err != nil {
		return err
	}
	if s.grants != nil {
		s.grants.InvalidateRoles(ctx, roles)
	}
	return nil
}

// SetStatus allows draft -> finalized only.
func (s *OntologyService) SetStatus(ctx context.Context, id uuid.UUID, status models.OntologyStatus) (*models.Ontology, error) {
	if status != models.OntologyDraft && status != models.OntologyFinalized {
		return nil, &models.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	o, err := s.store.GetOntology(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == status {
		return o, nil
	}
	if !o.Status.CanTransitionTo(status) {
		return nil, &models.ValidationError{Field: "status", Message: fmt.Sprintf("cannot move ontology from %s to %s", o.Status, status)}
	}
	out, err := s.store.SetOntologyStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Ontology status changed", "ontology_id", id, "status", status)
	return out, nil
}

// BindGraphConnection stores an external graph binding. The password must
// already be sealed.
func (s *OntologyService) BindGraphConnection(ctx context.Context, id uuid.UUID, conn models.GraphConnection) (*models.Ontology, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	return s.store.SetGraphConnection(ctx, id, &conn)
}

func (s *OntologyService) UnbindGraphConnection(ctx context.Context, id uuid.UUID) (*models.Ontology, error) {
	return s.store.SetGraphConnection(ctx, id, nil)
}

// requireDraft rejects schema writes under a finalized ontology. Tenant-wide
// entities have no ontology and are always writable.
func (s *OntologyService) requireDraft(ctx context.Context, ontologyID *uuid.UUID) error {
	if ontologyID == nil {
		return nil
	}
	o, err := s.store.GetOntology(ctx, *ontologyID)
	if err != nil {
		return err
	}
	if o.Status == models.OntologyFinalized {
		return &models.ValidationError{Field: "ontologyId", Message: "ontology is finalized"}
	}
	return nil
}

func (s *OntologyService) entityDraft(ctx context.Context, entityID uuid.UUID) (*models.SemanticEntity, error) {
	e, err := s.store.GetEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return e, s.requireDraft(ctx, e.OntologyID)
}

func (s *OntologyService) CreateEntity(ctx context.Context, in models.SemanticEntityInput) (*models.SemanticEntity, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireDraft(ctx, in.OntologyID); err != nil {
		return nil, err
	}
	return s.store.CreateEntity(ctx, in)
}

func (s *OntologyService) GetEntity(ctx context.Context, id uuid.UUID) (*models.SemanticEntity, error) {
	return s.store.GetEntity(ctx, id)
}

func (s *OntologyService) ListEntities(ctx context.Context, ontologyID *uuid.UUID) ([]*models.SemanticEntity, error) {
	return s.store.ListEntities(ctx, ontologyID)
}

func (s *OntologyService) UpdateEntity(ctx context.Context, id uuid.UUID, patch models.SemanticEntityPatch) (*models.SemanticEntity, error) {
	if patch.Name != nil && *patch.Name == "" {
		return nil, &models.ValidationError{Field: "name", Message: "is required"}
	}
	if _, err := s.entityDraft(ctx, id); err != nil {
		return nil, err
	}
	return s.store.UpdateEntity(ctx, id, patch)
}

func (s *OntologyService) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	if _, err := s.entityDraft(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteEntity(ctx, id)
}

// NewEntityVersion bumps the entity version and carries its fields forward.
func (s *OntologyService) NewEntityVersion(ctx context.Context, id uuid.UUID) (*models.SemanticEntity, error) {
	if _, err := s.entityDraft(ctx, id); err != nil {
		return nil, err
	}
	return s.store.BumpEntityVersion(ctx, id)
}

// AddField defaults the field version to the entity's current version.
func (s *OntologyService) AddField(ctx context.Context, entityID uuid.UUID, in models.SemanticFieldInput) (*models.SemanticField, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	e, err := s.entityDraft(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if in.Version == 0 {
		in.Version = e.Version
	}
	return s.store.CreateField(ctx, entityID, in)
}

// ListFields returns the fields of version, or of the entity's current
// version when version is 0.
func (s *OntologyService) ListFields(ctx context.Context, entityID uuid.UUID, version int) ([]*models.SemanticField, error) {
	if version < 0 {
		return s.store.ListFields(ctx, entityID, 0)
	}
	if version == 0 {
		e, err := s.store.GetEntity(ctx, entityID)
		if err != nil {
			return nil, err
		}
		version = e.Version
	}
	return s.store.ListFields(ctx, entityID, version)
}

func (s *OntologyService) fieldDraft(ctx context.Context, id uuid.UUID) error {
	f, err := s.store.GetField(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.entityDraft(ctx, f.EntityID)
	return err
}

func (s *OntologyService) UpdateField(ctx context.Context, id uuid.UUID, patch models.SemanticFieldPatch) (*models.SemanticField, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if err := s.fieldDraft(ctx, id); err != nil {
		return nil, err
	}
	return s.store.UpdateField(ctx, id, patch)
}

func (s *OntologyService) DeleteField(ctx context.Context, id uuid.UUID) error {
	if err := s.fieldDraft(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteField(ctx, id)
}
