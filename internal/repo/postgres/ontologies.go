package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
)

const ontologyColumns = `id, tenant_id, company_id, name, description, semver, status, generated_by_run_id,
	COALESCE(domain_examples, ''), graph_uri, graph_username, graph_password_ciphertext, created_at, updated_at`

func scanOntology(row pgx.Row) (*models.Ontology, error) {
	var o models.Ontology
	err := row.Scan(&o.ID, &o.TenantID, &o.CompanyID, &o.Name, &o.Description, &o.Semver, &o.Status,
		&o.GeneratedByRun, &o.DomainExamples, &o.GraphURI, &o.GraphUsername, &o.GraphPasswordCiphertext,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.HasGraphPassword = len(o.GraphPasswordCiphertext) > 0
	return &o, nil
}

func (s *Store) CreateOntology(ctx context.Context, in models.OntologyInput) (*models.Ontology, error) {
	var o *models.Ontology
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "companies", "companyId", in.CompanyID); err != nil {
			return err
		}
		if err := requireVisible(ctx, tx, "scenario_runs", "generatedByRunId", in.GeneratedByRun); err != nil {
			return err
		}
		var domainExamples *string
		if in.DomainExamples != "" {
			domainExamples = &in.DomainExamples
		}
		var err error
		o, err = scanOntology(tx.QueryRow(ctx,
			`INSERT INTO ontologies (company_id, name, description, semver, generated_by_run_id, domain_examples)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+ontologyColumns,
			in.CompanyID, in.Name, in.Description, in.Semver, in.GeneratedByRun, domainExamples))
		return err
	})
	return o, wrap("create ontology", err)
}

func (s *Store) GetOntology(ctx context.Context, id uuid.UUID) (*models.Ontology, error) {
	o, err := scanOntology(s.pool.QueryRow(ctx, `SELECT `+ontologyColumns+` FROM ontologies WHERE id = $1`, id))
	return o, wrap("get ontology", err)
}

func (s *Store) ListOntologies(ctx context.Context, page repo.Page) ([]*models.Ontology, error) {
	limit, offset := pageArgs(page)
	rows, err := s.pool.Query(ctx,
		`SELECT `+ontologyColumns+` FROM ontologies ORDER BY name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, wrap("list ontologies", err)
	}
	ontologies, err := collect(rows, scanOntology)
	return ontologies, wrap("list ontologies", err)
}

func (s *Store) UpdateOntology(ctx context.Context, id uuid.UUID, patch models.OntologyPatch) (*models.Ontology, error) {
	var u updateSet
	if patch.Name != nil {
		u.set("name", *patch.Name)
	}
	if patch.Description != nil {
		u.set("description", *patch.Description)
	}
	if patch.Semver != nil {
		u.set("semver", *patch.Semver)
	}
	if patch.CompanyID != nil {
		u.set("company_id", *patch.CompanyID)
	}
	if patch.DomainExamples != nil {
		u.set("domain_examples", *patch.DomainExamples)
	}
	if u.empty() {
		return s.GetOntology(ctx, id)
	}
	u.setRaw("updated_at = now()")
	where := u.arg(id)

	var o *models.Ontology
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "companies", "companyId", patch.CompanyID); err != nil {
			return err
		}
		var err error
		o, err = scanOntology(tx.QueryRow(ctx,
			`UPDATE ontologies SET `+u.String()+` WHERE id = `+where+` RETURNING `+ontologyColumns, u.args...))
		return err
	})
	return o, wrap("update ontology", err)
}

// SetOntologyStatus enforces draft -> finalized under a row lock. The schema
// has no transition guard of its own.
func (s *Store) SetOntologyStatus(ctx context.Context, id uuid.UUID, status models.OntologyStatus) (*models.Ontology, error) {
	var o *models.Ontology
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var current models.OntologyStatus
		if err := tx.QueryRow(ctx, `SELECT status FROM ontologies WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			return err
		}
		if !current.CanTransitionTo(status) {
			return &models.ValidationError{
				Field:   "status",
				Message: fmt.Sprintf("cannot move ontology from %s to %s", current, status),
			}
		}
		var err error
		o, err = scanOntology(tx.QueryRow(ctx,
			`UPDATE ontologies SET status = $2, updated_at = now() WHERE id = $1 RETURNING `+ontologyColumns, id, status))
		return err
	})
	return o, wrap("set ontology status", err)
}

func (s *Store) SetGraphConnection(ctx context.Context, id uuid.UUID, conn *models.GraphConnection) (*models.Ontology, error) {
	var uri, username any
	var ciphertext []byte
	if conn != nil {
		uri, username, ciphertext = conn.URI, conn.Username, conn.PasswordCiphertext
	}
	o, err := scanOntology(s.pool.QueryRow(ctx,
		`UPDATE ontologies
		 SET graph_uri = $2, graph_username = $3, graph_password_ciphertext = $4, updated_at = now()
		 WHERE id = $1 RETURNING `+ontologyColumns, id, uri, username, ciphertext))
	return o, wrap("set graph connection", err)
}

func (s *Store) DeleteOntology(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ontologies WHERE id = $1`, id)
	return expectRow("delete ontology", tag, err)
}

const entityColumns = "id, tenant_id, ontology_id, node_label, version, name, description, created_at, updated_at"

func scanEntity(row pgx.Row) (*models.SemanticEntity, error) {
	var e models.SemanticEntity
	err := row.Scan(&e.ID, &e.TenantID, &e.OntologyID, &e.NodeLabel, &e.Version, &e.Name, &e.Description,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) CreateEntity(ctx context.Context, in models.SemanticEntityInput) (*models.SemanticEntity, error) {
	var e *models.SemanticEntity
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "ontologies", "ontologyId", in.OntologyID); err != nil {
			return err
		}
		var err error
		e, err = scanEntity(tx.QueryRow(ctx,
			`INSERT INTO semantic_entities (ontology_id, node_label, name, description)
			 VALUES ($1, $2, $3, $4) RETURNING `+entityColumns,
			in.OntologyID, in.NodeLabel, in.Name, in.Description))
		return err
	})
	return e, wrap("create semantic entity", err)
}

func (s *Store) GetEntity(ctx context.Context, id uuid.UUID) (*models.SemanticEntity, error) {
	e, err := scanEntity(s.pool.QueryRow(ctx, `SELECT `+entityColumns+` FROM semantic_entities WHERE id = $1`, id))
	return e, wrap("get semantic entity", err)
}

func (s *Store) ListEntities(ctx context.Context, ontologyID *uuid.UUID) ([]*models.SemanticEntity, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if ontologyID == nil {
		rows, err = s.pool.Query(ctx,
			`SELECT `+entityColumns+` FROM semantic_entities WHERE ontology_id IS NULL ORDER BY node_label, id`)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT `+entityColumns+` FROM semantic_entities WHERE ontology_id = $1 ORDER BY node_label, id`, *ontologyID)
	}
	if err != nil {
		return nil, wrap("list semantic entities", err)
	}
	entities, err := collect(rows, scanEntity)
	return entities, wrap("list semantic entities", err)
}

func (s *Store) UpdateEntity(ctx context.Context, id uuid.UUID, patch models.SemanticEntityPatch) (*models.SemanticEntity, error) {
	var u updateSet
	if patch.Name != nil {
		u.set("name", *patch.Name)
	}
	if patch.Description != nil {
		u.set("description", *patch.Description)
	}
	if u.empty() {
		return s.GetEntity(ctx, id)
	}
	u.setRaw("updated_at = now()")
	where := u.arg(id)
	e, err := scanEntity(s.pool.QueryRow(ctx,
		`UPDATE semantic_entities SET `+u.String()+` WHERE id = `+where+` RETURNING `+entityColumns, u.args...))
	return e, wrap("update semantic entity", err)
}

func (s *Store) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM semantic_entities WHERE id = $1`, id)
	return expectRow("delete semantic entity", tag, err)
}

// BumpEntityVersion moves the entity to version+1 and copies the fields of
// the previous version forward. Older field versions are kept.
func (s *Store) BumpEntityVersion(ctx context.Context, id uuid.UUID) (*models.SemanticEntity, error) {
	var e *models.SemanticEntity
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		e, err = scanEntity(tx.QueryRow(ctx,
			`UPDATE semantic_entities SET version = version + 1, updated_at = now()
			 WHERE id = $1 RETURNING `+entityColumns, id))
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO semantic_fields (entity_id, field_name, version, kind, data_type, description, range_info)
			 SELECT entity_id, field_name, $2, kind, data_type, description, range_info
			 FROM semantic_fields WHERE entity_id = $1 AND version = $3`,
			id, e.Version, e.Version-1)
		return err
	})
	return e, wrap("bump semantic entity version", err)
}

const fieldColumns = `id, tenant_id, entity_id, field_name, version, kind, data_type, description, range_info,
	created_at, updated_at`

func scanField(row pgx.Row) (*models.SemanticField, error) {
	var f models.SemanticField
	err := row.Scan(&f.ID, &f.TenantID, &f.EntityID, &f.FieldName, &f.Version, &f.Kind, &f.DataType,
		&f.Description, &f.RangeInfo, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateField adds a field to an entity. Version 0 means the entity's
// current version.
func (s *Store) CreateField(ctx context.Context, entityID uuid.UUID, in models.SemanticFieldInput) (*models.SemanticField, error) {
	kind := in.Kind
	if kind == "" {
		kind = models.FieldKindProperty
	}
	f, err := scanField(s.pool.QueryRow(ctx,
		`INSERT INTO semantic_fields (entity_id, field_name, version, kind, data_type, description, range_info)
		 SELECT e.id, $2, COALESCE(NULLIF($3::integer, 0), e.version), $4, $5, $6, $7::jsonb
		 FROM semantic_entities e WHERE e.id = $1
		 RETURNING `+fieldColumns,
		entityID, in.FieldName, in.Version, kind, in.DataType, in.Description, jsonArg(in.RangeInfo)))
	return f, wrap("create semantic field", err)
}

func (s *Store) GetField(ctx context.Context, id uuid.UUID) (*models.SemanticField, error) {
	f, err := scanField(s.pool.QueryRow(ctx, `SELECT `+fieldColumns+` FROM semantic_fields WHERE id = $1`, id))
	return f, wrap("get semantic field", err)
}

func (s *Store) ListFields(ctx context.Context, entityID uuid.UUID, version int) ([]*models.SemanticField, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+fieldColumns+` FROM semantic_fields
		 WHERE entity_id = $1 AND ($2 = 0 OR version = $2)
		 ORDER BY version, field_name`, entityID, version)
	if err != nil {
		return nil, wrap("list semantic fields", err)
	}
	fields, err := collect(rows, scanField)
	return fields, wrap("list semantic fields", err)
}

func (s *Store) UpdateField(ctx context.Context, id uuid.UUID, patch models.SemanticFieldPatch) (*models.SemanticField, error) {
	var u updateSet
	if patch.Kind != nil {
		u.set("kind", *patch.Kind)
	}
	if patch.DataType != nil {
		u.set("data_type", *patch.DataType)
	}
	if patch.Description != nil {
		u.set("description", *patch.Description)
	}
	if len(patch.RangeInfo) > 0 {
		u.set("range_info", string(patch.RangeInfo))
	}
	if u.empty() {
		return s.GetField(ctx, id)
	}
	u.setRaw("updated_at = now()")
	where := u.arg(id)
	f, err := scanField(s.pool.QueryRow(ctx,
		`UPDATE semantic_fields SET `+u.String()+` WHERE id = `+where+` RETURNING `+fieldColumns, u.args...))
	return f, wrap("update semantic field", err)
}

func (s *Store) DeleteField(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM semantic_fields WHERE id = $1`, id)
	return expectRow("delete semantic field", tag, err)
}
