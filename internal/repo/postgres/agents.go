package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
)

const intentColumns = `i.id, i.tenant_id, i.op_id, i.name, i.route, i.data_source, i.input_schema, i.output_schema,
	i.grounding, i.ontology_id, i.created_at, i.updated_at`

func scanIntent(row pgx.Row) (*models.Intent, error) {
	var i models.Intent
	err := row.Scan(&i.ID, &i.TenantID, &i.OpID, &i.Name, &i.Route, &i.DataSource, &i.InputSchema, &i.OutputSchema,
		&i.Grounding, &i.OntologyID, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *Store) CreateIntent(ctx context.Context, in models.IntentInput) (*models.Intent, error) {
	var i *models.Intent
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "ontologies", "ontologyId", in.OntologyID); err != nil {
			return err
		}
		var err error
		i, err = scanIntent(tx.QueryRow(ctx,
			`INSERT INTO intents AS i (op_id, name, route, data_source, input_schema, output_schema, grounding, ontology_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+intentColumns,
			in.OpID, in.Name, in.Route, in.DataSource, in.InputSchema, in.OutputSchema, in.Grounding, in.OntologyID))
		return err
	})
	return i, wrap("create intent", err)
}

func (s *Store) GetIntent(ctx context.Context, id uuid.UUID) (*models.Intent, error) {
	i, err := scanIntent(s.pool.QueryRow(ctx, `SELECT `+intentColumns+` FROM intents i WHERE i.id = $1`, id))
	return i, wrap("get intent", err)
}

func (s *Store) ListIntents(ctx context.Context, page repo.Page) ([]*models.Intent, error) {
	limit, offset := pageArgs(page)
	rows, err := s.pool.Query(ctx,
		`SELECT `+intentColumns+` FROM intents i ORDER BY i.op_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, wrap("list intents", err)
	}
	intents, err := collect(rows, scanIntent)
	return intents, wrap("list intents", err)
}

// UpdateIntent replaces every mutable field.
func (s *Store) UpdateIntent(ctx context.Context, id uuid.UUID, in models.IntentInput) (*models.Intent, error) {
	var i *models.Intent
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "ontologies", "ontologyId", in.OntologyID); err != nil {
			return err
		}
		var err error
		i, err = scanIntent(tx.QueryRow(ctx,
			`UPDATE intents AS i SET op_id = $2, name = $3, route = $4, data_source = $5, input_schema = $6,
			     output_schema = $7, grounding = $8, ontology_id = $9, updated_at = now()
			 WHERE i.id = $1 RETURNING `+intentColumns,
			id, in.OpID, in.Name, in.Route, in.DataSource, in.InputSchema, in.OutputSchema, in.Grounding, in.OntologyID))
		return err
	})
	return i, wrap("update intent", err)
}

func (s *Store) DeleteIntent(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM intents WHERE id = $1`, id)
	return expectRow("delete intent", tag, err)
}

// agentRoleColumns carries the allow-list as an array so a role reads in
// one round trip.
const agentRoleColumns = `r.id, r.tenant_id, r.name, r.description, r.read_ontology_id, r.write_ontology_id,
	r.created_at, r.updated_at,
	ARRAY(SELECT ri.intent_id FROM agent_role_intents ri WHERE ri.agent_role_id = r.id ORDER BY ri.intent_id)`

func scanAgentRole(row pgx.Row) (*models.AgentRole, error) {
	var r models.AgentRole
	err := row.Scan(&r.ID, &r.TenantID, &r.Name, &r.Description, &r.ReadOntologyID, &r.WriteOntologyID,
		&r.CreatedAt, &r.UpdatedAt, &r.IntentIDs)
	if err != nil {
		return nil, err
	}
	if r.IntentIDs == nil {
		r.IntentIDs = []uuid.UUID{}
	}
	return &r, nil
}

func requireOntologies(ctx context.Context, q querier, in models.AgentRoleInput) error {
	if err := requireVisible(ctx, q, "ontologies", "readOntologyId", in.ReadOntologyID); err != nil {
		return err
	}
	return requireVisible(ctx, q, "ontologies", "writeOntologyId", in.WriteOntologyID)
}

// CreateAgentRole inserts the role only; the allow-list is written by
// SetAgentRoleIntents.
func (s *Store) CreateAgentRole(ctx context.Context, in models.AgentRoleInput) (*models.AgentRole, error) {
	var r *models.AgentRole
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireOntologies(ctx, tx, in); err != nil {
			return err
		}
		var err error
		r, err = scanAgentRole(tx.QueryRow(ctx,
			`INSERT INTO agent_roles AS r (name, description, read_ontology_id, write_ontology_id)
			 VALUES ($1, $2, $3, $4) RETURNING `+agentRoleColumns,
			in.Name, in.Description, in.ReadOntologyID, in.WriteOntologyID))
		return err
	})
	return r, wrap("create agent role", err)
}

func (s *Store) GetAgentRole(ctx context.Context, id uuid.UUID) (*models.AgentRole, error) {
	r, err := scanAgentRole(s.pool.QueryRow(ctx, `SELECT `+agentRoleColumns+` FROM agent_roles r WHERE r.id = $1`, id))
	return r, wrap("get agent role", err)
}

func (s *Store) ListAgentRoles(ctx context.Context) ([]*models.AgentRole, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+agentRoleColumns+` FROM agent_roles r ORDER BY r.name`)
	if err != nil {
		return nil, wrap("list agent roles", err)
	}
	roles, err := collect(rows, scanAgentRole)
	return roles, wrap("list agent roles", err)
}

func (s *Store) UpdateAgentRole(ctx context.Context, id uuid.UUID, in models.AgentRoleInput) (*models.AgentRole, error) {
	var r *models.AgentRole
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireOntologies(ctx, tx, in); err != nil {
			return err
		}
		var err error
		r, err = scanAgentRole(tx.QueryRow(ctx,
			`UPDATE agent_roles AS r SET name = $2, description = $3, read_ontology_id = $4, write_ontology_id = $5,
			     updated_at = now()
			 WHERE r.id = $1 RETURNING `+agentRoleColumns,
			id, in.Name, in.Description, in.ReadOntologyID, in.WriteOntologyID))
		return err
	})
	return r, wrap("update agent role", err)
}

func (s *Store) DeleteAgentRole(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM agent_roles WHERE id = $1`, id)
	return expectRow("delete agent role", tag, err)
}

// SetAgentRoleIntents replaces the allow-list. An empty list leaves the
// role unable to invoke anything.
func (s *Store) SetAgentRoleIntents(ctx context.Context, roleID uuid.UUID, intentIDs []uuid.UUID) error {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM agent_roles WHERE id = $1 FOR UPDATE`, roleID).Scan(&locked); err != nil {
			return err
		}
		seen := make(map[uuid.UUID]bool, len(intentIDs))
		for _, id := range intentIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			if err := requireVisible(ctx, tx, "intents", "intentIds", &id); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM agent_role_intents WHERE agent_role_id = $1`, roleID); err != nil {
			return err
		}
		for id := range seen {
			if _, err := tx.Exec(ctx,
				`INSERT INTO agent_role_intents (agent_role_id, intent_id) VALUES ($1, $2)`, roleID, id); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `UPDATE agent_roles SET updated_at = now() WHERE id = $1`, roleID)
		return err
	})
	return wrap("set agent role intents", err)
}

func (s *Store) ListAgentRoleIntents(ctx context.Context, roleID uuid.UUID) ([]*models.Intent, error) {
	var intents []*models.Intent
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "agent_roles", "agentRoleId", &roleID); err != nil {
			return err
		}
		rows, err := tx.Query(ctx,
			`SELECT `+intentColumns+` FROM intents i
			 JOIN agent_role_intents ri ON ri.intent_id = i.id
			 WHERE ri.agent_role_id = $1 ORDER BY i.op_id`, roleID)
		if err != nil {
			return err
		}
		intents, err = collect(rows, scanIntent)
		return err
	})
	return intents, wrap("list agent role intents", err)
}

const accessKeyColumns = "id, tenant_id, agent_role_id, name, key_hash, prefix, expires_at, created_at"

func scanAccessKey(row pgx.Row) (*models.AgentRoleAccessKey, error) {
	var k models.AgentRoleAccessKey
	err := row.Scan(&k.ID, &k.TenantID, &k.AgentRoleID, &k.Name, &k.KeyHash, &k.Prefix, &k.ExpiresAt, &k.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// CreateAccessKey stores the hash of an issued key under a visible role.
func (s *Store) CreateAccessKey(ctx context.Context, key models.AgentRoleAccessKey) (*models.AgentRoleAccessKey, error) {
	k, err := scanAccessKey(s.pool.QueryRow(ctx,
		`INSERT INTO agent_role_access_keys (agent_role_id, name, key_hash, prefix, expires_at)
		 SELECT r.id, $2, $3, $4, $5::timestamptz FROM agent_roles r WHERE r.id = $1
		 RETURNING `+accessKeyColumns, key.AgentRoleID, key.Name, key.KeyHash, key.Prefix, key.ExpiresAt))
	return k, wrap("create access key", err)
}

func (s *Store) ListAccessKeys(ctx context.Context, roleID uuid.UUID) ([]*models.AgentRoleAccessKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+accessKeyColumns+` FROM agent_role_access_keys WHERE agent_role_id = $1 ORDER BY created_at, id`, roleID)
	if err != nil {
		return nil, wrap("list access keys", err)
	}
	keys, err := collect(rows, scanAccessKey)
	return keys, wrap("list access keys", err)
}

func (s *Store) DeleteAccessKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM agent_role_access_keys WHERE id = $1`, id)
	return expectRow("delete access key", tag, err)
}

func (s *Store) FindAccessKeyByHash(ctx context.Context, hash string) (*models.AgentRoleAccessKey, error) {
	k, err := scanAccessKey(s.pool.QueryRow(ctx,
		`SELECT `+accessKeyColumns+` FROM agent_role_access_keys WHERE key_hash = $1`, hash))
	return k, wrap("find access key", err)
}
