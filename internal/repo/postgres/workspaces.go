package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
)

const workspaceColumns = `id, tenant_id, owner_id, company_id, ontology_id, name, description, visibility,
	intent, state, setup_stage, setup_run_id, data_scope, execution_results, intent_package,
	team_config, version, created_at, updated_at`

func scanWorkspace(row pgx.Row) (*models.Workspace, error) {
	var w models.Workspace
	err := row.Scan(&w.ID, &w.TenantID, &w.OwnerID, &w.CompanyID, &w.OntologyID, &w.Name,
		&w.Description, &w.Visibility, &w.Intent, &w.State, &w.SetupStage, &w.SetupRunID,
		&w.DataScope, &w.ExecutionResults, &w.IntentPackage, &w.TeamConfig,
		&w.Version, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) CreateWorkspace(ctx context.Context, in models.WorkspaceInput) (*models.Workspace, error) {
	var w *models.Workspace
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "users", "ownerId", &in.OwnerID); err != nil {
			return err
		}
		if err := requireVisible(ctx, tx, "companies", "companyId", in.CompanyID); err != nil {
			return err
		}
		if err := requireVisible(ctx, tx, "ontologies", "ontologyId", in.OntologyID); err != nil {
			return err
		}
		var err error
		w, err = scanWorkspace(tx.QueryRow(ctx,
			`INSERT INTO workspaces (owner_id, company_id, ontology_id, name, description, visibility, intent)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+workspaceColumns,
			in.OwnerID, in.CompanyID, in.OntologyID, in.Name, in.Description, in.Visibility, in.Intent))
		return err
	})
	return w, wrap("create workspace", err)
}

func (s *Store) GetWorkspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	w, err := scanWorkspace(s.pool.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id))
	return w, wrap("get workspace", err)
}

func (s *Store) ListWorkspaces(ctx context.Context, filter models.WorkspaceListFilter) ([]*models.Workspace, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.OwnerID != nil {
		add("owner_id = $%d", *filter.OwnerID)
	}
	if filter.CompanyID != nil {
		add("company_id = $%d", *filter.CompanyID)
	}
	if filter.State != nil {
		add("state = $%d", *filter.State)
	}
	if filter.Visibility != nil {
		add("visibility = $%d", *filter.Visibility)
	}

	query := `SELECT ` + workspaceColumns + ` FROM workspaces`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	limit, offset := pageArgs(repo.Page{Limit: filter.Limit, Offset: filter.Offset})
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY updated_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list workspaces", err)
	}
	workspaces, err := collect(rows, scanWorkspace)
	return workspaces, wrap("list workspaces", err)
}

func (s *Store) UpdateWorkspace(ctx context.Context, id uuid.UUID, patch models.WorkspacePatch) (*models.Workspace, error) {
	var u updateSet
	if patch.Name != nil {
		u.set("name", *patch.Name)
	}
	if patch.Description != nil {
		u.set("description", *patch.Description)
	}
	if patch.Visibility != nil {
		u.set("visibility", *patch.Visibility)
	}
	if patch.Intent != nil {
		u.set("intent", *patch.Intent)
	}
	if patch.CompanyID != nil {
		u.set("company_id", *patch.CompanyID)
	}
	if patch.OntologyID != nil {
		u.set("ontology_id", *patch.OntologyID)
	}
	if patch.SetupStage != nil {
		u.set("setup_stage", *patch.SetupStage)
	}
	if len(patch.DataScope) > 0 {
		u.set("data_scope", string(patch.DataScope))
	}
	if len(patch.ExecutionResults) > 0 {
		u.set("execution_results", string(patch.ExecutionResults))
	}
	if len(patch.IntentPackage) > 0 {
		u.set("intent_package", string(patch.IntentPackage))
	}
	if len(patch.TeamConfig) > 0 {
		u.set("team_config", string(patch.TeamConfig))
	}
	if u.empty() {
		return s.GetWorkspace(ctx, id)
	}
	u.setRaw("version = version + 1")
	u.setRaw("updated_at = now()")

	where := "id = " + u.arg(id)
	if patch.ExpectedVersion != nil {
		where += " AND version = " + u.arg(*patch.ExpectedVersion)
	}

	var w *models.Workspace
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "companies", "companyId", patch.CompanyID); err != nil {
			return err
		}
		if err := requireVisible(ctx, tx, "ontologies", "ontologyId", patch.OntologyID); err != nil {
			return err
		}
		var err error
		w, err = scanWorkspace(tx.QueryRow(ctx,
			`UPDATE workspaces SET `+u.String()+` WHERE `+where+` RETURNING `+workspaceColumns, u.args...))
		if errors.Is(err, pgx.ErrNoRows) && patch.ExpectedVersion != nil {
			return staleOrMissing(ctx, tx, "workspaces", id)
		}
		return err
	})
	return w, wrap("update workspace", err)
}

// staleOrMissing distinguishes a failed conditional update on an existing
// row (ErrConflict) from an absent row (ErrNotFound).
func staleOrMissing(ctx context.Context, q querier, table string, id uuid.UUID) error {
	if err := requireVisible(ctx, q, table, "id", &id); err != nil {
		return err
	}
	return repo.ErrConflict
}

func (s *Store) DeleteWorkspace(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	return expectRow("delete workspace", tag, err)
}

func (s *Store) SetWorkspaceState(ctx context.Context, id uuid.UUID, from, to models.WorkspaceState) (*models.Workspace, error) {
	var w *models.Workspace
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		w, err = scanWorkspace(tx.QueryRow(ctx,
			`UPDATE workspaces
			 SET state = $3,
			     setup_stage = CASE WHEN $3 = 'setup' THEN setup_stage ELSE NULL END,
			     version = version + 1, updated_at = now()
			 WHERE id = $1 AND state = $2
			 RETURNING `+workspaceColumns, id, from, to))
		if errors.Is(err, pgx.ErrNoRows) {
			return staleOrMissing(ctx, tx, "workspaces", id)
		}
		return err
	})
	return w, wrap("set workspace state", err)
}

func (s *Store) BeginWorkspaceSetup(ctx context.Context, id uuid.UUID, in models.ScenarioRunInput) (*models.Workspace, *models.ScenarioRun, error) {
	var (
		w   *models.Workspace
		run *models.ScenarioRun
	)
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var state models.WorkspaceState
		if err := tx.QueryRow(ctx, `SELECT state FROM workspaces WHERE id = $1 FOR UPDATE`, id).Scan(&state); err != nil {
			return err
		}
		if !state.CanTransitionTo(models.WorkspaceSetup) {
			return models.ErrStateTransition(state, models.WorkspaceSetup)
		}

		in.WorkspaceID = id
		var err error
		if run, err = insertRun(ctx, tx, in); err != nil {
			return err
		}
		w, err = scanWorkspace(tx.QueryRow(ctx,
			`UPDATE workspaces
			 SET state = 'setup', setup_stage = $2, setup_run_id = $3,
			     version = version + 1, updated_at = now()
			 WHERE id = $1
			 RETURNING `+workspaceColumns, id, models.StageIntentDiscovery, run.ID))
		return err
	})
	if err != nil {
		return nil, nil, wrap("begin workspace setup", err)
	}
	return w, run, nil
}

func (s *Store) ClearSetupRun(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	w, err := scanWorkspace(s.pool.QueryRow(ctx,
		`UPDATE workspaces SET setup_run_id = NULL, version = version + 1, updated_at = now()
		 WHERE id = $1 RETURNING `+workspaceColumns, id))
	return w, wrap("clear setup run", err)
}

const memberColumns = "tenant_id, workspace_id, user_id, role, added_at"

func scanMember(row pgx.Row) (*models.WorkspaceMember, error) {
	var m models.WorkspaceMember
	if err := row.Scan(&m.TenantID, &m.WorkspaceID, &m.UserID, &m.Role, &m.AddedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) UpsertMember(ctx context.Context, workspaceID, userID uuid.UUID, role string) (*models.WorkspaceMember, error) {
	var m *models.WorkspaceMember
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "users", "userId", &userID); err != nil {
			return err
		}
		var err error
		m, err = scanMember(tx.QueryRow(ctx,
			`INSERT INTO workspace_members (workspace_id, user_id, role)
			 SELECT w.id, $2::uuid, $3 FROM workspaces w WHERE w.id = $1
			 ON CONFLICT (workspace_id, user_id) DO UPDATE SET role = EXCLUDED.role
			 RETURNING `+memberColumns, workspaceID, userID, role))
		return err
	})
	return m, wrap("upsert workspace member", err)
}

func (s *Store) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceMember, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+memberColumns+` FROM workspace_members WHERE workspace_id = $1 ORDER BY added_at, user_id`, workspaceID)
	if err != nil {
		return nil, wrap("list workspace members", err)
	}
	members, err := collect(rows, scanMember)
	return members, wrap("list workspace members", err)
}

func (s *Store) RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`, workspaceID, userID)
	return expectRow("remove workspace member", tag, err)
}

const itemColumns = "id, tenant_id, workspace_id, graph_node_id, graph_edge_id, labels, pinned_by, pinned_at"

func scanItem(row pgx.Row) (*models.WorkspaceItem, error) {
	var i models.WorkspaceItem
	err := row.Scan(&i.ID, &i.TenantID, &i.WorkspaceID, &i.GraphNodeID, &i.GraphEdgeID, &i.Labels, &i.PinnedBy, &i.PinnedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// UpsertItem pins a graph reference. Pinning the same (node, edge) pair
// twice updates the existing row and keeps its id.
func (s *Store) UpsertItem(ctx context.Context, workspaceID uuid.UUID, in models.WorkspaceItemInput) (*models.WorkspaceItem, error) {
	labels := in.Labels
	if labels == nil {
		labels = []string{}
	}
	var item *models.WorkspaceItem
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "users", "pinnedBy", in.PinnedBy); err != nil {
			return err
		}
		var err error
		item, err = scanItem(tx.QueryRow(ctx,
			`INSERT INTO workspace_items (workspace_id, graph_node_id, graph_edge_id, labels, pinned_by)
			 SELECT w.id, $2, $3, $4::text[], $5::uuid FROM workspaces w WHERE w.id = $1
			 ON CONFLICT (workspace_id, graph_node_id, graph_edge_id)
			 DO UPDATE SET labels = EXCLUDED.labels, pinned_by = EXCLUDED.pinned_by, pinned_at = now()
			 RETURNING `+itemColumns,
			workspaceID, in.GraphNodeID, in.GraphEdgeID, labels, in.PinnedBy))
		return err
	})
	return item, wrap("upsert workspace item", err)
}

func (s *Store) ListItems(ctx context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM workspace_items WHERE workspace_id = $1 ORDER BY pinned_at, id`, workspaceID)
	if err != nil {
		return nil, wrap("list workspace items", err)
	}
	items, err := collect(rows, scanItem)
	return items, wrap("list workspace items", err)
}

func (s *Store) DeleteItem(ctx context.Context, workspaceID, itemID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM workspace_items WHERE workspace_id = $1 AND id = $2`, workspaceID, itemID)
	return expectRow("delete workspace item", tag, err)
}
