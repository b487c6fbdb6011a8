package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
)

const changesetColumns = "id, tenant_id, workspace_id, status, comment, created_by, created_at, updated_at"

func scanChangeset(row pgx.Row) (*models.OverlayChangeset, error) {
	var c models.OverlayChangeset
	err := row.Scan(&c.ID, &c.TenantID, &c.WorkspaceID, &c.Status, &c.Comment, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateChangeset(ctx context.Context, workspaceID uuid.UUID, in models.ChangesetInput) (*models.OverlayChangeset, error) {
	var c *models.OverlayChangeset
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "users", "createdBy", in.CreatedBy); err != nil {
			return err
		}
		var err error
		c, err = scanChangeset(tx.QueryRow(ctx,
			`INSERT INTO overlay_changesets (workspace_id, comment, created_by)
			 SELECT w.id, $2, $3::uuid FROM workspaces w WHERE w.id = $1
			 RETURNING `+changesetColumns, workspaceID, in.Comment, in.CreatedBy))
		return err
	})
	return c, wrap("create changeset", err)
}

func (s *Store) GetChangeset(ctx context.Context, id uuid.UUID) (*models.OverlayChangeset, error) {
	var c *models.OverlayChangeset
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		c, err = scanChangeset(tx.QueryRow(ctx, `SELECT `+changesetColumns+` FROM overlay_changesets WHERE id = $1`, id))
		if err != nil {
			return err
		}

		rows, err := tx.Query(ctx,
			`SELECT tenant_id, changeset_id, node_id, op, patch FROM overlay_node_patches
			 WHERE changeset_id = $1 ORDER BY node_id`, id)
		if err != nil {
			return err
		}
		c.NodePatches, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.OverlayNodePatch, error) {
			var p models.OverlayNodePatch
			err := row.Scan(&p.TenantID, &p.ChangesetID, &p.NodeID, &p.Op, &p.Patch)
			return p, err
		})
		if err != nil {
			return err
		}

		rows, err = tx.Query(ctx,
			`SELECT tenant_id, changeset_id, edge_id, op, patch FROM overlay_edge_patches
			 WHERE changeset_id = $1 ORDER BY edge_id`, id)
		if err != nil {
			return err
		}
		c.EdgePatches, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.OverlayEdgePatch, error) {
			var p models.OverlayEdgePatch
			err := row.Scan(&p.TenantID, &p.ChangesetID, &p.EdgeID, &p.Op, &p.Patch)
			return p, err
		})
		return err
	})
	return c, wrap("get changeset", err)
}

func (s *Store) ListChangesets(ctx context.Context, workspaceID uuid.UUID) ([]*models.OverlayChangeset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+changesetColumns+` FROM overlay_changesets WHERE workspace_id = $1 ORDER BY created_at DESC, id`, workspaceID)
	if err != nil {
		return nil, wrap("list changesets", err)
	}
	changesets, err := collect(rows, scanChangeset)
	return changesets, wrap("list changesets", err)
}

func (s *Store) SetChangesetComment(ctx context.Context, id uuid.UUID, comment string) (*models.OverlayChangeset, error) {
	c, err := scanChangeset(s.pool.QueryRow(ctx,
		`UPDATE overlay_changesets SET comment = $2, updated_at = now() WHERE id = $1 RETURNING `+changesetColumns,
		id, comment))
	return c, wrap("set changeset comment", err)
}

func (s *Store) SetChangesetStatus(ctx context.Context, id uuid.UUID, from, to models.ChangesetStatus) (*models.OverlayChangeset, error) {
	var c *models.OverlayChangeset
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		c, err = scanChangeset(tx.QueryRow(ctx,
			`UPDATE overlay_changesets SET status = $3, updated_at = now()
			 WHERE id = $1 AND status = $2 RETURNING `+changesetColumns, id, from, to))
		if errors.Is(err, pgx.ErrNoRows) {
			return staleOrMissing(ctx, tx, "overlay_changesets", id)
		}
		return err
	})
	return c, wrap("set changeset status", err)
}

func (s *Store) DeleteChangeset(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM overlay_changesets WHERE id = $1`, id)
	return expectRow("delete changeset", tag, err)
}

type patchRow struct {
	tenantID uuid.UUID
	op       string
	patch    json.RawMessage
}

// upsertPatch writes a node or edge patch. Patches can only change while the
// changeset is a draft; a non-draft changeset yields ErrConflict.
func (s *Store) upsertPatch(ctx context.Context, table, keyColumn string, changesetID uuid.UUID, key string, in models.PatchInput) (*patchRow, error) {
	var row patchRow
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireDraft(ctx, tx, changesetID); err != nil {
			return err
		}
		return tx.QueryRow(ctx, fmt.Sprintf(
			`INSERT INTO %[1]s (changeset_id, %[2]s, op, patch) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (changeset_id, %[2]s) DO UPDATE SET op = EXCLUDED.op, patch = EXCLUDED.patch
			 RETURNING tenant_id, op, patch`, table, keyColumn),
			changesetID, key, in.Op, string(in.Patch)).Scan(&row.tenantID, &row.op, &row.patch)
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func requireDraft(ctx context.Context, q querier, changesetID uuid.UUID) error {
	var status models.ChangesetStatus
	if err := q.QueryRow(ctx, `SELECT status FROM overlay_changesets WHERE id = $1 FOR UPDATE`, changesetID).Scan(&status); err != nil {
		return err
	}
	if status != models.ChangesetDraft {
		return fmt.Errorf("changeset is %s: %w", status, repo.ErrConflict)
	}
	return nil
}

func (s *Store) UpsertNodePatch(ctx context.Context, changesetID uuid.UUID, nodeID string, in models.PatchInput) (*models.OverlayNodePatch, error) {
	row, err := s.upsertPatch(ctx, "overlay_node_patches", "node_id", changesetID, nodeID, in)
	if err != nil {
		return nil, wrap("upsert node patch", err)
	}
	return &models.OverlayNodePatch{TenantID: row.tenantID, ChangesetID: changesetID, NodeID: nodeID, Op: row.op, Patch: row.patch}, nil
}

func (s *Store) UpsertEdgePatch(ctx context.Context, changesetID uuid.UUID, edgeID string, in models.PatchInput) (*models.OverlayEdgePatch, error) {
	row, err := s.upsertPatch(ctx, "overlay_edge_patches", "edge_id", changesetID, edgeID, in)
	if err != nil {
		return nil, wrap("upsert edge patch", err)
	}
	return &models.OverlayEdgePatch{TenantID: row.tenantID, ChangesetID: changesetID, EdgeID: edgeID, Op: row.op, Patch: row.patch}, nil
}

func (s *Store) deletePatch(ctx context.Context, table, keyColumn string, changesetID uuid.UUID, key string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireDraft(ctx, tx, changesetID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE changeset_id = $1 AND %s = $2`, table, keyColumn), changesetID, key)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

func (s *Store) DeleteNodePatch(ctx context.Context, changesetID uuid.UUID, nodeID string) error {
	return wrap("delete node patch", s.deletePatch(ctx, "overlay_node_patches", "node_id", changesetID, nodeID))
}

func (s *Store) DeleteEdgePatch(ctx context.Context, changesetID uuid.UUID, edgeID string) error {
	return wrap("delete edge patch", s.deletePatch(ctx, "overlay_edge_patches", "edge_id", changesetID, edgeID))
}
