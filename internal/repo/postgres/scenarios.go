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

const scenarioColumns = `id, tenant_id, workspace_id, name, description, overlay_changeset_id,
	created_by, created_at, updated_at`

func scanScenario(row pgx.Row) (*models.Scenario, error) {
	var sc models.Scenario
	err := row.Scan(&sc.ID, &sc.TenantID, &sc.WorkspaceID, &sc.Name, &sc.Description,
		&sc.OverlayChangesetID, &sc.CreatedBy, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Store) CreateScenario(ctx context.Context, workspaceID uuid.UUID, in models.ScenarioInput) (*models.Scenario, error) {
	var sc *models.Scenario
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "overlay_changesets", "overlayChangesetId", in.OverlayChangesetID); err != nil {
			return err
		}
		if err := requireVisible(ctx, tx, "users", "createdBy", in.CreatedBy); err != nil {
			return err
		}
		var err error
		sc, err = scanScenario(tx.QueryRow(ctx,
			`INSERT INTO scenarios (workspace_id, name, description, overlay_changeset_id, created_by)
			 SELECT w.id, $2, $3, $4::uuid, $5::uuid FROM workspaces w WHERE w.id = $1
			 RETURNING `+scenarioColumns,
			workspaceID, in.Name, in.Description, in.OverlayChangesetID, in.CreatedBy))
		return err
	})
	return sc, wrap("create scenario", err)
}

func (s *Store) GetScenario(ctx context.Context, id uuid.UUID) (*models.Scenario, error) {
	sc, err := scanScenario(s.pool.QueryRow(ctx, `SELECT `+scenarioColumns+` FROM scenarios WHERE id = $1`, id))
	return sc, wrap("get scenario", err)
}

func (s *Store) ListScenarios(ctx context.Context, workspaceID uuid.UUID) ([]*models.Scenario, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+scenarioColumns+` FROM scenarios WHERE workspace_id = $1 ORDER BY created_at, id`, workspaceID)
	if err != nil {
		return nil, wrap("list scenarios", err)
	}
	scenarios, err := collect(rows, scanScenario)
	return scenarios, wrap("list scenarios", err)
}

func (s *Store) UpdateScenario(ctx context.Context, id uuid.UUID, patch models.ScenarioPatch) (*models.Scenario, error) {
	var u updateSet
	if patch.Name != nil {
		u.set("name", *patch.Name)
	}
	if patch.Description != nil {
		u.set("description", *patch.Description)
	}
	if patch.OverlayChangesetID != nil {
		u.set("overlay_changeset_id", *patch.OverlayChangesetID)
	}
	if u.empty() {
		return s.GetScenario(ctx, id)
	}
	u.setRaw("updated_at = now()")
	where := u.arg(id)

	var sc *models.Scenario
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "overlay_changesets", "overlayChangesetId", patch.OverlayChangesetID); err != nil {
			return err
		}
		var err error
		sc, err = scanScenario(tx.QueryRow(ctx,
			`UPDATE scenarios SET `+u.String()+` WHERE id = `+where+` RETURNING `+scenarioColumns, u.args...))
		return err
	})
	return sc, wrap("update scenario", err)
}

func (s *Store) DeleteScenario(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scenarios WHERE id = $1`, id)
	return expectRow("delete scenario", tag, err)
}

const runColumns = `id, tenant_id, workspace_id, scenario_id, engine, title, prompt, inputs, outputs,
	status, error_message, created_at, started_at, finished_at`

func scanRun(row pgx.Row) (*models.ScenarioRun, error) {
	var r models.ScenarioRun
	err := row.Scan(&r.ID, &r.TenantID, &r.WorkspaceID, &r.ScenarioID, &r.Engine, &r.Title, &r.Prompt,
		&r.Inputs, &r.Outputs, &r.Status, &r.ErrorMessage, &r.CreatedAt, &r.StartedAt, &r.FinishedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// insertRun creates a queued run. The workspace must be visible and, when a
// scenario is named, the scenario must belong to that workspace.
func insertRun(ctx context.Context, q querier, in models.ScenarioRunInput) (*models.ScenarioRun, error) {
	engine := in.Engine
	if engine == "" {
		engine = models.DefaultEngine
	}
	return scanRun(q.QueryRow(ctx,
		`INSERT INTO scenario_runs (workspace_id, scenario_id, engine, title, prompt, inputs)
		 SELECT w.id, $2::uuid, $3, $4, $5, $6::jsonb FROM workspaces w
		 WHERE w.id = $1
		   AND ($2::uuid IS NULL OR EXISTS (
		       SELECT 1 FROM scenarios sc WHERE sc.id = $2 AND sc.workspace_id = w.id))
		 RETURNING `+runColumns,
		in.WorkspaceID, in.ScenarioID, engine, in.Title, in.Prompt, jsonArg(in.Inputs)))
}

func (s *Store) CreateRun(ctx context.Context, in models.ScenarioRunInput) (*models.ScenarioRun, error) {
	run, err := insertRun(ctx, s.pool, in)
	return run, wrap("create scenario run", err)
}

func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*models.ScenarioRun, error) {
	run, err := scanRun(s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM scenario_runs WHERE id = $1`, id))
	return run, wrap("get scenario run", err)
}

func (s *Store) ListRuns(ctx context.Context, filter repo.RunFilter) ([]*models.ScenarioRun, error) {
	var (
		conds []string
		args  []any
	)
	if filter.WorkspaceID != nil {
		args = append(args, *filter.WorkspaceID)
		conds = append(conds, fmt.Sprintf("workspace_id = $%d", len(args)))
	}
	if filter.ScenarioID != nil {
		args = append(args, *filter.ScenarioID)
		conds = append(conds, fmt.Sprintf("scenario_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + runColumns + ` FROM scenario_runs`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	limit, offset := pageArgs(filter.Page)
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list scenario runs", err)
	}
	runs, err := collect(rows, scanRun)
	return runs, wrap("list scenario runs", err)
}

// TransitionRun moves a run from one status to the next. started_at is set
// on entering running and finished_at on entering a terminal status.
func (s *Store) TransitionRun(ctx context.Context, id uuid.UUID, from models.RunStatus, t models.RunTransition) (*models.ScenarioRun, error) {
	var run *models.ScenarioRun
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		run, err = scanRun(tx.QueryRow(ctx,
			`UPDATE scenario_runs SET
			     status = $3,
			     outputs = COALESCE($4::jsonb, outputs),
			     error_message = COALESCE($5, error_message),
			     started_at = CASE WHEN $3 = 'running' THEN now() ELSE started_at END,
			     finished_at = CASE WHEN $6 THEN now() ELSE finished_at END
			 WHERE id = $1 AND status = $2
			 RETURNING `+runColumns,
			id, from, t.Status, jsonArg(t.Outputs), t.ErrorMessage, t.Status.Terminal()))
		if errors.Is(err, pgx.ErrNoRows) {
			return staleOrMissing(ctx, tx, "scenario_runs", id)
		}
		return err
	})
	return run, wrap("transition scenario run", err)
}

const runLogColumns = "id, tenant_id, run_id, event_type, event, created_at"

func scanRunLog(row pgx.Row) (*models.ScenarioRunLog, error) {
	var l models.ScenarioRunLog
	if err := row.Scan(&l.ID, &l.TenantID, &l.RunID, &l.EventType, &l.Event, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// AppendRunLog appends one event. Ids come from a sequence, so a run's log
// read in id order is its append order.
func (s *Store) AppendRunLog(ctx context.Context, runID uuid.UUID, in models.RunLogInput) (*models.ScenarioRunLog, error) {
	event := in.Event
	if len(event) == 0 {
		event = []byte("{}")
	}
	l, err := scanRunLog(s.pool.QueryRow(ctx,
		`INSERT INTO scenario_run_logs (run_id, event_type, event)
		 SELECT r.id, $2, $3::jsonb FROM scenario_runs r WHERE r.id = $1
		 RETURNING `+runLogColumns, runID, in.EventType, string(event)))
	return l, wrap("append run log", err)
}

func (s *Store) ListRunLogs(ctx context.Context, runID uuid.UUID, afterID int64, limit int) ([]*models.ScenarioRunLog, error) {
	limit, _ = pageArgs(repo.Page{Limit: limit})
	rows, err := s.pool.Query(ctx,
		`SELECT `+runLogColumns+` FROM scenario_run_logs
		 WHERE run_id = $1 AND id > $2 ORDER BY id LIMIT $3`, runID, afterID, limit)
	if err != nil {
		return nil, wrap("list run logs", err)
	}
	logs, err := collect(rows, scanRunLog)
	return logs, wrap("list run logs", err)
}

const metricColumns = "id, tenant_id, %s, name, value, unit, metadata, created_at"

func scanMetric(row pgx.Row) (*models.Metric, error) {
	var m models.Metric
	if err := row.Scan(&m.ID, &m.TenantID, &m.ParentID, &m.Name, &m.Value, &m.Unit, &m.Metadata, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// insertMetric adds a metric row under a visible parent.
func (s *Store) insertMetric(ctx context.Context, table, parentTable, parentColumn string, parentID uuid.UUID, in models.MetricInput) (*models.Metric, error) {
	cols := fmt.Sprintf(metricColumns, parentColumn)
	return scanMetric(s.pool.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, name, value, unit, metadata)
		 SELECT p.id, $2, $3::double precision, $4, $5::jsonb FROM %s p WHERE p.id = $1
		 RETURNING %s`, table, parentColumn, parentTable, cols),
		parentID, in.Name, in.Value, in.Unit, jsonArg(in.Metadata)))
}

func (s *Store) listMetrics(ctx context.Context, table, parentColumn string, parentID uuid.UUID) ([]*models.Metric, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY created_at, id`,
			fmt.Sprintf(metricColumns, parentColumn), table, parentColumn), parentID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanMetric)
}

func (s *Store) AddScenarioMetric(ctx context.Context, scenarioID uuid.UUID, in models.MetricInput) (*models.Metric, error) {
	m, err := s.insertMetric(ctx, "scenario_metrics", "scenarios", "scenario_id", scenarioID, in)
	return m, wrap("add scenario metric", err)
}

func (s *Store) ListScenarioMetrics(ctx context.Context, scenarioID uuid.UUID) ([]*models.Metric, error) {
	metrics, err := s.listMetrics(ctx, "scenario_metrics", "scenario_id", scenarioID)
	return metrics, wrap("list scenario metrics", err)
}
