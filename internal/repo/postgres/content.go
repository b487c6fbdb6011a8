package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
)

const insightColumns = "id, tenant_id, workspace_id, severity, title, body, related_graph_ids, evidence_refs, generated_at"

func scanInsight(row pgx.Row) (*models.Insight, error) {
	var i models.Insight
	err := row.Scan(&i.ID, &i.TenantID, &i.WorkspaceID, &i.Severity, &i.Title, &i.Body,
		&i.RelatedGraphIDs, &i.EvidenceRefs, &i.GeneratedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *Store) CreateInsight(ctx context.Context, in models.InsightInput) (*models.Insight, error) {
	related := in.RelatedGraphIDs
	if related == nil {
		related = []string{}
	}
	var i *models.Insight
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "workspaces", "workspaceId", in.WorkspaceID); err != nil {
			return err
		}
		var err error
		i, err = scanInsight(tx.QueryRow(ctx,
			`INSERT INTO insights (workspace_id, severity, title, body, related_graph_ids, evidence_refs)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+insightColumns,
			in.WorkspaceID, in.Severity, in.Title, in.Body, related, jsonArg(in.EvidenceRefs)))
		return err
	})
	return i, wrap("create insight", err)
}

func (s *Store) GetInsight(ctx context.Context, id uuid.UUID) (*models.Insight, error) {
	i, err := scanInsight(s.pool.QueryRow(ctx, `SELECT `+insightColumns+` FROM insights WHERE id = $1`, id))
	return i, wrap("get insight", err)
}

// ListInsights lists a workspace's insights, or all of the tenant's when
// workspaceID is nil.
func (s *Store) ListInsights(ctx context.Context, workspaceID *uuid.UUID, page repo.Page) ([]*models.Insight, error) {
	limit, offset := pageArgs(page)
	rows, err := s.pool.Query(ctx,
		`SELECT `+insightColumns+` FROM insights
		 WHERE $1::uuid IS NULL OR workspace_id = $1
		 ORDER BY generated_at DESC, id LIMIT $2 OFFSET $3`, workspaceID, limit, offset)
	if err != nil {
		return nil, wrap("list insights", err)
	}
	insights, err := collect(rows, scanInsight)
	return insights, wrap("list insights", err)
}

func (s *Store) DeleteInsight(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM insights WHERE id = $1`, id)
	return expectRow("delete insight", tag, err)
}

const noteColumns = "id, tenant_id, workspace_id, title, content, created_by, created_at, last_edit"

func scanNote(row pgx.Row) (*models.ScratchpadNote, error) {
	var n models.ScratchpadNote
	err := row.Scan(&n.ID, &n.TenantID, &n.WorkspaceID, &n.Title, &n.Content, &n.CreatedBy, &n.CreatedAt, &n.LastEdit)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Store) CreateNote(ctx context.Context, workspaceID uuid.UUID, in models.NoteInput) (*models.ScratchpadNote, error) {
	var n *models.ScratchpadNote
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "users", "createdBy", in.CreatedBy); err != nil {
			return err
		}
		var err error
		n, err = scanNote(tx.QueryRow(ctx,
			`INSERT INTO scratchpad_notes (workspace_id, title, content, created_by)
			 SELECT w.id, $2, $3, $4::uuid FROM workspaces w WHERE w.id = $1
			 RETURNING `+noteColumns, workspaceID, in.Title, in.Content, in.CreatedBy))
		return err
	})
	return n, wrap("create note", err)
}

func (s *Store) GetNote(ctx context.Context, id uuid.UUID) (*models.ScratchpadNote, error) {
	n, err := scanNote(s.pool.QueryRow(ctx, `SELECT `+noteColumns+` FROM scratchpad_notes WHERE id = $1`, id))
	return n, wrap("get note", err)
}

func (s *Store) ListNotes(ctx context.Context, workspaceID uuid.UUID) ([]*models.ScratchpadNote, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+noteColumns+` FROM scratchpad_notes WHERE workspace_id = $1 ORDER BY last_edit DESC, id`, workspaceID)
	if err != nil {
		return nil, wrap("list notes", err)
	}
	notes, err := collect(rows, scanNote)
	return notes, wrap("list notes", err)
}

func (s *Store) UpdateNote(ctx context.Context, id uuid.UUID, patch models.NotePatch) (*models.ScratchpadNote, error) {
	var u updateSet
	if patch.Title != nil {
		u.set("title", *patch.Title)
	}
	if patch.Content != nil {
		u.set("content", *patch.Content)
	}
	if u.empty() {
		return s.GetNote(ctx, id)
	}
	u.setRaw("last_edit = now()")
	where := u.arg(id)
	n, err := scanNote(s.pool.QueryRow(ctx,
		`UPDATE scratchpad_notes SET `+u.String()+` WHERE id = `+where+` RETURNING `+noteColumns, u.args...))
	return n, wrap("update note", err)
}

func (s *Store) DeleteNote(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scratchpad_notes WHERE id = $1`, id)
	return expectRow("delete note", tag, err)
}

const attachmentColumns = `id, tenant_id, workspace_id, uri, filename, content_type, size_bytes,
	processing_status, processing_error, uploaded_by, created_at, updated_at`

func scanAttachment(row pgx.Row) (*models.ScratchpadAttachment, error) {
	var a models.ScratchpadAttachment
	err := row.Scan(&a.ID, &a.TenantID, &a.WorkspaceID, &a.URI, &a.Filename, &a.ContentType, &a.SizeBytes,
		&a.ProcessingStatus, &a.ProcessingError, &a.UploadedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) CreateAttachment(ctx context.Context, workspaceID uuid.UUID, in models.AttachmentInput) (*models.ScratchpadAttachment, error) {
	var a *models.ScratchpadAttachment
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "users", "uploadedBy", in.UploadedBy); err != nil {
			return err
		}
		var err error
		a, err = scanAttachment(tx.QueryRow(ctx,
			`INSERT INTO scratchpad_attachments (workspace_id, uri, filename, content_type, size_bytes, uploaded_by)
			 SELECT w.id, $2, $3, $4, $5::bigint, $6::uuid FROM workspaces w WHERE w.id = $1
			 RETURNING `+attachmentColumns,
			workspaceID, in.URI, in.Filename, in.ContentType, in.SizeBytes, in.UploadedBy))
		return err
	})
	return a, wrap("create attachment", err)
}

func (s *Store) GetAttachment(ctx context.Context, id uuid.UUID) (*models.ScratchpadAttachment, error) {
	a, err := scanAttachment(s.pool.QueryRow(ctx, `SELECT `+attachmentColumns+` FROM scratchpad_attachments WHERE id = $1`, id))
	return a, wrap("get attachment", err)
}

func (s *Store) ListAttachments(ctx context.Context, workspaceID uuid.UUID) ([]*models.ScratchpadAttachment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+attachmentColumns+` FROM scratchpad_attachments WHERE workspace_id = $1 ORDER BY created_at, id`, workspaceID)
	if err != nil {
		return nil, wrap("list attachments", err)
	}
	attachments, err := collect(rows, scanAttachment)
	return attachments, wrap("list attachments", err)
}

// UpdateAttachmentProcessing records a pipeline status change reported by
// the external indexer. Leaving the failed state clears the error text.
func (s *Store) UpdateAttachmentProcessing(ctx context.Context, id uuid.UUID, from models.ProcessingStatus, u models.ProcessingUpdate) (*models.ScratchpadAttachment, error) {
	var a *models.ScratchpadAttachment
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var errText *string
		if u.Status == models.ProcessingFailed {
			errText = u.Error
		}
		var err error
		a, err = scanAttachment(tx.QueryRow(ctx,
			`UPDATE scratchpad_attachments
			 SET processing_status = $3, processing_error = $4, updated_at = now()
			 WHERE id = $1 AND processing_status = $2
			 RETURNING `+attachmentColumns, id, from, u.Status, errText))
		if errors.Is(err, pgx.ErrNoRows) {
			return staleOrMissing(ctx, tx, "scratchpad_attachments", id)
		}
		return err
	})
	return a, wrap("update attachment processing", err)
}

func (s *Store) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scratchpad_attachments WHERE id = $1`, id)
	return expectRow("delete attachment", tag, err)
}

const analysisColumns = "id, tenant_id, workspace_id, version, title, content, run_id, created_at"

func scanAnalysis(row pgx.Row) (*models.WorkspaceAnalysis, error) {
	var a models.WorkspaceAnalysis
	err := row.Scan(&a.ID, &a.TenantID, &a.WorkspaceID, &a.Version, &a.Title, &a.Content, &a.RunID, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAnalysis appends version max+1. The workspace row is locked so that
// concurrent appends serialize instead of colliding on the unique version.
func (s *Store) CreateAnalysis(ctx context.Context, workspaceID uuid.UUID, in models.AnalysisInput) (*models.WorkspaceAnalysis, error) {
	var a *models.WorkspaceAnalysis
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM workspaces WHERE id = $1 FOR UPDATE`, workspaceID).Scan(&locked); err != nil {
			return err
		}
		if err := requireVisible(ctx, tx, "scenario_runs", "runId", in.RunID); err != nil {
			return err
		}
		var err error
		a, err = scanAnalysis(tx.QueryRow(ctx,
			`INSERT INTO workspace_analyses (workspace_id, version, title, content, run_id)
			 SELECT $1, COALESCE(MAX(version), 0) + 1, $2, $3, $4::uuid
			 FROM workspace_analyses WHERE workspace_id = $1
			 RETURNING `+analysisColumns, workspaceID, in.Title, in.Content, in.RunID))
		return err
	})
	return a, wrap("create workspace analysis", err)
}

func (s *Store) GetAnalysis(ctx context.Context, id uuid.UUID) (*models.WorkspaceAnalysis, error) {
	a, err := scanAnalysis(s.pool.QueryRow(ctx, `SELECT `+analysisColumns+` FROM workspace_analyses WHERE id = $1`, id))
	return a, wrap("get workspace analysis", err)
}

func (s *Store) ListAnalyses(ctx context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceAnalysis, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+analysisColumns+` FROM workspace_analyses WHERE workspace_id = $1 ORDER BY version DESC`, workspaceID)
	if err != nil {
		return nil, wrap("list workspace analyses", err)
	}
	analyses, err := collect(rows, scanAnalysis)
	return analyses, wrap("list workspace analyses", err)
}

func (s *Store) AddAnalysisMetric(ctx context.Context, analysisID uuid.UUID, in models.MetricInput) (*models.Metric, error) {
	m, err := s.insertMetric(ctx, "workspace_analysis_metrics", "workspace_analyses", "analysis_id", analysisID, in)
	return m, wrap("add analysis metric", err)
}

func (s *Store) ListAnalysisMetrics(ctx context.Context, analysisID uuid.UUID) ([]*models.Metric, error) {
	metrics, err := s.listMetrics(ctx, "workspace_analysis_metrics", "analysis_id", analysisID)
	return metrics, wrap("list analysis metrics", err)
}

const teamColumns = "id, tenant_id, workspace_id, name, description, created_at, updated_at"

func scanTeam(row pgx.Row) (*models.AITeam, error) {
	var t models.AITeam
	if err := row.Scan(&t.ID, &t.TenantID, &t.WorkspaceID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Members = []models.AITeamMember{}
	return &t, nil
}

const teamMemberColumns = `id, tenant_id, team_id, name, role, model, temperature, max_tokens, tools, expertise,
	communication_style, system_prompt, position, created_at`

func scanTeamMember(row pgx.Row) (*models.AITeamMember, error) {
	var m models.AITeamMember
	err := row.Scan(&m.ID, &m.TenantID, &m.TeamID, &m.Name, &m.Role, &m.Model, &m.Temperature, &m.MaxTokens,
		&m.Tools, &m.Expertise, &m.CommunicationStyle, &m.SystemPrompt, &m.Position, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpsertAITeam creates the workspace's team or renames the existing one.
func (s *Store) UpsertAITeam(ctx context.Context, workspaceID uuid.UUID, in models.AITeamInput) (*models.AITeam, error) {
	t, err := scanTeam(s.pool.QueryRow(ctx,
		`INSERT INTO ai_teams (workspace_id, name, description)
		 SELECT w.id, $2, $3 FROM workspaces w WHERE w.id = $1
		 ON CONFLICT (workspace_id) DO UPDATE
		 SET name = EXCLUDED.name, description = EXCLUDED.description, updated_at = now()
		 RETURNING `+teamColumns, workspaceID, in.Name, in.Description))
	if err != nil {
		return nil, wrap("upsert ai team", err)
	}
	return s.GetAITeam(ctx, t.WorkspaceID)
}

func (s *Store) GetAITeam(ctx context.Context, workspaceID uuid.UUID) (*models.AITeam, error) {
	var t *models.AITeam
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		t, err = scanTeam(tx.QueryRow(ctx, `SELECT `+teamColumns+` FROM ai_teams WHERE workspace_id = $1`, workspaceID))
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx,
			`SELECT `+teamMemberColumns+` FROM ai_team_members WHERE team_id = $1 ORDER BY position, created_at`, t.ID)
		if err != nil {
			return err
		}
		members, err := collect(rows, scanTeamMember)
		if err != nil {
			return err
		}
		for _, m := range members {
			t.Members = append(t.Members, *m)
		}
		return nil
	})
	return t, wrap("get ai team", err)
}

func (s *Store) DeleteAITeam(ctx context.Context, workspaceID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ai_teams WHERE workspace_id = $1`, workspaceID)
	return expectRow("delete ai team", tag, err)
}

func memberArrays(in models.AITeamMemberInput) ([]string, []string) {
	tools, expertise := in.Tools, in.Expertise
	if tools == nil {
		tools = []string{}
	}
	if expertise == nil {
		expertise = []string{}
	}
	return tools, expertise
}

func (s *Store) AddAITeamMember(ctx context.Context, teamID uuid.UUID, in models.AITeamMemberInput) (*models.AITeamMember, error) {
	tools, expertise := memberArrays(in)
	m, err := scanTeamMember(s.pool.QueryRow(ctx,
		`INSERT INTO ai_team_members (team_id, name, role, model, temperature, max_tokens, tools, expertise,
		     communication_style, system_prompt, position)
		 SELECT t.id, $2, $3, $4, $5::double precision, $6::integer, $7::text[], $8::text[], $9, $10, $11::integer
		 FROM ai_teams t WHERE t.id = $1
		 RETURNING `+teamMemberColumns,
		teamID, in.Name, in.Role, in.Model, in.Temperature, in.MaxTokens, tools, expertise,
		in.CommunicationStyle, in.SystemPrompt, in.Position))
	return m, wrap("add ai team member", err)
}

func (s *Store) UpdateAITeamMember(ctx context.Context, memberID uuid.UUID, in models.AITeamMemberInput) (*models.AITeamMember, error) {
	tools, expertise := memberArrays(in)
	m, err := scanTeamMember(s.pool.QueryRow(ctx,
		`UPDATE ai_team_members SET name = $2, role = $3, model = $4, temperature = $5, max_tokens = $6,
		     tools = $7, expertise = $8, communication_style = $9, system_prompt = $10, position = $11
		 WHERE id = $1 RETURNING `+teamMemberColumns,
		memberID, in.Name, in.Role, in.Model, in.Temperature, in.MaxTokens, tools, expertise,
		in.CommunicationStyle, in.SystemPrompt, in.Position))
	return m, wrap("update ai team member", err)
}

func (s *Store) RemoveAITeamMember(ctx context.Context, memberID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ai_team_members WHERE id = $1`, memberID)
	return expectRow("remove ai team member", tag, err)
}
