package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
)

const templateColumns = "id, version, tenant_id, name, description, created_at"

func scanTemplate(row pgx.Row) (*models.ReportTemplate, error) {
	var t models.ReportTemplate
	if err := row.Scan(&t.ID, &t.Version, &t.TenantID, &t.Name, &t.Description, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Sections = []models.TemplateSection{}
	return &t, nil
}

const templateSectionColumns = "id, tenant_id, template_id, template_version, position, title, section_type, semantic_definition"

func scanTemplateSection(row pgx.Row) (*models.TemplateSection, error) {
	var s models.TemplateSection
	err := row.Scan(&s.ID, &s.TenantID, &s.TemplateID, &s.TemplateVersion, &s.Position, &s.Title, &s.SectionType, &s.SemanticDefinition)
	if err != nil {
		return nil, err
	}
	s.Blocks = []models.TemplateBlock{}
	return &s, nil
}

const templateBlockColumns = "b.id, b.tenant_id, b.section_id, b.position, b.block_type, b.layout_hints, b.semantic_definition"

func scanTemplateBlock(row pgx.Row) (*models.TemplateBlock, error) {
	var b models.TemplateBlock
	err := row.Scan(&b.ID, &b.TenantID, &b.SectionID, &b.Position, &b.BlockType, &b.LayoutHints, &b.SemanticDefinition)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// insertTemplateVersion writes one template version with its sections and
// blocks. Positions follow definition order.
func insertTemplateVersion(ctx context.Context, q querier, id uuid.UUID, version int, def models.TemplateDefinition) (*models.ReportTemplate, error) {
	t, err := scanTemplate(q.QueryRow(ctx,
		`INSERT INTO report_templates (id, version, name, description) VALUES ($1, $2, $3, $4)
		 RETURNING `+templateColumns, id, version, def.Name, def.Description))
	if err != nil {
		return nil, err
	}
	for i, sd := range def.Sections {
		sec, err := scanTemplateSection(q.QueryRow(ctx,
			`INSERT INTO report_template_sections (template_id, template_version, position, title, section_type, semantic_definition)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+templateSectionColumns,
			id, version, i, sd.Title, sd.SectionType, jsonArg(sd.SemanticDefinition)))
		if err != nil {
			return nil, err
		}
		for j, bd := range sd.Blocks {
			b, err := scanTemplateBlock(q.QueryRow(ctx,
				`INSERT INTO report_template_blocks AS b (section_id, position, block_type, layout_hints, semantic_definition)
				 VALUES ($1, $2, $3, $4, $5) RETURNING `+templateBlockColumns,
				sec.ID, j, bd.BlockType, jsonArg(bd.LayoutHints), jsonArg(bd.SemanticDefinition)))
			if err != nil {
				return nil, err
			}
			sec.Blocks = append(sec.Blocks, *b)
		}
		t.Sections = append(t.Sections, *sec)
	}
	return t, nil
}

func (s *Store) CreateTemplate(ctx context.Context, def models.TemplateDefinition) (*models.ReportTemplate, error) {
	var t *models.ReportTemplate
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		t, err = insertTemplateVersion(ctx, tx, uuid.New(), 1, def)
		return err
	})
	return t, wrap("create report template", err)
}

// CreateTemplateVersion appends the next version. Two concurrent appends
// race on the (id, version) key and the loser gets ErrConflict.
func (s *Store) CreateTemplateVersion(ctx context.Context, templateID uuid.UUID, def models.TemplateDefinition) (*models.ReportTemplate, error) {
	var t *models.ReportTemplate
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var latest int
		err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(version), 0) FROM report_templates WHERE id = $1`, templateID).Scan(&latest)
		if err != nil {
			return err
		}
		if latest == 0 {
			return repo.ErrNotFound
		}
		t, err = insertTemplateVersion(ctx, tx, templateID, latest+1, def)
		return err
	})
	return t, wrap("create report template version", err)
}

func loadTemplate(ctx context.Context, q querier, templateID uuid.UUID, version int) (*models.ReportTemplate, error) {
	t, err := scanTemplate(q.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM report_templates
		 WHERE id = $1 AND ($2 = 0 OR version = $2)
		 ORDER BY version DESC LIMIT 1`, templateID, version))
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx,
		`SELECT `+templateSectionColumns+` FROM report_template_sections
		 WHERE template_id = $1 AND template_version = $2 ORDER BY position, id`, t.ID, t.Version)
	if err != nil {
		return nil, err
	}
	sections, err := collect(rows, scanTemplateSection)
	if err != nil {
		return nil, err
	}
	rows, err = q.Query(ctx,
		`SELECT `+templateBlockColumns+` FROM report_template_blocks b
		 JOIN report_template_sections s ON s.id = b.section_id
		 WHERE s.template_id = $1 AND s.template_version = $2
		 ORDER BY b.position, b.id`, t.ID, t.Version)
	if err != nil {
		return nil, err
	}
	blocks, err := collect(rows, scanTemplateBlock)
	if err != nil {
		return nil, err
	}
	index := make(map[uuid.UUID]*models.TemplateSection, len(sections))
	for _, sec := range sections {
		index[sec.ID] = sec
	}
	for _, b := range blocks {
		if sec, ok := index[b.SectionID]; ok {
			sec.Blocks = append(sec.Blocks, *b)
		}
	}
	for _, sec := range sections {
		t.Sections = append(t.Sections, *sec)
	}
	return t, nil
}

func (s *Store) GetTemplate(ctx context.Context, templateID uuid.UUID, version int) (*models.ReportTemplate, error) {
	var t *models.ReportTemplate
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		t, err = loadTemplate(ctx, tx, templateID, version)
		return err
	})
	return t, wrap("get report template", err)
}

// ListTemplates returns the latest version of each template, without
// sections.
func (s *Store) ListTemplates(ctx context.Context) ([]*models.ReportTemplate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+templateColumns+` FROM (
		     SELECT DISTINCT ON (id) `+templateColumns+` FROM report_templates ORDER BY id, version DESC
		 ) latest ORDER BY name, id`)
	if err != nil {
		return nil, wrap("list report templates", err)
	}
	templates, err := collect(rows, scanTemplate)
	return templates, wrap("list report templates", err)
}

func (s *Store) ListTemplateVersions(ctx context.Context, templateID uuid.UUID) ([]*models.ReportTemplate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+templateColumns+` FROM report_templates WHERE id = $1 ORDER BY version DESC`, templateID)
	if err != nil {
		return nil, wrap("list report template versions", err)
	}
	versions, err := collect(rows, scanTemplate)
	if err == nil && len(versions) == 0 {
		err = repo.ErrNotFound
	}
	return versions, wrap("list report template versions", err)
}

const reportColumns = `id, tenant_id, template_id, template_version, workspace_analysis_id, scenario_id,
	title, status, generation_run_id, created_at, updated_at`

func scanReport(row pgx.Row) (*models.Report, error) {
	var r models.Report
	err := row.Scan(&r.ID, &r.TenantID, &r.TemplateID, &r.TemplateVersion, &r.WorkspaceAnalysisID, &r.ScenarioID,
		&r.Title, &r.Status, &r.GenerationRunID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReport inserts the report and, when asked, mirrors the template's
// sections and blocks so the report starts with the template's skeleton.
func (s *Store) CreateReport(ctx context.Context, in models.ReportInput) (*models.Report, error) {
	var r *models.Report
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var tmpl *models.ReportTemplate
		if in.TemplateID != nil {
			var err error
			if tmpl, err = loadTemplate(ctx, tx, *in.TemplateID, *in.TemplateVersion); err != nil {
				return fmt.Errorf("templateId %s version %d: %w", in.TemplateID, *in.TemplateVersion, translate(err))
			}
			// version 0 resolved to the latest; store what was resolved.
			in.TemplateVersion = &tmpl.Version
		}
		if err := requireVisible(ctx, tx, "workspace_analyses", "workspaceAnalysisId", in.WorkspaceAnalysisID); err != nil {
			return err
		}
		if err := requireVisible(ctx, tx, "scenarios", "scenarioId", in.ScenarioID); err != nil {
			return err
		}
		var id uuid.UUID
		err := tx.QueryRow(ctx,
			`INSERT INTO reports (template_id, template_version, workspace_analysis_id, scenario_id, title)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			in.TemplateID, in.TemplateVersion, in.WorkspaceAnalysisID, in.ScenarioID, in.Title).Scan(&id)
		if err != nil {
			return err
		}
		if in.Mirror && tmpl != nil {
			if err := mirrorTemplate(ctx, tx, id, tmpl); err != nil {
				return err
			}
		}
		r, err = loadReport(ctx, tx, id)
		return err
	})
	return r, wrap("create report", err)
}

func mirrorTemplate(ctx context.Context, q querier, reportID uuid.UUID, tmpl *models.ReportTemplate) error {
	for _, ts := range tmpl.Sections {
		var sectionID uuid.UUID
		err := q.QueryRow(ctx,
			`INSERT INTO report_sections (report_id, template_section_id, position, title, section_type)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			reportID, ts.ID, ts.Position, ts.Title, ts.SectionType).Scan(&sectionID)
		if err != nil {
			return err
		}
		for _, tb := range ts.Blocks {
			_, err := q.Exec(ctx,
				`INSERT INTO report_blocks (section_id, template_block_id, position, block_type, layout_hints)
				 VALUES ($1, $2, $3, $4, $5)`,
				sectionID, tb.ID, tb.Position, tb.BlockType, jsonArg(tb.LayoutHints))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

const reportSectionColumns = "id, tenant_id, report_id, template_section_id, position, title, section_type"

func scanReportSection(row pgx.Row) (*models.ReportSection, error) {
	var sec models.ReportSection
	err := row.Scan(&sec.ID, &sec.TenantID, &sec.ReportID, &sec.TemplateSectionID, &sec.Position, &sec.Title, &sec.SectionType)
	if err != nil {
		return nil, err
	}
	sec.Blocks = []models.ReportBlock{}
	return &sec, nil
}

const reportBlockColumns = "b.id, b.tenant_id, b.section_id, b.template_block_id, b.position, b.block_type, b.layout_hints"

func scanReportBlock(row pgx.Row) (*models.ReportBlock, error) {
	var b models.ReportBlock
	err := row.Scan(&b.ID, &b.TenantID, &b.SectionID, &b.TemplateBlockID, &b.Position, &b.BlockType, &b.LayoutHints)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// loadBlockContent reads every payload variant for a report's blocks.
func loadBlockContent(ctx context.Context, q querier, reportID uuid.UUID) (map[uuid.UUID]models.BlockContent, error) {
	const scope = ` v JOIN report_blocks b ON b.id = v.block_id
		JOIN report_sections s ON s.id = b.section_id WHERE s.report_id = $1`
	content := make(map[uuid.UUID]models.BlockContent)
	variants := []struct {
		sql  string
		scan func(pgx.Rows) (uuid.UUID, models.BlockContent, error)
	}{
		{`SELECT v.block_id, v.content FROM report_block_rich_text`, func(r pgx.Rows) (uuid.UUID, models.BlockContent, error) {
			var id uuid.UUID
			var c models.RichTextContent
			err := r.Scan(&id, &c.Content)
			return id, c, err
		}},
		{`SELECT v.block_id, v.label, v.value, v.unit, v.trend FROM report_block_single_metric`, func(r pgx.Rows) (uuid.UUID, models.BlockContent, error) {
			var id uuid.UUID
			var c models.SingleMetricContent
			err := r.Scan(&id, &c.Label, &c.Value, &c.Unit, &c.Trend)
			return id, c, err
		}},
		{`SELECT v.block_id, v.metrics FROM report_block_multi_metric`, func(r pgx.Rows) (uuid.UUID, models.BlockContent, error) {
			var id uuid.UUID
			var c models.MultiMetricContent
			if err := r.Scan(&id, &c.Metrics); err != nil {
				return id, nil, err
			}
			if c.Metrics == nil {
				c.Metrics = []models.MetricPoint{}
			}
			return id, c, nil
		}},
		{`SELECT v.block_id, v.title, v.body, v.badge, v.severity FROM report_block_insight_card`, func(r pgx.Rows) (uuid.UUID, models.BlockContent, error) {
			var id uuid.UUID
			var c models.InsightCardContent
			err := r.Scan(&id, &c.Title, &c.Body, &c.Badge, &c.Severity)
			return id, c, err
		}},
	}
	for _, v := range variants {
		rows, err := q.Query(ctx, v.sql+scope, reportID)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			id, c, err := v.scan(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			content[id] = c
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return content, nil
}

func loadReport(ctx context.Context, q querier, id uuid.UUID) (*models.Report, error) {
	r, err := scanReport(q.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx,
		`SELECT `+reportSectionColumns+` FROM report_sections WHERE report_id = $1 ORDER BY position, id`, id)
	if err != nil {
		return nil, err
	}
	sections, err := collect(rows, scanReportSection)
	if err != nil {
		return nil, err
	}
	rows, err = q.Query(ctx,
		`SELECT `+reportBlockColumns+` FROM report_blocks b
		 JOIN report_sections s ON s.id = b.section_id
		 WHERE s.report_id = $1 ORDER BY b.position, b.id`, id)
	if err != nil {
		return nil, err
	}
	blocks, err := collect(rows, scanReportBlock)
	if err != nil {
		return nil, err
	}
	content, err := loadBlockContent(ctx, q, id)
	if err != nil {
		return nil, err
	}
	index := make(map[uuid.UUID]*models.ReportSection, len(sections))
	for _, sec := range sections {
		index[sec.ID] = sec
	}
	for _, b := range blocks {
		if c, ok := content[b.ID]; ok && c.BlockType() == b.BlockType {
			b.Content = c
		}
		if sec, ok := index[b.SectionID]; ok {
			sec.Blocks = append(sec.Blocks, *b)
		}
	}
	r.Sections = make([]models.ReportSection, 0, len(sections))
	for _, sec := range sections {
		r.Sections = append(r.Sections, *sec)
	}
	sources, err := listSources(ctx, q, id)
	if err != nil {
		return nil, err
	}
	r.Sources = make([]models.Source, 0, len(sources))
	for _, src := range sources {
		r.Sources = append(r.Sources, *src)
	}
	return r, nil
}

func (s *Store) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var r *models.Report
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		r, err = loadReport(ctx, tx, id)
		return err
	})
	return r, wrap("get report", err)
}

// ListReports returns report headers without sections or sources.
func (s *Store) ListReports(ctx context.Context, filter repo.ReportFilter) ([]*models.Report, error) {
	limit, offset := pageArgs(filter.Page)
	rows, err := s.pool.Query(ctx,
		`SELECT `+reportColumns+` FROM reports
		 WHERE ($1::uuid IS NULL OR workspace_analysis_id = $1)
		   AND ($2::uuid IS NULL OR scenario_id = $2)
		 ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`,
		filter.WorkspaceAnalysisID, filter.ScenarioID, limit, offset)
	if err != nil {
		return nil, wrap("list reports", err)
	}
	reports, err := collect(rows, scanReport)
	return reports, wrap("list reports", err)
}

func (s *Store) UpdateReport(ctx context.Context, id uuid.UUID, patch models.ReportPatch) (*models.Report, error) {
	var u updateSet
	if patch.Title != nil {
		u.set("title", *patch.Title)
	}
	if patch.Status != nil {
		u.set("status", *patch.Status)
	}
	if u.empty() {
		return s.GetReport(ctx, id)
	}
	u.setRaw("updated_at = now()")
	where := u.arg(id)
	r, err := scanReport(s.pool.QueryRow(ctx,
		`UPDATE reports SET `+u.String()+` WHERE id = `+where+` RETURNING `+reportColumns, u.args...))
	return r, wrap("update report", err)
}

// SetReportGenerationRun links the run that generated the report; nil unlinks.
func (s *Store) SetReportGenerationRun(ctx context.Context, id uuid.UUID, runID *uuid.UUID) (*models.Report, error) {
	var r *models.Report
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "scenario_runs", "runId", runID); err != nil {
			return err
		}
		var err error
		r, err = scanReport(tx.QueryRow(ctx,
			`UPDATE reports SET generation_run_id = $2, updated_at = now() WHERE id = $1 RETURNING `+reportColumns,
			id, runID))
		return err
	})
	return r, wrap("set report generation run", err)
}

func (s *Store) DeleteReport(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	return expectRow("delete report", tag, err)
}

func (s *Store) AddReportSection(ctx context.Context, reportID uuid.UUID, in models.ReportSectionInput) (*models.ReportSection, error) {
	var sec *models.ReportSection
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "report_template_sections", "templateSectionId", in.TemplateSectionID); err != nil {
			return err
		}
		var err error
		sec, err = scanReportSection(tx.QueryRow(ctx,
			`INSERT INTO report_sections (report_id, template_section_id, position, title, section_type)
			 SELECT r.id, $2::uuid, $3::integer, $4, $5 FROM reports r WHERE r.id = $1
			 RETURNING `+reportSectionColumns,
			reportID, in.TemplateSectionID, in.Position, in.Title, in.SectionType))
		return err
	})
	return sec, wrap("add report section", err)
}

func (s *Store) DeleteReportSection(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM report_sections WHERE id = $1`, id)
	return expectRow("delete report section", tag, err)
}

func (s *Store) AddReportBlock(ctx context.Context, sectionID uuid.UUID, in models.ReportBlockInput) (*models.ReportBlock, error) {
	var b *models.ReportBlock
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "report_template_blocks", "templateBlockId", in.TemplateBlockID); err != nil {
			return err
		}
		var err error
		b, err = scanReportBlock(tx.QueryRow(ctx,
			`INSERT INTO report_blocks AS b (section_id, template_block_id, position, block_type, layout_hints)
			 SELECT s.id, $2::uuid, $3::integer, $4, $5::jsonb FROM report_sections s WHERE s.id = $1
			 RETURNING `+reportBlockColumns,
			sectionID, in.TemplateBlockID, in.Position, in.BlockType, jsonArg(in.LayoutHints)))
		return err
	})
	return b, wrap("add report block", err)
}

func (s *Store) DeleteReportBlock(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM report_blocks WHERE id = $1`, id)
	return expectRow("delete report block", tag, err)
}

// SetBlockContent upserts the payload row in the variant table matching the
// block's type.
func (s *Store) SetBlockContent(ctx context.Context, blockID uuid.UUID, content models.BlockContent) (*models.ReportBlock, error) {
	var b *models.ReportBlock
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		b, err = scanReportBlock(tx.QueryRow(ctx,
			`SELECT `+reportBlockColumns+` FROM report_blocks b WHERE b.id = $1 FOR UPDATE`, blockID))
		if err != nil {
			return err
		}
		if err := models.ValidateBlockContent(b.BlockType, content); err != nil {
			return err
		}
		switch c := content.(type) {
		case models.RichTextContent:
			_, err = tx.Exec(ctx,
				`INSERT INTO report_block_rich_text (block_id, content) VALUES ($1, $2)
				 ON CONFLICT (block_id) DO UPDATE SET content = EXCLUDED.content`, blockID, c.Content)
		case models.SingleMetricContent:
			_, err = tx.Exec(ctx,
				`INSERT INTO report_block_single_metric (block_id, label, value, unit, trend) VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (block_id) DO UPDATE
				 SET label = EXCLUDED.label, value = EXCLUDED.value, unit = EXCLUDED.unit, trend = EXCLUDED.trend`,
				blockID, c.Label, c.Value, c.Unit, c.Trend)
		case models.MultiMetricContent:
			metrics := c.Metrics
			if metrics == nil {
				metrics = []models.MetricPoint{}
			}
			raw, merr := json.Marshal(metrics)
			if merr != nil {
				return merr
			}
			_, err = tx.Exec(ctx,
				`INSERT INTO report_block_multi_metric (block_id, metrics) VALUES ($1, $2)
				 ON CONFLICT (block_id) DO UPDATE SET metrics = EXCLUDED.metrics`, blockID, string(raw))
			c.Metrics = metrics
			content = c
		case models.InsightCardContent:
			_, err = tx.Exec(ctx,
				`INSERT INTO report_block_insight_card (block_id, title, body, badge, severity) VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (block_id) DO UPDATE
				 SET title = EXCLUDED.title, body = EXCLUDED.body, badge = EXCLUDED.badge, severity = EXCLUDED.severity`,
				blockID, c.Title, c.Body, c.Badge, c.Severity)
		default:
			return fmt.Errorf("%w: unsupported block content %T", repo.ErrInvalid, content)
		}
		if err != nil {
			return err
		}
		b.Content = content
		return nil
	})
	return b, wrap("set block content", err)
}

const sourceColumns = "id, tenant_id, report_id, uri, title, description, metadata, created_at"

func scanSource(row pgx.Row) (*models.Source, error) {
	var src models.Source
	err := row.Scan(&src.ID, &src.TenantID, &src.ReportID, &src.URI, &src.Title, &src.Description, &src.Metadata, &src.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &src, nil
}

func (s *Store) AddSource(ctx context.Context, reportID uuid.UUID, in models.SourceInput) (*models.Source, error) {
	src, err := scanSource(s.pool.QueryRow(ctx,
		`INSERT INTO sources (report_id, uri, title, description, metadata)
		 SELECT r.id, $2, $3, $4, $5::jsonb FROM reports r WHERE r.id = $1
		 RETURNING `+sourceColumns, reportID, in.URI, in.Title, in.Description, jsonArg(in.Metadata)))
	return src, wrap("add source", err)
}

func listSources(ctx context.Context, q querier, reportID uuid.UUID) ([]*models.Source, error) {
	rows, err := q.Query(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE report_id = $1 ORDER BY created_at, id`, reportID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSource)
}

func (s *Store) ListSources(ctx context.Context, reportID uuid.UUID) ([]*models.Source, error) {
	sources, err := listSources(ctx, s.pool, reportID)
	return sources, wrap("list sources", err)
}

func (s *Store) DeleteSource(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	return expectRow("delete source", tag, err)
}
