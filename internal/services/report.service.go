package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

// ReportService manages versioned templates and the reports built from them.
type ReportService struct {
	store  repo.ReportStore
	logger logger.Logger
}

func NewReportService(store repo.ReportStore, log logger.Logger) *ReportService {
	return &ReportService{store: store, logger: log}
}

func (s *ReportService) CreateTemplate(ctx context.Context, def models.TemplateDefinition) (*models.ReportTemplate, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	t, err := s.store.CreateTemplate(ctx, def)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Report template created", "template_id", t.ID, "name", t.Name)
	return t, nil
}

// CreateTemplateVersion appends a new version; existing versions never change.
func (s *ReportService) CreateTemplateVersion(ctx context.Context, id uuid.UUID, def models.TemplateDefinition) (*models.ReportTemplate, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	t, err := s.store.CreateTemplateVersion(ctx, id, def)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Report template version created", "template_id", t.ID, "version", t.Version)
	return t, nil
}

// GetTemplate loads a version; 0 selects the latest.
func (s *ReportService) GetTemplate(ctx context.Context, id uuid.UUID, version int) (*models.ReportTemplate, error) {
	if version < 0 {
		return nil, &models.ValidationError{Field: "version", Message: "must be positive"}
	}
	return s.store.GetTemplate(ctx, id, version)
}

func (s *ReportService) ListTemplates(ctx context.Context) ([]*models.ReportTemplate, error) {
	return s.store.ListTemplates(ctx)
}

func (s *ReportService) ListTemplateVersions(ctx context.Context, id uuid.UUID) ([]*models.ReportTemplate, error) {
	return s.store.ListTemplateVersions(ctx, id)
}

func (s *ReportService) CreateReport(ctx context.Context, in models.ReportInput) (*models.Report, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	r, err := s.store.CreateReport(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Report created", "report_id", r.ID, "mirrored", in.Mirror)
	return r, nil
}

func (s *ReportService) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	return s.store.GetReport(ctx, id)
}

func (s *ReportService) ListReports(ctx context.Context, filter repo.ReportFilter) ([]*models.Report, error) {
	filter.Page = filter.Page.Normalize()
	return s.store.ListReports(ctx, filter)
}

func (s *ReportService) UpdateReport(ctx context.Context, id uuid.UUID, patch models.ReportPatch) (*models.Report, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Title == nil && patch.Status == nil {
		return s.store.GetReport(ctx, id)
	}
	return s.store.UpdateReport(ctx, id, patch)
}

// SetGenerationRun links the run generating the report. A nil runID records
// that generation was cancelled.
func (s *ReportService) SetGenerationRun(ctx context.Context, id uuid.UUID, runID *uuid.UUID) (*models.Report, error) {
	r, err := s.store.SetReportGenerationRun(ctx, id, runID)
	if err != nil {
		return nil, err
	}
	if runID == nil {
		s.logger.Info("Report generation cleared", "report_id", id)
	} else {
		s.logger.Info("Report generation linked", "report_id", id, "run_id", *runID)
	}
	return r, nil
}

func (s *ReportService) DeleteReport(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteReport(ctx, id)
}

func (s *ReportService) AddSection(ctx context.Context, reportID uuid.UUID, in models.ReportSectionInput) (*models.ReportSection, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.AddReportSection(ctx, reportID, in)
}

func (s *ReportService) DeleteSection(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteReportSection(ctx, id)
}

func (s *ReportService) AddBlock(ctx context.Context, sectionID uuid.UUID, in models.ReportBlockInput) (*models.ReportBlock, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.AddReportBlock(ctx, sectionID, in)
}

func (s *ReportService) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteReportBlock(ctx, id)
}

// SetBlockContent decodes raw as the variant named by blockType and stores
// it. The store rejects a variant that differs from the block's own type.
func (s *ReportService) SetBlockContent(ctx context.Context, blockID uuid.UUID, blockType models.BlockType, raw json.RawMessage) (*models.ReportBlock, error) {
	content, err := models.DecodeBlockContent(blockType, raw)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateBlockContent(blockType, content); err != nil {
		return nil, err
	}
	return s.store.SetBlockContent(ctx, blockID, content)
}

func (s *ReportService) AddSource(ctx context.Context, reportID uuid.UUID, in models.SourceInput) (*models.Source, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.AddSource(ctx, reportID, in)
}

func (s *ReportService) ListSources(ctx context.Context, reportID uuid.UUID) ([]*models.Source, error) {
	return s.store.ListSources(ctx, reportID)
}

func (s *ReportService) DeleteSource(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteSource(ctx, id)
}
