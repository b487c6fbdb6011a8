package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/internal/services"
)

type ReportHandler struct {
	svc *services.ReportService
}

func NewReportHandler(svc *services.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// POST /api/v1/report-templates
func (h *ReportHandler) CreateTemplate(c *gin.Context) {
	var def models.TemplateDefinition
	if !bindJSON(c, &def) {
		return
	}
	t, err := h.svc.CreateTemplate(c.Request.Context(), def)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, t)
}

// POST /api/v1/report-templates/:id/versions
func (h *ReportHandler) CreateTemplateVersion(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var def models.TemplateDefinition
	if !bindJSON(c, &def) {
		return
	}
	t, err := h.svc.CreateTemplateVersion(c.Request.Context(), id, def)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, t)
}

// GET /api/v1/report-templates/:id?version=
func (h *ReportHandler) GetTemplate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	version, ok := queryInt(c, "version", 0)
	if !ok {
		return
	}
	t, err := h.svc.GetTemplate(c.Request.Context(), id, version)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, t)
}

func (h *ReportHandler) ListTemplates(c *gin.Context) {
	ts, err := h.svc.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ts)
}

func (h *ReportHandler) ListTemplateVersions(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ts, err := h.svc.ListTemplateVersions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ts)
}

// POST /api/v1/reports
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var in models.ReportInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.svc.CreateReport(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, r)
}

func (h *ReportHandler) GetReport(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	r, err := h.svc.GetReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

// GET /api/v1/reports?workspaceAnalysisId=&scenarioId=
func (h *ReportHandler) ListReports(c *gin.Context) {
	var f repo.ReportFilter
	var ok bool
	if f.WorkspaceAnalysisID, ok = queryUUID(c, "workspaceAnalysisId"); !ok {
		return
	}
	if f.ScenarioID, ok = queryUUID(c, "scenarioId"); !ok {
		return
	}
	if f.Page, ok = queryPage(c); !ok {
		return
	}
	rs, err := h.svc.ListReports(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, rs)
}

func (h *ReportHandler) UpdateReport(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var patch models.ReportPatch
	if !bindJSON(c, &patch) {
		return
	}
	r, err := h.svc.UpdateReport(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

type generationRequest struct {
	RunID *uuid.UUID `json:"runId"`
}

// PUT /api/v1/reports/:id/generation; a null runId clears the link.
func (h *ReportHandler) SetGenerationRun(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req generationRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.svc.SetGenerationRun(c.Request.Context(), id, req.RunID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

func (h *ReportHandler) DeleteReport(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteReport(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// POST /api/v1/reports/:id/sections
func (h *ReportHandler) AddSection(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.ReportSectionInput
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.svc.AddSection(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, s)
}

func (h *ReportHandler) DeleteSection(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteSection(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// POST /api/v1/report-sections/:id/blocks
func (h *ReportHandler) AddBlock(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.ReportBlockInput
	if !bindJSON(c, &in) {
		return
	}
	b, err := h.svc.AddBlock(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, b)
}

func (h *ReportHandler) DeleteBlock(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteBlock(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

type blockContentRequest struct {
	BlockType models.BlockType `json:"blockType"`
	Content   json.RawMessage  `json:"content"`
}

// PUT /api/v1/report-blocks/:id/content
func (h *ReportHandler) SetBlockContent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req blockContentRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.svc.SetBlockContent(c.Request.Context(), id, req.BlockType, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, b)
}

func (h *ReportHandler) AddSource(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.SourceInput
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.svc.AddSource(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, s)
}

func (h *ReportHandler) ListSources(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ss, err := h.svc.ListSources(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ss)
}

func (h *ReportHandler) DeleteSource(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteSource(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}
