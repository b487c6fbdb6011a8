package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/theo-core/internal/models"
)

// POST /api/v1/insights
func (h *CollaborationHandler) CreateInsight(c *gin.Context) {
	var in models.InsightInput
	if !bindJSON(c, &in) {
		return
	}
	i, err := h.svc.CreateInsight(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, i)
}

func (h *CollaborationHandler) GetInsight(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	i, err := h.svc.GetInsight(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, i)
}

// GET /api/v1/insights?workspaceId=
func (h *CollaborationHandler) ListInsights(c *gin.Context) {
	workspaceID, ok := queryUUID(c, "workspaceId")
	if !ok {
		return
	}
	page, ok := queryPage(c)
	if !ok {
		return
	}
	is, err := h.svc.ListInsights(c.Request.Context(), workspaceID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, is)
}

func (h *CollaborationHandler) DeleteInsight(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteInsight(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// POST /api/v1/workspaces/:id/notes
func (h *CollaborationHandler) CreateNote(c *gin.Context) {
	workspaceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.NoteInput
	if !bindJSON(c, &in) {
		return
	}
	n, err := h.svc.CreateNote(c.Request.Context(), workspaceID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, n)
}

func (h *CollaborationHandler) ListNotes(c *gin.Context) {
	workspaceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ns, err := h.svc.ListNotes(c.Request.Context(), workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ns)
}

func (h *CollaborationHandler) GetNote(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	n, err := h.svc.GetNote(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, n)
}

func (h *CollaborationHandler) UpdateNote(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var patch models.NotePatch
	if !bindJSON(c, &patch) {
		return
	}
	n, err := h.svc.UpdateNote(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, n)
}

func (h *CollaborationHandler) DeleteNote(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteNote(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// POST /api/v1/workspaces/:id/attachments registers an uploaded object; the
// bytes live in external object storage.
func (h *CollaborationHandler) CreateAttachment(c *gin.Context) {
	workspaceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.AttachmentInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.svc.CreateAttachment(c.Request.Context(), workspaceID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, a)
}

func (h *CollaborationHandler) ListAttachments(c *gin.Context) {
	workspaceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	as, err := h.svc.ListAttachments(c.Request.Context(), workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, as)
}

func (h *CollaborationHandler) GetAttachment(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.GetAttachment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, a)
}

// POST /api/v1/attachments/:id/processing
func (h *CollaborationHandler) UpdateProcessing(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var u models.ProcessingUpdate
	if !bindJSON(c, &u) {
		return
	}
	a, err := h.svc.UpdateProcessing(c.Request.Context(), id, u)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, a)
}

func (h *CollaborationHandler) DeleteAttachment(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteAttachment(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// POST /api/v1/workspaces/:id/analyses
func (h *CollaborationHandler) CreateAnalysis(c *gin.Context) {
	workspaceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.AnalysisInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.svc.CreateAnalysis(c.Request.Context(), workspaceID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, a)
}

func (h *CollaborationHandler) ListAnalyses(c *gin.Context) {
	workspaceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	as, err := h.svc.ListAnalyses(c.Request.Context(), workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, as)
}

func (h *CollaborationHandler) GetAnalysis(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.GetAnalysis(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, a)
}

func (h *CollaborationHandler) AddAnalysisMetric(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.MetricInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.svc.AddAnalysisMetric(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, m)
}

func (h *CollaborationHandler) ListAnalysisMetrics(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ms, err := h.svc.ListAnalysisMetrics(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ms)
}

// PUT /api/v1/workspaces/:id/ai-team
func (h *CollaborationHandler) UpsertAITeam(c *gin.Context) {
	workspaceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.AITeamInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.svc.UpsertAITeam(c.Request.Context(), workspaceID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, t)
}

func (h *CollaborationHandler) GetAITeam(c *gin.Context) {
	workspaceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.GetAITeam(c.Request.Context(), workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, t)
}

func (h *CollaborationHandler) DeleteAITeam(c *gin.Context) {
	workspaceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteAITeam(c.Request.Context(), workspaceID); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// POST /api/v1/workspaces/:id/ai-team/members
func (h *CollaborationHandler) AddAITeamMember(c *gin.Context) {
	workspaceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.AITeamMemberInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.svc.AddAITeamMember(c.Request.Context(), workspaceID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, m)
}

func (h *CollaborationHandler) UpdateAITeamMember(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.AITeamMemberInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.svc.UpdateAITeamMember(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, m)
}

func (h *CollaborationHandler) RemoveAITeamMember(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.RemoveAITeamMember(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}
