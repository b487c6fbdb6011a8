package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/internal/services"
)

// CollaborationHandler serves the workspace collaboration surface: scenarios,
// runs and overlay changesets here, scratchpad content in scratchpad.handler.go.
type CollaborationHandler struct {
	svc *services.CollaborationService
}

func NewCollaborationHandler(svc *services.CollaborationService) *CollaborationHandler {
	return &CollaborationHandler{svc: svc}
}

// POST /api/v1/workspaces/:id/scenarios
func (h *CollaborationHandler) CreateScenario(c *gin.Context) {
	workspaceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.ScenarioInput
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.svc.CreateScenario(c.Request.Context(), workspaceID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, s)
}

func (h *CollaborationHandler) ListScenarios(c *gin.Context) {
	workspaceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ss, err := h.svc.ListScenarios(c.Request.Context(), workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ss)
}

func (h *CollaborationHandler) GetScenario(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	s, err := h.svc.GetScenario(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, s)
}

func (h *CollaborationHandler) UpdateScenario(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var patch models.ScenarioPatch
	if !bindJSON(c, &patch) {
		return
	}
	s, err := h.svc.UpdateScenario(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, s)
}

func (h *CollaborationHandler) DeleteScenario(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteScenario(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

func (h *CollaborationHandler) AddScenarioMetric(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.MetricInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.svc.AddScenarioMetric(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, m)
}

func (h *CollaborationHandler) ListScenarioMetrics(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ms, err := h.svc.ListScenarioMetrics(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ms)
}

// POST /api/v1/runs
func (h *CollaborationHandler) CreateRun(c *gin.Context) {
	var in models.ScenarioRunInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.svc.CreateRun(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, r)
}

func (h *CollaborationHandler) GetRun(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	r, err := h.svc.GetRun(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

// GET /api/v1/runs?workspaceId=&scenarioId=&status=
func (h *CollaborationHandler) ListRuns(c *gin.Context) {
	var f repo.RunFilter
	var ok bool
	if f.WorkspaceID, ok = queryUUID(c, "workspaceId"); !ok {
		return
	}
	if f.ScenarioID, ok = queryUUID(c, "scenarioId"); !ok {
		return
	}
	if v := c.Query("status"); v != "" {
		s := models.RunStatus(v)
		f.Status = &s
	}
	if f.Page, ok = queryPage(c); !ok {
		return
	}
	rs, err := h.svc.ListRuns(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, rs)
}

// POST /api/v1/runs/:id/transition
func (h *CollaborationHandler) TransitionRun(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var t models.RunTransition
	if !bindJSON(c, &t) {
		return
	}
	r, err := h.svc.TransitionRun(c.Request.Context(), id, t)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

func (h *CollaborationHandler) AppendRunLog(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.RunLogInput
	if !bindJSON(c, &in) {
		return
	}
	l, err := h.svc.AppendRunLog(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, l)
}

// GET /api/v1/runs/:id/logs?after=&limit=
func (h *CollaborationHandler) ListRunLogs(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var after int64
	if v := c.Query("after"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(c, invalidParam("after", "must be an integer"))
			return
		}
		after = n
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	ls, err := h.svc.ListRunLogs(c.Request.Context(), id, after, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ls)
}

// POST /api/v1/workspaces/:id/changesets
func (h *CollaborationHandler) CreateChangeset(c *gin.Context) {
	workspaceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.ChangesetInput
	if !bindJSON(c, &in) {
		return
	}
	cs, err := h.svc.CreateChangeset(c.Request.Context(), workspaceID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, cs)
}

func (h *CollaborationHandler) ListChangesets(c *gin.Context) {
	workspaceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	cs, err := h.svc.ListChangesets(c.Request.Context(), workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cs)
}

func (h *CollaborationHandler) GetChangeset(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	cs, err := h.svc.GetChangeset(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cs)
}

type commentRequest struct {
	Comment string `json:"comment"`
}

func (h *CollaborationHandler) SetChangesetComment(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	cs, err := h.svc.SetChangesetComment(c.Request.Context(), id, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cs)
}

type changesetStatusRequest struct {
	Status models.ChangesetStatus `json:"status"`
}

func (h *CollaborationHandler) SetChangesetStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req changesetStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	cs, err := h.svc.SetChangesetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cs)
}

func (h *CollaborationHandler) DeleteChangeset(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteChangeset(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// PUT /api/v1/changesets/:id/nodes/:nodeId
func (h *CollaborationHandler) UpsertNodePatch(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.PatchInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.svc.UpsertNodePatch(c.Request.Context(), id, c.Param("nodeId"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

func (h *CollaborationHandler) DeleteNodePatch(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteNodePatch(c.Request.Context(), id, c.Param("nodeId")); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// PUT /api/v1/changesets/:id/edges/:edgeId
func (h *CollaborationHandler) UpsertEdgePatch(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.PatchInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.svc.UpsertEdgePatch(c.Request.Context(), id, c.Param("edgeId"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

func (h *CollaborationHandler) DeleteEdgePatch(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteEdgePatch(c.Request.Context(), id, c.Param("edgeId")); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}
