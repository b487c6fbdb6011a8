package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/services"
)

type WorkspaceHandler struct {
	svc *services.WorkspaceService
}

func NewWorkspaceHandler(svc *services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{svc: svc}
}

func (h *WorkspaceHandler) Create(c *gin.Context) {
	var in models.WorkspaceInput
	if !bindJSON(c, &in) {
		return
	}
	w, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, w)
}

func (h *WorkspaceHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	w, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, w)
}

// GET /api/v1/workspaces?ownerId=&companyId=&state=&visibility=&limit=&offset=
func (h *WorkspaceHandler) List(c *gin.Context) {
	var f models.WorkspaceListFilter
	var ok bool
	if f.OwnerID, ok = queryUUID(c, "ownerId"); !ok {
		return
	}
	if f.CompanyID, ok = queryUUID(c, "companyId"); !ok {
		return
	}
	if v := c.Query("state"); v != "" {
		s := models.WorkspaceState(v)
		f.State = &s
	}
	if v := c.Query("visibility"); v != "" {
		vis := models.Visibility(v)
		f.Visibility = &vis
	}
	page, ok := queryPage(c)
	if !ok {
		return
	}
	f.Limit, f.Offset = page.Limit, page.Offset

	ws, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ws)
}

func (h *WorkspaceHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var patch models.WorkspacePatch
	if !bindJSON(c, &patch) {
		return
	}
	w, err := h.svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, w)
}

func (h *WorkspaceHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

type stateRequest struct {
	State models.WorkspaceState `json:"state"`
}

// POST /api/v1/workspaces/:id/state
func (h *WorkspaceHandler) Transition(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req stateRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.svc.Transition(c.Request.Context(), id, req.State)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, w)
}

// POST /api/v1/workspaces/:id/setup
func (h *WorkspaceHandler) StartSetup(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req models.SetupRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	w, run, err := h.svc.StartSetup(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusAccepted, gin.H{"workspace": w, "run": run})
}

// DELETE /api/v1/workspaces/:id/setup
func (h *WorkspaceHandler) CancelSetup(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	w, err := h.svc.CancelSetup(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, w)
}

// PUT /api/v1/workspaces/:id/setup/artifacts
func (h *WorkspaceHandler) SaveSetupArtifacts(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var a services.SetupArtifacts
	if !bindJSON(c, &a) {
		return
	}
	w, err := h.svc.SaveSetupArtifacts(c.Request.Context(), id, a)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, w)
}

type memberRequest struct {
	Role string `json:"role"`
}

// PUT /api/v1/workspaces/:id/members/:userId
func (h *WorkspaceHandler) UpsertMember(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	var req memberRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.UpsertMember(c.Request.Context(), id, userID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, m)
}

func (h *WorkspaceHandler) ListMembers(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ms, err := h.svc.ListMembers(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ms)
}

func (h *WorkspaceHandler) RemoveMember(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	if err := h.svc.RemoveMember(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// POST /api/v1/workspaces/:id/items
func (h *WorkspaceHandler) PinItem(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.WorkspaceItemInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.svc.PinItem(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, item)
}

func (h *WorkspaceHandler) ListItems(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.ListItems(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, items)
}

func (h *WorkspaceHandler) UnpinItem(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "itemId")
	if !ok {
		return
	}
	if err := h.svc.UnpinItem(c.Request.Context(), id, itemID); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}
