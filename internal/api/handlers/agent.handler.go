package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/services"
)

// AgentHandler serves intents, agent roles, access keys and the
// authorization check used by agent gateways.
type AgentHandler struct {
	svc *services.AgentService
}

func NewAgentHandler(svc *services.AgentService) *AgentHandler {
	return &AgentHandler{svc: svc}
}

func (h *AgentHandler) CreateIntent(c *gin.Context) {
	var in models.IntentInput
	if !bindJSON(c, &in) {
		return
	}
	i, err := h.svc.CreateIntent(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, i)
}

func (h *AgentHandler) GetIntent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	i, err := h.svc.GetIntent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, i)
}

func (h *AgentHandler) ListIntents(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	is, err := h.svc.ListIntents(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, is)
}

func (h *AgentHandler) UpdateIntent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.IntentInput
	if !bindJSON(c, &in) {
		return
	}
	i, err := h.svc.UpdateIntent(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, i)
}

func (h *AgentHandler) DeleteIntent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteIntent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// POST /api/v1/agent-roles. A partial failure answers with the created
// role id in the error details; resend with resumeRoleId set to it.
func (h *AgentHandler) CreateAgentRole(c *gin.Context) {
	var in models.AgentRoleInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.svc.CreateAgentRole(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, r)
}

func (h *AgentHandler) GetAgentRole(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	r, err := h.svc.GetAgentRole(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

func (h *AgentHandler) ListAgentRoles(c *gin.Context) {
	rs, err := h.svc.ListAgentRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, rs)
}

func (h *AgentHandler) UpdateAgentRole(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.AgentRoleInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.svc.UpdateAgentRole(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

func (h *AgentHandler) DeleteAgentRole(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteAgentRole(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

type roleIntentsRequest struct {
	IntentIDs []uuid.UUID `json:"intentIds"`
}

// PUT /api/v1/agent-roles/:id/intents replaces the whole set.
func (h *AgentHandler) SetAgentRoleIntents(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req roleIntentsRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.SetAgentRoleIntents(c.Request.Context(), id, req.IntentIDs); err != nil {
		respondError(c, err)
		return
	}
	intents, err := h.svc.ListAgentRoleIntents(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, intents)
}

func (h *AgentHandler) ListAgentRoleIntents(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	intents, err := h.svc.ListAgentRoleIntents(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, intents)
}

// POST /api/v1/agent-roles/:id/keys. The secret is in this response only.
func (h *AgentHandler) IssueAccessKey(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.AccessKeyInput
	if c.Request.ContentLength != 0 && !bindJSON(c, &in) {
		return
	}
	k, err := h.svc.IssueAccessKey(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	respond(c, http.StatusCreated, k)
}

func (h *AgentHandler) ListAccessKeys(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ks, err := h.svc.ListAccessKeys(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ks)
}

// DELETE /api/v1/access-keys/:id
func (h *AgentHandler) RevokeAccessKey(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.RevokeAccessKey(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// POST /api/v1/agents/authorize
func (h *AgentHandler) Authorize(c *gin.Context) {
	var req models.AuthorizeRequest
	if !bindJSON(c, &req) {
		return
	}
	grant, err := h.svc.Authorize(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, grant)
}
