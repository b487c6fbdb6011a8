package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/services"
)

// TenantHandler serves tenant provisioning and the tenant directory.
type TenantHandler struct {
	svc *services.TenantService
}

func NewTenantHandler(svc *services.TenantService) *TenantHandler {
	return &TenantHandler{svc: svc}
}

// POST /api/v1/tenants (global admin)
func (h *TenantHandler) ProvisionTenant(c *gin.Context) {
	var in models.TenantInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.svc.ProvisionTenant(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, t)
}

// GET /api/v1/tenant
func (h *TenantHandler) GetCurrentTenant(c *gin.Context) {
	t, err := h.svc.GetCurrentTenant(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, t)
}

// PUT /api/v1/tenant
func (h *TenantHandler) UpdateCurrentTenant(c *gin.Context) {
	var in models.TenantInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.svc.UpdateCurrentTenant(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, t)
}

func (h *TenantHandler) CreateUser(c *gin.Context) {
	var in models.UserInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.svc.CreateUser(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, u)
}

func (h *TenantHandler) GetUser(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	u, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}

func (h *TenantHandler) ListUsers(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	users, err := h.svc.ListUsers(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, users)
}

func (h *TenantHandler) UpdateUser(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var patch models.UserPatch
	if !bindJSON(c, &patch) {
		return
	}
	u, err := h.svc.UpdateUser(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}

func (h *TenantHandler) DeleteUser(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

type roleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *TenantHandler) CreateRole(c *gin.Context) {
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.svc.CreateRole(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, r)
}

func (h *TenantHandler) ListRoles(c *gin.Context) {
	roles, err := h.svc.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, roles)
}

func (h *TenantHandler) DeleteRole(c *gin.Context) {
	if err := h.svc.DeleteRole(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// PUT /api/v1/users/:id/roles/:name
func (h *TenantHandler) AssignRole(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.AssignRole(c.Request.Context(), id, c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

func (h *TenantHandler) RevokeRole(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.RevokeRole(c.Request.Context(), id, c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

func (h *TenantHandler) ListUserRoles(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	roles, err := h.svc.ListUserRoles(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, roles)
}

func (h *TenantHandler) CreateCompany(c *gin.Context) {
	var in models.CompanyInput
	if !bindJSON(c, &in) {
		return
	}
	co, err := h.svc.CreateCompany(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, co)
}

func (h *TenantHandler) GetCompany(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	co, err := h.svc.GetCompany(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, co)
}

func (h *TenantHandler) ListCompanies(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	cos, err := h.svc.ListCompanies(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cos)
}

func (h *TenantHandler) UpdateCompany(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var patch models.CompanyPatch
	if !bindJSON(c, &patch) {
		return
	}
	co, err := h.svc.UpdateCompany(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, co)
}

func (h *TenantHandler) DeleteCompany(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteCompany(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}
