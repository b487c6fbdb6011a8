package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/secrets"
	"github.com/platformbuilds/theo-core/internal/services"
	"github.com/platformbuilds/theo-core/internal/tenancy"
)

// OntologyHandler serves ontologies, semantic entities and fields. Graph
// passwords are sealed here, before they reach the service.
type OntologyHandler struct {
	svc      *services.OntologyService
	sealer   *secrets.Sealer
	resolver *tenancy.Resolver
}

func NewOntologyHandler(svc *services.OntologyService, sealer *secrets.Sealer, resolver *tenancy.Resolver) *OntologyHandler {
	return &OntologyHandler{svc: svc, sealer: sealer, resolver: resolver}
}

func (h *OntologyHandler) Create(c *gin.Context) {
	var in models.OntologyInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, o)
}

func (h *OntologyHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, o)
}

func (h *OntologyHandler) List(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	os, err := h.svc.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, os)
}

func (h *OntologyHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var patch models.OntologyPatch
	if !bindJSON(c, &patch) {
		return
	}
	o, err := h.svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, o)
}

func (h *OntologyHandler) Delete(c *gin.Context) {
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

type statusRequest struct {
	Status models.OntologyStatus `json:"status"`
}

// POST /api/v1/ontologies/:id/status
func (h *OntologyHandler) SetStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.svc.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, o)
}

type graphConnectionRequest struct {
	URI      string `json:"uri"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// PUT /api/v1/ontologies/:id/graph-connection
func (h *OntologyHandler) BindGraphConnection(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req graphConnectionRequest
	if !bindJSON(c, &req) {
		return
	}
	tenantID, _, resolved := h.resolver.Resolve(c.Request.Context())
	if !resolved {
		respondError(c, invalidParam("tenant", "is required to store credentials"))
		return
	}

	conn := models.GraphConnection{URI: req.URI, Username: req.Username}
	if req.Password != "" {
		sealed, err := h.sealer.Seal(tenantID, req.Password)
		if err != nil {
			respondError(c, fmt.Errorf("seal graph password: %w", err))
			return
		}
		conn.PasswordCiphertext = sealed
	}

	o, err := h.svc.BindGraphConnection(c.Request.Context(), id, conn)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, o)
}

// DELETE /api/v1/ontologies/:id/graph-connection
func (h *OntologyHandler) UnbindGraphConnection(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.svc.UnbindGraphConnection(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, o)
}

func (h *OntologyHandler) CreateEntity(c *gin.Context) {
	var in models.SemanticEntityInput
	if !bindJSON(c, &in) {
		return
	}
	e, err := h.svc.CreateEntity(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, e)
}

func (h *OntologyHandler) GetEntity(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	e, err := h.svc.GetEntity(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, e)
}

// GET /api/v1/entities?ontologyId=
func (h *OntologyHandler) ListEntities(c *gin.Context) {
	ontologyID, ok := queryUUID(c, "ontologyId")
	if !ok {
		return
	}
	es, err := h.svc.ListEntities(c.Request.Context(), ontologyID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, es)
}

func (h *OntologyHandler) UpdateEntity(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var patch models.SemanticEntityPatch
	if !bindJSON(c, &patch) {
		return
	}
	e, err := h.svc.UpdateEntity(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, e)
}

func (h *OntologyHandler) DeleteEntity(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteEntity(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// POST /api/v1/entities/:id/versions
func (h *OntologyHandler) NewEntityVersion(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	e, err := h.svc.NewEntityVersion(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, e)
}

func (h *OntologyHandler) AddField(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in models.SemanticFieldInput
	if !bindJSON(c, &in) {
		return
	}
	f, err := h.svc.AddField(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, f)
}

// GET /api/v1/entities/:id/fields?version= (0 current, -1 all)
func (h *OntologyHandler) ListFields(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	version, ok := queryInt(c, "version", 0)
	if !ok {
		return
	}
	fs, err := h.svc.ListFields(c.Request.Context(), id, version)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, fs)
}

func (h *OntologyHandler) UpdateField(c *gin.Context) {
	id, ok := pathUUID(c, "fieldId")
	if !ok {
		return
	}
	var patch models.SemanticFieldPatch
	if !bindJSON(c, &patch) {
		return
	}
	f, err := h.svc.UpdateField(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, f)
}

func (h *OntologyHandler) DeleteField(c *gin.Context) {
	id, ok := pathUUID(c, "fieldId")
	if !ok {
		return
	}
	if err := h.svc.DeleteField(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}
