package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the embedded API description as YAML and as JSON.
type OpenAPIHandler struct {
	raw []byte
	doc map[string]any
	err error
}

// NewOpenAPIHandler parses doc once. A document that fails to parse is still
// served as YAML; the JSON form then answers 500.
func NewOpenAPIHandler(doc []byte) *OpenAPIHandler {
	h := &OpenAPIHandler{raw: doc}
	var obj map[string]any
	if err := yaml.Unmarshal(doc, &obj); err != nil {
		h.err = err
		return h
	}
	if info, ok := obj["info"].(map[string]any); ok {
		info["version"] = serviceVersion
	}
	h.doc = obj
	return h
}

// GET /api/openapi.yaml
func (h *OpenAPIHandler) YAML(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml; charset=utf-8", h.raw)
}

// GET /api/openapi.json
func (h *OpenAPIHandler) JSON(c *gin.Context) {
	if h.err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "failed to parse openapi.yaml"})
		return
	}
	c.JSON(http.StatusOK, h.doc)
}
