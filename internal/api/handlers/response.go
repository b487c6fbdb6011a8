package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
)

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

// respondError hands err to the error middleware, which picks the status.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func invalidParam(field, msg string) error {
	return &models.ValidationError{Field: field, Message: msg}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, invalidParam(name, "must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID parses an optional UUID query parameter.
func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	id, err := uuid.Parse(v)
	if err != nil {
		respondError(c, invalidParam(name, "must be a UUID"))
		return nil, false
	}
	return &id, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	v := c.Query(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		respondError(c, invalidParam(name, "must be an integer"))
		return 0, false
	}
	return n, true
}

func queryPage(c *gin.Context) (repo.Page, bool) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return repo.Page{}, false
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return repo.Page{}, false
	}
	return repo.Page{Limit: limit, Offset: offset}, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, invalidParam("body", err.Error()))
		return false
	}
	return true
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
