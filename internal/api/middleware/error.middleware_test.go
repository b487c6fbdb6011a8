package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/internal/services"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&models.ValidationError{Field: "name", Message: "is required"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{fmt.Errorf("get workspace: %w", repo.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{&repo.ConstraintError{Kind: repo.ErrConflict, Constraint: "workspaces_name_key"}, http.StatusConflict, "CONFLICT"},
		{&repo.ConstraintError{Kind: repo.ErrConstraint}, http.StatusUnprocessableEntity, "CONSTRAINT_VIOLATION"},
		{services.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{fmt.Errorf("authorize: %w", services.ErrForbidden), http.StatusForbidden, "ACCESS_DENIED"},
		{errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range cases {
		status, code := StatusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	r := gin.New()
	r.Use(ErrorHandler(logger.NewMockLogger(&logs)))

	roleID := uuid.New()
	r.GET("/missing", func(c *gin.Context) { _ = c.Error(fmt.Errorf("get ontology: %w", repo.ErrNotFound)) })
	r.GET("/broken", func(c *gin.Context) { _ = c.Error(errors.New("pq: password authentication failed")) })
	r.GET("/partial", func(c *gin.Context) {
		_ = c.Error(&services.PartialError{ID: roleID, Op: "create agent role", Err: repo.ErrConstraint})
	})
	r.GET("/written", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		_ = c.Error(errors.New("late"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"status":"error","error":"get ontology: not found","code":"NOT_FOUND"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password", "internal detail leaked")
	assert.Contains(t, logs.String(), "password authentication failed")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/partial", http.NoBody))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	details, ok := body.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, roleID.String(), details["id"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/written", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
}
