package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/platformbuilds/theo-core/internal/services"
)

func TestReportHandler_SetBlockContentRejectsBadInput(t *testing.T) {
	store := &mockStore{}
	h := NewReportHandler(services.NewReportService(store, quietLogger()))
	r := newTestRouter(func(r *gin.Engine) {
		r.PUT("/report-blocks/:id/content", h.SetBlockContent)
	})

	tests := []struct {
		name string
		path string
		body any
	}{
		{"malformed id", "/report-blocks/42/content", gin.H{"blockType": "rich_text", "content": gin.H{}}},
		{"unknown block type", "/report-blocks/" + uuid.NewString() + "/content", gin.H{"blockType": "pie_chart", "content": gin.H{}}},
		{"content shape mismatch", "/report-blocks/" + uuid.NewString() + "/content", gin.H{"blockType": "rich_text", "content": []int{1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPut, tt.path, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "INVALID_REQUEST", decode(t, w).Code)
		})
	}
}
