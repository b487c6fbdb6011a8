package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/internal/services"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Status  string      `json:"status"`
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorHandler renders the last error a handler attached with c.Error.
// Handlers that already wrote a body are left alone.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, code := StatusFor(err)

		resp := ErrorResponse{
			Status: "error",
			Error:  err.Error(),
			Code:   code,
		}
		var partial *services.PartialError
		if errors.As(err, &partial) {
			resp.Details = gin.H{"id": partial.ID, "operation": partial.Op}
		}
		if status >= http.StatusInternalServerError {
			// Store internals stay in the log.
			resp.Error = http.StatusText(status)
			if partial != nil {
				resp.Error = partial.Op + " partially applied"
			}
		}

		logError(log, status, err, c)
		c.JSON(status, resp)
	}
}

// StatusFor maps a service or repository error to an HTTP status and a
// machine readable code.
func StatusFor(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, repo.ErrInvalid):
		return http.StatusBadRequest, determineErrorCodeFromStatus(http.StatusBadRequest)
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized, determineErrorCodeFromStatus(http.StatusUnauthorized)
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, determineErrorCodeFromStatus(http.StatusForbidden)
	case errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound, determineErrorCodeFromStatus(http.StatusNotFound)
	case errors.Is(err, repo.ErrConflict):
		return http.StatusConflict, determineErrorCodeFromStatus(http.StatusConflict)
	case errors.Is(err, repo.ErrConstraint):
		return http.StatusUnprocessableEntity, determineErrorCodeFromStatus(http.StatusUnprocessableEntity)
	default:
		return http.StatusInternalServerError, determineErrorCodeFromStatus(http.StatusInternalServerError)
	}
}

// AbortWithError writes an error body immediately. Used by middleware that
// stops the chain before any handler runs.
func AbortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Status: "error",
		Error:  msg,
		Code:   determineErrorCodeFromStatus(status),
	})
}

func determineErrorCodeFromStatus(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "ACCESS_DENIED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "CONSTRAINT_VIOLATION"
	case http.StatusInternalServerError:
		return "INTERNAL_ERROR"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "UNKNOWN_ERROR"
	}
}

func logError(log logger.Logger, statusCode int, err error, c *gin.Context) {
	fields := []interface{}{
		"status", statusCode,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"client_ip", c.ClientIP(),
		"error", err.Error(),
	}

	if requestID := c.Request.Header.Get("X-Request-ID"); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if tenantID := c.GetString(ContextKeyTenantID); tenantID != "" {
		fields = append(fields, "tenant_id", tenantID)
	}
	if p, ok := PrincipalFrom(c); ok {
		fields = append(fields, "principal", p.Kind, "subject", p.Subject)
	}

	if statusCode >= 500 {
		log.Error("HTTP Error", fields...)
	} else {
		log.Warn("HTTP Error", fields...)
	}
}
