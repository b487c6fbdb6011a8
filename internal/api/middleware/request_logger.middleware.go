package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/theo-core/pkg/logger"
)

const unknown = "unknown"

// RequestLogger logs one line per request with the tenant and principal kind
// resolved by the auth chain.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		tenantID, principal := unknown, unknown
		if v, ok := param.Keys[ContextKeyTenantID].(string); ok && v != "" {
			tenantID = v
		}
		if p, ok := param.Keys[ContextKeyPrincipal].(*Principal); ok {
			principal = string(p.Kind)
		}

		fields := []interface{}{
			"method", param.Method,
			"path", param.Path,
			"status", param.StatusCode,
			"latency", param.Latency,
			"client_ip", param.ClientIP,
			"user_agent", param.Request.UserAgent(),
			"tenant_id", tenantID,
			"principal", principal,
			"request_id", param.Request.Header.Get("X-Request-ID"),
		}
		if param.ErrorMessage != "" {
			fields = append(fields, "error", param.ErrorMessage)
		}

		switch {
		case param.StatusCode >= 500:
			log.Error("HTTP Request", fields...)
		case param.StatusCode >= 400:
			log.Warn("HTTP Request", fields...)
		default:
			log.Info("HTTP Request", fields...)
		}
		return ""
	})
}
