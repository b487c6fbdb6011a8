// Package monitoring exposes Prometheus metrics for THEO-CORE.
//
// Usage:
//
//	router := gin.New()
//	router.Use(monitoring.HTTPMetricsMiddleware())
//	monitoring.SetupPrometheusMetrics(router)
//
//	start := time.Now()
//	// ... your DB code ...
//	monitoring.RecordDBOperation("select", "workspaces", time.Since(start), true)
//
// Available Metrics:
//
// HTTP Metrics:
//   - theo_core_http_requests_total{method, endpoint, status_code, tenant_id}
//   - theo_core_http_request_duration_seconds{method, endpoint, tenant_id}
//   - theo_core_active_connections
//
// Database Metrics:
//   - theo_core_db_operations_total{operation, table, status}
//   - theo_core_db_operation_duration_seconds{operation, table}
//   - theo_core_tenant_binding_total{result, source}
//
// Cache Metrics:
//   - theo_core_cache_operations_total{operation, result}
//
// Authentication Metrics:
//   - theo_core_auth_attempts_total{method, result}
//
// Error Metrics:
//   - theo_core_errors_total{type, component}
package monitoring

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theo_core_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "tenant_id"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "theo_core_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "tenant_id"},
	)

	// Database operation metrics
	dbOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theo_core_db_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "table", "status"},
	)

	dbOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "theo_core_db_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "table"},
	)

	// Connection tenant binding outcomes
	tenantBindingTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theo_core_tenant_binding_total",
			Help: "Connection acquisitions by tenant binding outcome",
		},
		[]string{"result", "source"}, // result: bound, unbound, error
	)

	// Cache metrics
	cacheOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theo_core_cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"}, // result: hit, miss, error
	)

	// Authentication metrics
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theo_core_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"method", "result"}, // result: success, failure
	)

	activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "theo_core_active_connections",
			Help: "Number of in-flight HTTP requests",
		},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theo_core_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type", "component"}, // type: http, db, cache, auth
	)

	registerOnce sync.Once
)

// Register adds all collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		_ = prometheus.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "theo_core_build_info",
			Help: "Build information for THEO-CORE",
			ConstLabels: prometheus.Labels{
				"component":  "theo-core",
				"go_version": runtime.Version(),
			},
		}, func() float64 { return 1 }))

		_ = prometheus.Register(httpRequestsTotal)
		_ = prometheus.Register(httpRequestDuration)
		_ = prometheus.Register(dbOperationsTotal)
		_ = prometheus.Register(dbOperationDuration)
		_ = prometheus.Register(tenantBindingTotal)
		_ = prometheus.Register(cacheOperationsTotal)
		_ = prometheus.Register(authAttemptsTotal)
		_ = prometheus.Register(activeConnections)
		_ = prometheus.Register(errorsTotal)
	})
}

// SetupPrometheusMetrics registers collectors and mounts the /metrics endpoint.
func SetupPrometheusMetrics(router gin.IRoutes, path string) {
	Register()
	if path == "" {
		path = "/metrics"
	}
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// HTTPMetricsMiddleware collects HTTP request metrics
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		activeConnections.Inc()
		defer activeConnections.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = normalizeEndpoint(c.Request.URL.Path)
		}
		tenantID := c.GetString("tenant_id")
		if tenantID == "" {
			tenantID = "unknown"
		}

		statusCode := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, statusCode, tenantID).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint, tenantID).Observe(time.Since(start).Seconds())

		if c.Writer.Status() >= 500 {
			errorsTotal.WithLabelValues("http", endpoint).Inc()
		}
	}
}

// RecordDBOperation records database operation metrics
func RecordDBOperation(operation, table string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
		errorsTotal.WithLabelValues("db", table).Inc()
	}

	dbOperationsTotal.WithLabelValues(operation, table, status).Inc()
	dbOperationDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordTenantBinding records the outcome of binding a tenant to a pooled connection.
func RecordTenantBinding(result, source string) {
	tenantBindingTotal.WithLabelValues(result, source).Inc()
	if result == "error" {
		errorsTotal.WithLabelValues("db", "tenant_binding").Inc()
	}
}

// RecordCacheOperation records cache operation metrics
func RecordCacheOperation(operation, result string) {
	cacheOperationsTotal.WithLabelValues(operation, result).Inc()
	if result == "error" {
		errorsTotal.WithLabelValues("cache", operation).Inc()
	}
}

// RecordAuthAttempt records authentication attempt metrics
func RecordAuthAttempt(method, result string) {
	authAttemptsTotal.WithLabelValues(method, result).Inc()
	if result == "failure" {
		errorsTotal.WithLabelValues("auth", method).Inc()
	}
}

// normalizeEndpoint replaces numeric and UUID path segments with :id.
func normalizeEndpoint(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if i == 0 || part == "" {
			continue
		}
		if isNumeric(part) {
			parts[i] = ":id"
			continue
		}
		if _, err := uuid.Parse(part); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
