package monitoring

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/platformbuilds/theo-core/internal/tracing"
)

// QueryTracer is a pgx.QueryTracer that records a Prometheus sample and an
// OpenTelemetry span for every statement.
type QueryTracer struct{}

var _ pgx.QueryTracer = QueryTracer{}

type queryTraceKey struct{}

type queryTrace struct {
	start     time.Time
	operation string
	table     string
	span      trace.Span
}

func (QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	op, table := statementLabels(data.SQL)
	ctx, span := tracing.StartDBSpan(ctx, op, table)
	return context.WithValue(ctx, queryTraceKey{}, &queryTrace{
		start:     time.Now(),
		operation: op,
		table:     table,
		span:      span,
	})
}

func (QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qt, ok := ctx.Value(queryTraceKey{}).(*queryTrace)
	if !ok {
		return
	}
	defer qt.span.End()
	tracing.RecordError(qt.span, data.Err)
	RecordDBOperation(qt.operation, qt.table, time.Since(qt.start), data.Err == nil)
}

// statementLabels extracts a low-cardinality (operation, table) pair from SQL.
func statementLabels(sql string) (string, string) {
	fields := strings.Fields(strings.ToLower(sql))
	if len(fields) == 0 {
		return "unknown", "unknown"
	}
	op := fields[0]
	if op == "with" {
		// CTE: label by the first data-modifying keyword.
		for _, f := range fields {
			if f == "insert" || f == "update" || f == "delete" {
				op = f
				break
			}
		}
	}

	var marker string
	switch op {
	case "select":
		marker = "from"
	case "insert":
		marker = "into"
	case "update":
		marker = "update"
	case "delete":
		marker = "from"
	default:
		return op, "none"
	}
	for i, f := range fields {
		if f == marker && i+1 < len(fields) && (op != "update" || i == 0 || fields[i-1] != "do") {
			return op, tableLabel(fields[i+1])
		}
	}
	return op, "none"
}

// tableLabel strips punctuation, identifier quotes and any schema qualifier.
func tableLabel(ident string) string {
	ident = strings.Trim(ident, `(),;`)
	if i := strings.LastIndexByte(ident, '.'); i >= 0 {
		ident = ident[i+1:]
	}
	ident = strings.Trim(ident, `"`)
	if ident == "" {
		return "none"
	}
	return ident
}
