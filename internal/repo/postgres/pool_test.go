package postgres

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/theo-core/internal/tenancy"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

type recordingExecer struct {
	sql  []string
	args [][]any
	err  error
}

func (r *recordingExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql = append(r.sql, sql)
	r.args = append(r.args, args)
	return pgconn.NewCommandTag("SELECT 1"), r.err
}

func newBinder(buf *bytes.Buffer) *tenantBinder {
	return &tenantBinder{resolver: tenancy.NewResolver(""), log: logger.NewMockLogger(buf)}
}

func TestTenantBinder_BindsResolvedTenant(t *testing.T) {
	var buf bytes.Buffer
	b := newBinder(&buf)
	conn := &recordingExecer{}
	id := uuid.New()

	ok := b.bind(tenancy.WithTenant(context.Background(), id), conn)

	require.True(t, ok)
	require.Len(t, conn.sql, 1)
	assert.Equal(t, bindTenantSQL, conn.sql[0])
	assert.Equal(t, []any{id.String()}, conn.args[0])
	assert.NotContains(t, buf.String(), "without a resolvable tenant")
}

func TestTenantBinder_UnresolvedBindsEmptyAndWarns(t *testing.T) {
	var buf bytes.Buffer
	b := newBinder(&buf)
	conn := &recordingExecer{}

	ok := b.bind(context.Background(), conn)

	require.True(t, ok)
	assert.Equal(t, []any{""}, conn.args[0])
	assert.Contains(t, buf.String(), "without a resolvable tenant")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestTenantBinder_RebindsOnEveryAcquire(t *testing.T) {
	var buf bytes.Buffer
	b := newBinder(&buf)
	conn := &recordingExecer{}
	first, second := uuid.New(), uuid.New()

	require.True(t, b.bind(tenancy.WithTenant(context.Background(), first), conn))
	require.True(t, b.bind(context.Background(), conn))
	require.True(t, b.bind(tenancy.WithTenant(context.Background(), second), conn))

	assert.Equal(t, [][]any{{first.String()}, {""}, {second.String()}}, conn.args)
}

func TestTenantBinder_MalformedClaimIsUnbound(t *testing.T) {
	var buf bytes.Buffer
	b := newBinder(&buf)
	conn := &recordingExecer{}
	ctx := tenancy.WithContext(context.Background(), tenancy.Context{Claim: "acme", Requested: uuid.NewString()})

	require.True(t, b.bind(ctx, conn))
	assert.Equal(t, []any{""}, conn.args[0])
}

func TestTenantBinder_ExecFailureRejectsConnection(t *testing.T) {
	var buf bytes.Buffer
	b := newBinder(&buf)
	conn := &recordingExecer{err: errors.New("connection reset")}

	ok := b.bind(tenancy.WithTenant(context.Background(), uuid.New()), conn)

	assert.False(t, ok)
	assert.Contains(t, buf.String(), "failed to bind tenant")
}
