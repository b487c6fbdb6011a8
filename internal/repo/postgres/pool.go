package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platformbuilds/theo-core/internal/config"
	"github.com/platformbuilds/theo-core/internal/monitoring"
	"github.com/platformbuilds/theo-core/internal/tenancy"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

// bindTenantSQL sets the session variable read by app_current_tenant().
// Session scope (is_local = false) so the binding survives across
// transactions on the same connection until the next acquisition.
const bindTenantSQL = "SELECT set_config('app.tenant_id', $1, false)"

// NewPool opens a pgx pool whose connections are re-bound to the caller's
// tenant on every acquisition.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, resolver *tenancy.Resolver, log logger.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = time.Duration(cfg.ConnectTimeout) * time.Second
	}
	poolConfig.ConnConfig.Tracer = monitoring.QueryTracer{}

	if cfg.SessionRole != "" {
		setRole := "SET ROLE " + pgx.Identifier{cfg.SessionRole}.Sanitize()
		poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if _, err := conn.Exec(ctx, setRole); err != nil {
				return fmt.Errorf("failed to assume session role %s: %w", cfg.SessionRole, err)
			}
			return nil
		}
	}

	binder := &tenantBinder{resolver: resolver, log: log}
	poolConfig.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		return binder.bind(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// tenantBinder writes the resolved tenant into the connection session.
// An unresolved tenant binds the empty string, which app_current_tenant()
// turns into NULL, so row-level security matches nothing.
type tenantBinder struct {
	resolver *tenancy.Resolver
	log      logger.Logger
}

// bind returns false when the session variable could not be written; the
// pool then destroys the connection instead of handing it out with a stale
// tenant.
func (b *tenantBinder) bind(ctx context.Context, conn execer) bool {
	id, source, ok := b.resolver.Resolve(ctx)

	value, result := "", "unbound"
	if ok {
		value, result = id.String(), "bound"
	}

	if _, err := conn.Exec(ctx, bindTenantSQL, value); err != nil {
		monitoring.RecordTenantBinding("error", string(source))
		b.log.Error("failed to bind tenant to connection", "source", source, "error", err)
		return false
	}

	if !ok {
		b.log.Warn("connection acquired without a resolvable tenant; queries will return no rows", "source", source)
	}
	monitoring.RecordTenantBinding(result, string(source))
	return true
}
