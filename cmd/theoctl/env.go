package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/platformbuilds/theo-core/internal/config"
	"github.com/platformbuilds/theo-core/internal/repo/postgres"
	"github.com/platformbuilds/theo-core/internal/tenancy"
	"github.com/platformbuilds/theo-core/pkg/cache"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

// tenantEnvVar selects the tenant for tenant-scoped commands.
const tenantEnvVar = "THEO_TENANT_ID"

type env struct {
	cfg      *config.Config
	logger   logger.Logger
	store    *postgres.Store
	cache    cache.ValkeyCluster
	resolver *tenancy.Resolver
}

// openEnv loads configuration and connects to PostgreSQL and the cache.
// Tenant-scoped statements bind the tenant named by THEO_TENANT_ID.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel)
	resolver := tenancy.NewResolver(tenantEnvVar)

	pool, err := postgres.NewPool(ctx, cfg.Database, resolver, log)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &env{
		cfg:      cfg,
		logger:   log,
		store:    postgres.NewStore(pool, log),
		cache:    cache.New(cfg.Cache.Nodes, cfg.Cache.DB, cfg.Cache.Password, cfg.Cache.TTLDuration(), log),
		resolver: resolver,
	}, nil
}

func (e *env) Close() {
	if s, ok := e.cache.(cache.Stopper); ok {
		s.Stop()
	}
	e.store.Close()
}

// requireTenant fails unless THEO_TENANT_ID holds a valid tenant id.
func (e *env) requireTenant(ctx context.Context) error {
	if _, _, ok := e.resolver.Resolve(ctx); !ok {
		return fmt.Errorf("%s must be set to a tenant id", tenantEnvVar)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
