package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platformbuilds/theo-core/internal/api"
	"github.com/platformbuilds/theo-core/internal/config"
	"github.com/platformbuilds/theo-core/internal/repo/postgres"
	"github.com/platformbuilds/theo-core/internal/secrets"
	"github.com/platformbuilds/theo-core/internal/services"
	"github.com/platformbuilds/theo-core/internal/tenancy"
	"github.com/platformbuilds/theo-core/internal/tracing"
	"github.com/platformbuilds/theo-core/pkg/cache"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

const version = "v0.1.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.LogLevel)
	logger.Info("Starting THEO-CORE", "version", version, "environment", cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hot reload of the log level when a config file is in use
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		watcher := config.NewConfigWatcher(path, cfg, logger)
		watcher.RegisterWatcher(config.LogLevelWatcher(logger))
		go func() {
			if err := watcher.Start(ctx); err != nil {
				logger.Warn("Config watcher stopped", "path", path, "error", err)
			}
		}()
		defer watcher.Stop()
	}

	if cfg.Monitoring.TracingEnabled && cfg.Monitoring.OTLPEndpoint != "" {
		tp, err := tracing.NewTracerProvider(ctx, "theo-core", version, cfg.Monitoring.OTLPEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled", "error", err)
		} else {
			defer func() {
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				_ = tp.Shutdown(shutdownCtx)
			}()
			logger.Info("OTLP tracing enabled", "endpoint", cfg.Monitoring.OTLPEndpoint)
		}
	}

	if cfg.Database.AutoMigrate {
		migrator, err := postgres.NewMigrator(cfg.Database.MigrationURL())
		if err != nil {
			logger.Fatal("Failed to open migration connection", "error", err)
		}
		if err := migrator.Up(ctx); err != nil {
			logger.Fatal("Schema migration failed", "error", err)
		}
		_ = migrator.Close()
		logger.Info("Schema migrations applied")
	}

	resolver := tenancy.NewResolver(cfg.Tenancy.EnvVar)

	pool, err := postgres.NewPool(ctx, cfg.Database, resolver, logger)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", "error", err)
	}
	store := postgres.NewStore(pool, logger)
	defer store.Close()

	valkeyCache := cache.New(cfg.Cache.Nodes, cfg.Cache.DB, cfg.Cache.Password, cfg.Cache.TTLDuration(), logger)
	if s, ok := valkeyCache.(cache.Stopper); ok {
		defer s.Stop()
	}

	sealer, err := secrets.NewSealer(cfg.Secrets.CredentialKey)
	if err != nil {
		logger.Fatal("Invalid credential key", "error", err)
	}
	if !sealer.Enabled() {
		logger.Warn("No credential key configured; graph connection passwords cannot be stored")
	}

	agents := services.NewAgentService(store, valkeyCache, resolver,
		cfg.Auth.AgentKeyPrefix, cfg.Cache.TTLDuration(), logger)
	svc := api.Services{
		Tenants:       services.NewTenantService(store, resolver, logger),
		Workspaces:    services.NewWorkspaceService(store, logger),
		Ontologies:    services.NewOntologyService(store, agents, logger),
		Collaboration: services.NewCollaborationService(store, logger),
		Reports:       services.NewReportService(store, logger),
		Agents:        agents,
	}

	apiServer := api.NewServer(cfg, logger, valkeyCache, store, svc, sealer, resolver)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := apiServer.Start(ctx); err != nil {
		logger.Fatal("Server failed", "error", err)
	}

	logger.Info("THEO-CORE shutdown complete")
}
