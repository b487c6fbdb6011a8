package api

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/platformbuilds/theo-core/internal/api/handlers"
	"github.com/platformbuilds/theo-core/internal/api/middleware"
	"github.com/platformbuilds/theo-core/internal/config"
	"github.com/platformbuilds/theo-core/internal/monitoring"
	"github.com/platformbuilds/theo-core/internal/secrets"
	"github.com/platformbuilds/theo-core/internal/services"
	"github.com/platformbuilds/theo-core/internal/tenancy"
	"github.com/platformbuilds/theo-core/pkg/cache"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

//go:embed openapi.yaml
var openAPIDoc []byte

// Services groups the business services exposed over HTTP.
type Services struct {
	Tenants       *services.TenantService
	Workspaces    *services.WorkspaceService
	Ontologies    *services.OntologyService
	Collaboration *services.CollaborationService
	Reports       *services.ReportService
	Agents        *services.AgentService
}

type Server struct {
	config     *config.Config
	logger     logger.Logger
	cache      cache.ValkeyCluster
	store      handlers.Pinger
	services   Services
	sealer     *secrets.Sealer
	resolver   *tenancy.Resolver
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(
	cfg *config.Config,
	log logger.Logger,
	valkeyCache cache.ValkeyCluster,
	store handlers.Pinger,
	svc Services,
	sealer *secrets.Sealer,
	resolver *tenancy.Resolver,
) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		config:   cfg,
		logger:   log,
		cache:    valkeyCache,
		store:    store,
		services: svc,
		sealer:   sealer,
		resolver: resolver,
		router:   gin.New(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())

	s.router.Use(middleware.RequestLogger(s.logger))

	if s.config.Monitoring.Enabled {
		s.router.Use(monitoring.HTTPMetricsMiddleware())
	}

	s.router.Use(middleware.CORSMiddleware(s.config.CORS))

	// Renders errors attached by handlers and by the auth chain below.
	s.router.Use(middleware.ErrorHandler(s.logger))

	s.router.Use(middleware.TenantContext(s.config.Tenancy))

	if s.config.Auth.Enabled {
		s.router.Use(middleware.AuthMiddleware(s.config.Auth, s.services.Agents))
	} else {
		s.router.Use(middleware.NoAuthMiddleware(s.config.Auth.GlobalAdminRole))
		s.logger.Warn("Authentication is DISABLED by configuration; requests run as the system principal")
	}
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.store, s.cache, s.logger)
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)

	docs := handlers.NewOpenAPIHandler(openAPIDoc)
	s.router.GET("/api/openapi.yaml", docs.YAML)
	s.router.GET("/api/openapi.json", docs.JSON)
	// Visit /swagger/index.html
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/api/openapi.json")))
	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/swagger/index.html")
	})

	if s.config.Monitoring.Enabled {
		monitoring.SetupPrometheusMetrics(s.router, s.config.Monitoring.MetricsPath)
	}

	v1 := s.router.Group("/api/v1")

	tenants := handlers.NewTenantHandler(s.services.Tenants)
	v1.POST("/tenants", middleware.RequireRole(s.config.Auth.GlobalAdminRole), tenants.ProvisionTenant)
	v1.GET("/tenant", tenants.GetCurrentTenant)
	v1.PUT("/tenant", tenants.UpdateCurrentTenant)
	v1.POST("/users", tenants.CreateUser)
	v1.GET("/users", tenants.ListUsers)
	v1.GET("/users/:id", tenants.GetUser)
	v1.PATCH("/users/:id", tenants.UpdateUser)
	v1.DELETE("/users/:id", tenants.DeleteUser)
	v1.GET("/users/:id/roles", tenants.ListUserRoles)
	v1.PUT("/users/:id/roles/:name", tenants.AssignRole)
	v1.DELETE("/users/:id/roles/:name", tenants.RevokeRole)
	v1.POST("/roles", tenants.CreateRole)
	v1.GET("/roles", tenants.ListRoles)
	v1.DELETE("/roles/:name", tenants.DeleteRole)
	v1.POST("/companies", tenants.CreateCompany)
	v1.GET("/companies", tenants.ListCompanies)
	v1.GET("/companies/:id", tenants.GetCompany)
	v1.PATCH("/companies/:id", tenants.UpdateCompany)
	v1.DELETE("/companies/:id", tenants.DeleteCompany)

	workspaces := handlers.NewWorkspaceHandler(s.services.Workspaces)
	v1.POST("/workspaces", workspaces.Create)
	v1.GET("/workspaces", workspaces.List)
	v1.GET("/workspaces/:id", workspaces.Get)
	v1.PATCH("/workspaces/:id", workspaces.Update)
	v1.DELETE("/workspaces/:id", workspaces.Delete)
	v1.POST("/workspaces/:id/state", workspaces.Transition)
	v1.POST("/workspaces/:id/setup", workspaces.StartSetup)
	v1.DELETE("/workspaces/:id/setup", workspaces.CancelSetup)
	v1.PUT("/workspaces/:id/setup/artifacts", workspaces.SaveSetupArtifacts)
	v1.GET("/workspaces/:id/members", workspaces.ListMembers)
	v1.PUT("/workspaces/:id/members/:userId", workspaces.UpsertMember)
	v1.DELETE("/workspaces/:id/members/:userId", workspaces.RemoveMember)
	v1.POST("/workspaces/:id/items", workspaces.PinItem)
	v1.GET("/workspaces/:id/items", workspaces.ListItems)
	v1.DELETE("/workspaces/:id/items/:itemId", workspaces.UnpinItem)

	ontologies := handlers.NewOntologyHandler(s.services.Ontologies, s.sealer, s.resolver)
	v1.POST("/ontologies", ontologies.Create)
	v1.GET("/ontologies", ontologies.List)
	v1.GET("/ontologies/:id", ontologies.Get)
	v1.PATCH("/ontologies/:id", ontologies.Update)
	v1.DELETE("/ontologies/:id", ontologies.Delete)
	v1.POST("/ontologies/:id/status", ontologies.SetStatus)
	v1.PUT("/ontologies/:id/graph-connection", ontologies.BindGraphConnection)
	v1.DELETE("/ontologies/:id/graph-connection", ontologies.UnbindGraphConnection)
	v1.POST("/entities", ontologies.CreateEntity)
	v1.GET("/entities", ontologies.ListEntities)
	v1.GET("/entities/:id", ontologies.GetEntity)
	v1.PATCH("/entities/:id", ontologies.UpdateEntity)
	v1.DELETE("/entities/:id", ontologies.DeleteEntity)
	v1.POST("/entities/:id/versions", ontologies.NewEntityVersion)
	v1.POST("/entities/:id/fields", ontologies.AddField)
	v1.GET("/entities/:id/fields", ontologies.ListFields)
	v1.PATCH("/fields/:fieldId", ontologies.UpdateField)
	v1.DELETE("/fields/:fieldId", ontologies.DeleteField)

	collab := handlers.NewCollaborationHandler(s.services.Collaboration)
	v1.POST("/workspaces/:id/scenarios", collab.CreateScenario)
	v1.GET("/workspaces/:id/scenarios", collab.ListScenarios)
	v1.GET("/scenarios/:id", collab.GetScenario)
	v1.PATCH("/scenarios/:id", collab.UpdateScenario)
	v1.DELETE("/scenarios/:id", collab.DeleteScenario)
	v1.POST("/scenarios/:id/metrics", collab.AddScenarioMetric)
	v1.GET("/scenarios/:id/metrics", collab.ListScenarioMetrics)
	v1.POST("/runs", collab.CreateRun)
	v1.GET("/runs", collab.ListRuns)
	v1.GET("/runs/:id", collab.GetRun)
	v1.POST("/runs/:id/transition", collab.TransitionRun)
	v1.POST("/runs/:id/logs", collab.AppendRunLog)
	v1.GET("/runs/:id/logs", collab.ListRunLogs)
	v1.POST("/workspaces/:id/changesets", collab.CreateChangeset)
	v1.GET("/workspaces/:id/changesets", collab.ListChangesets)
	v1.GET("/changesets/:id", collab.GetChangeset)
	v1.PUT("/changesets/:id/comment", collab.SetChangesetComment)
	v1.POST("/changesets/:id/status", collab.SetChangesetStatus)
	v1.DELETE("/changesets/:id", collab.DeleteChangeset)
	v1.PUT("/changesets/:id/nodes/:nodeId", collab.UpsertNodePatch)
	v1.DELETE("/changesets/:id/nodes/:nodeId", collab.DeleteNodePatch)
	v1.PUT("/changesets/:id/edges/:edgeId", collab.UpsertEdgePatch)
	v1.DELETE("/changesets/:id/edges/:edgeId", collab.DeleteEdgePatch)
	v1.POST("/insights", collab.CreateInsight)
	v1.GET("/insights", collab.ListInsights)
	v1.GET("/insights/:id", collab.GetInsight)
	v1.DELETE("/insights/:id", collab.DeleteInsight)
	v1.POST("/workspaces/:id/notes", collab.CreateNote)
	v1.GET("/workspaces/:id/notes", collab.ListNotes)
	v1.GET("/notes/:id", collab.GetNote)
	v1.PATCH("/notes/:id", collab.UpdateNote)
	v1.DELETE("/notes/:id", collab.DeleteNote)
	v1.POST("/workspaces/:id/attachments", collab.CreateAttachment)
	v1.GET("/workspaces/:id/attachments", collab.ListAttachments)
	v1.GET("/attachments/:id", collab.GetAttachment)
	v1.POST("/attachments/:id/processing", collab.UpdateProcessing)
	v1.DELETE("/attachments/:id", collab.DeleteAttachment)
	v1.POST("/workspaces/:id/analyses", collab.CreateAnalysis)
	v1.GET("/workspaces/:id/analyses", collab.ListAnalyses)
	v1.GET("/analyses/:id", collab.GetAnalysis)
	v1.POST("/analyses/:id/metrics", collab.AddAnalysisMetric)
	v1.GET("/analyses/:id/metrics", collab.ListAnalysisMetrics)
	v1.PUT("/workspaces/:id/ai-team", collab.UpsertAITeam)
	v1.GET("/workspaces/:id/ai-team", collab.GetAITeam)
	v1.DELETE("/workspaces/:id/ai-team", collab.DeleteAITeam)
	v1.POST("/workspaces/:id/ai-team/members", collab.AddAITeamMember)
	v1.PUT("/ai-team-members/:id", collab.UpdateAITeamMember)
	v1.DELETE("/ai-team-members/:id", collab.RemoveAITeamMember)

	reports := handlers.NewReportHandler(s.services.Reports)
	v1.POST("/report-templates", reports.CreateTemplate)
	v1.GET("/report-templates", reports.ListTemplates)
	v1.GET("/report-templates/:id", reports.GetTemplate)
	v1.GET("/report-templates/:id/versions", reports.ListTemplateVersions)
	v1.POST("/report-templates/:id/versions", reports.CreateTemplateVersion)
	v1.POST("/reports", reports.CreateReport)
	v1.GET("/reports", reports.ListReports)
	v1.GET("/reports/:id", reports.GetReport)
	v1.PATCH("/reports/:id", reports.UpdateReport)
	v1.PUT("/reports/:id/generation", reports.SetGenerationRun)
	v1.DELETE("/reports/:id", reports.DeleteReport)
	v1.POST("/reports/:id/sections", reports.AddSection)
	v1.POST("/reports/:id/sources", reports.AddSource)
	v1.GET("/reports/:id/sources", reports.ListSources)
	v1.DELETE("/sources/:id", reports.DeleteSource)
	v1.DELETE("/report-sections/:id", reports.DeleteSection)
	v1.POST("/report-sections/:id/blocks", reports.AddBlock)
	v1.DELETE("/report-blocks/:id", reports.DeleteBlock)
	v1.PUT("/report-blocks/:id/content", reports.SetBlockContent)

	agents := handlers.NewAgentHandler(s.services.Agents)
	v1.POST("/intents", agents.CreateIntent)
	v1.GET("/intents", agents.ListIntents)
	v1.GET("/intents/:id", agents.GetIntent)
	v1.PUT("/intents/:id", agents.UpdateIntent)
	v1.DELETE("/intents/:id", agents.DeleteIntent)
	v1.POST("/agent-roles", agents.CreateAgentRole)
	v1.GET("/agent-roles", agents.ListAgentRoles)
	v1.GET("/agent-roles/:id", agents.GetAgentRole)
	v1.PUT("/agent-roles/:id", agents.UpdateAgentRole)
	v1.DELETE("/agent-roles/:id", agents.DeleteAgentRole)
	v1.PUT("/agent-roles/:id/intents", agents.SetAgentRoleIntents)
	v1.GET("/agent-roles/:id/intents", agents.ListAgentRoleIntents)
	v1.POST("/agent-roles/:id/keys", agents.IssueAccessKey)
	v1.GET("/agent-roles/:id/keys", agents.ListAccessKeys)
	v1.DELETE("/access-keys/:id", agents.RevokeAccessKey)
	v1.POST("/agents/authorize", agents.Authorize)
}

func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("THEO-CORE REST API server starting", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down THEO-CORE gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
