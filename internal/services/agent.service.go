package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/monitoring"
	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/internal/tenancy"
	"github.com/platformbuilds/theo-core/internal/tracing"
	"github.com/platformbuilds/theo-core/pkg/cache"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

const issuedKeyWarning = "Store this key now. It cannot be retrieved again."

// AgentService manages intents, agent roles and their access keys, and
// authorizes agent calls.
type AgentService struct {
	store     repo.AgentStore
	cache     cache.ValkeyCluster
	resolver  *tenancy.Resolver
	keyPrefix string
	cacheTTL  time.Duration
	logger    logger.Logger
	now       func() time.Time
}

func NewAgentService(store repo.AgentStore, c cache.ValkeyCluster, resolver *tenancy.Resolver, keyPrefix string, cacheTTL time.Duration, log logger.Logger) *AgentService {
	return &AgentService{
		store:     store,
		cache:     c,
		resolver:  resolver,
		keyPrefix: keyPrefix,
		cacheTTL:  cacheTTL,
		logger:    log,
		now:       time.Now,
	}
}

func (s *AgentService) CreateIntent(ctx context.Context, in models.IntentInput) (*models.Intent, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateIntent(ctx, in)
}

func (s *AgentService) GetIntent(ctx context.Context, id uuid.UUID) (*models.Intent, error) {
	return s.store.GetIntent(ctx, id)
}

func (s *AgentService) ListIntents(ctx context.Context, page repo.Page) ([]*models.Intent, error) {
	return s.store.ListIntents(ctx, page.Normalize())
}

// UpdateIntent may rename the op id, so roles granting it lose their cached
// allow-list.
func (s *AgentService) UpdateIntent(ctx context.Context, id uuid.UUID, in models.IntentInput) (*models.Intent, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	out, err := s.store.UpdateIntent(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.invalidateIntent(ctx, id)
	return out, nil
}

// DeleteIntent removes the intent. The granting roles are collected first
// because the delete also drops their links to it.
func (s *AgentService) DeleteIntent(ctx context.Context, id uuid.UUID) error {
	roles := s.rolesMatching(ctx, grantsIntent(id))
	if err := s.store.DeleteIntent(ctx, id); err != nil {
		return err
	}
	s.InvalidateRoles(ctx, roles)
	return nil
}

// CreateAgentRole creates the role and then sets its intents. If the second
// step fails the role exists without intents and a PartialError carries its
// id; passing that id back as ResumeRoleID turns the retry into an update.
func (s *AgentService) CreateAgentRole(ctx context.Context, in models.AgentRoleInput) (*models.AgentRole, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var (
		role *models.AgentRole
		err  error
	)
	if in.ResumeRoleID != nil {
		role, err = s.store.UpdateAgentRole(ctx, *in.ResumeRoleID, in)
	} else {
		role, err = s.store.CreateAgentRole(ctx, in)
	}
	if err != nil {
		return nil, err
	}

	if in.IntentIDs != nil {
		if err := s.SetAgentRoleIntents(ctx, role.ID, in.IntentIDs); err != nil {
			s.logger.Warn("Agent role created without intents", "agent_role_id", role.ID, "error", err)
			return nil, &PartialError{ID: role.ID, Op: "create agent role", Err: err}
		}
	}
	return s.store.GetAgentRole(ctx, role.ID)
}

func (s *AgentService) GetAgentRole(ctx context.Context, id uuid.UUID) (*models.AgentRole, error) {
	return s.store.GetAgentRole(ctx, id)
}

func (s *AgentService) ListAgentRoles(ctx context.Context) ([]*models.AgentRole, error) {
	return s.store.ListAgentRoles(ctx)
}

// UpdateAgentRole replaces the role's fields, and its intents when IntentIDs
// is non-nil.
func (s *AgentService) UpdateAgentRole(ctx context.Context, id uuid.UUID, in models.AgentRoleInput) (*models.AgentRole, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.UpdateAgentRole(ctx, id, in); err != nil {
		return nil, err
	}
	s.invalidateRole(ctx, id)
	if in.IntentIDs != nil {
		if err := s.SetAgentRoleIntents(ctx, id, in.IntentIDs); err != nil {
			return nil, &PartialError{ID: id, Op: "update agent role", Err: err}
		}
	}
	return s.store.GetAgentRole(ctx, id)
}

func (s *AgentService) DeleteAgentRole(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteAgentRole(ctx, id); err != nil {
		return err
	}
	s.invalidateRole(ctx, id)
	return nil
}

// SetAgentRoleIntents replaces the allow-list in one transaction.
func (s *AgentService) SetAgentRoleIntents(ctx context.Context, roleID uuid.UUID, intentIDs []uuid.UUID) error {
	if intentIDs == nil {
		intentIDs = []uuid.UUID{}
	}
	if err := s.store.SetAgentRoleIntents(ctx, roleID, intentIDs); err != nil {
		return err
	}
	s.invalidateRole(ctx, roleID)
	return nil
}

func (s *AgentService) ListAgentRoleIntents(ctx context.Context, roleID uuid.UUID) ([]*models.Intent, error) {
	return s.store.ListAgentRoleIntents(ctx, roleID)
}

// IssueAccessKey creates a key for the role. Only the hash and a display
// prefix are stored; the secret is in the result and nowhere else.
func (s *AgentService) IssueAccessKey(ctx context.Context, roleID uuid.UUID, in models.AccessKeyInput) (*models.IssuedAccessKey, error) {
	if in.ExpiresAt != nil && !in.ExpiresAt.After(s.now()) {
		return nil, &models.ValidationError{Field: "expiresAt", Message: "must be in the future"}
	}
	secret, err := models.GenerateAccessKey(s.keyPrefix)
	if err != nil {
		return nil, err
	}
	key, err := s.store.CreateAccessKey(ctx, models.AgentRoleAccessKey{
		AgentRoleID: roleID,
		Name:        in.Name,
		KeyHash:     models.HashAccessKey(secret),
		Prefix:      models.AccessKeyPrefix(secret),
		ExpiresAt:   in.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Agent access key issued", "agent_role_id", roleID, "key_id", key.ID, "prefix", key.Prefix)
	return &models.IssuedAccessKey{Key: key, Secret: secret, Warning: issuedKeyWarning}, nil
}

func (s *AgentService) ListAccessKeys(ctx context.Context, roleID uuid.UUID) ([]*models.AgentRoleAccessKey, error) {
	return s.store.ListAccessKeys(ctx, roleID)
}

// RevokeAccessKey deletes the key. Keys are looked up on every request, so
// revocation takes effect immediately.
func (s *AgentService) RevokeAccessKey(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteAccessKey(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Agent access key revoked", "key_id", id)
	return nil
}

// AuthenticateKey resolves a presented secret to its stored key. Unknown,
// malformed and expired keys are all ErrUnauthorized.
func (s *AgentService) AuthenticateKey(ctx context.Context, secret string) (*models.AgentRoleAccessKey, error) {
	if !models.LooksLikeAccessKey(secret, s.keyPrefix) {
		monitoring.RecordAuthAttempt("agent_key", "failure")
		return nil, ErrUnauthorized
	}
	key, err := s.store.FindAccessKeyByHash(ctx, models.HashAccessKey(secret))
	if errors.Is(err, repo.ErrNotFound) {
		monitoring.RecordAuthAttempt("agent_key", "failure")
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("look up access key: %w", err)
	}
	if key.IsExpired(s.now()) {
		monitoring.RecordAuthAttempt("agent_key", "expired")
		return nil, ErrUnauthorized
	}
	monitoring.RecordAuthAttempt("agent_key", "success")
	return key, nil
}

// Authorize checks that secret may invoke the intent with opID.
func (s *AgentService) Authorize(ctx context.Context, req models.AuthorizeRequest) (*models.AgentGrant, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "agents", "authorize", attribute.String("agent.op_id", req.OpID))
	defer span.End()
	grant, err := s.authorize(ctx, req)
	tracing.RecordError(span, err)
	return grant, err
}

func (s *AgentService) authorize(ctx context.Context, req models.AuthorizeRequest) (*models.AgentGrant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key, err := s.AuthenticateKey(ctx, req.Secret)
	if err != nil {
		return nil, err
	}
	grants, err := s.allowList(ctx, key.TenantID, key.AgentRoleID)
	if err != nil {
		return nil, err
	}
	intentID, ok := grants.Intents[req.OpID]
	if !ok {
		s.logger.Warn("Agent intent denied", "agent_role_id", key.AgentRoleID, "op_id", req.OpID)
		return nil, ErrForbidden
	}
	return &models.AgentGrant{
		AccessKeyID:     key.ID,
		AgentRoleID:     key.AgentRoleID,
		TenantID:        key.TenantID,
		IntentID:        intentID,
		ReadOntologyID:  grants.ReadOntologyID,
		WriteOntologyID: grants.WriteOntologyID,
	}, nil
}

// roleGrants is the cached authorization view of a role.
type roleGrants struct {
	ReadOntologyID  *uuid.UUID           `json:"readOntologyId,omitempty"`
	WriteOntologyID *uuid.UUID           `json:"writeOntologyId,omitempty"`
	Intents         map[string]uuid.UUID `json:"intents"`
}

func allowListKey(tenantID, roleID uuid.UUID) string {
	return fmt.Sprintf("agentrole:intents:%s:%s", tenantID, roleID)
}

// allowList serves the role's grants from cache, loading from the store on a
// miss. Cache failures fall back to the store.
func (s *AgentService) allowList(ctx context.Context, tenantID, roleID uuid.UUID) (*roleGrants, error) {
	key := allowListKey(tenantID, roleID)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var g roleGrants
		if err := json.Unmarshal(raw, &g); err == nil {
			return &g, nil
		}
		s.logger.Warn("Discarding malformed allow-list cache entry", "key", key)
	} else if !errors.Is(err, cache.ErrKeyNotFound) {
		s.logger.Warn("Allow-list cache read failed", "key", key, "error", err)
	}

	role, err := s.store.GetAgentRole(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("load agent role: %w", err)
	}
	intents, err := s.store.ListAgentRoleIntents(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("load agent role intents: %w", err)
	}
	g := &roleGrants{
		ReadOntologyID:  role.ReadOntologyID,
		WriteOntologyID: role.WriteOntologyID,
		Intents:         make(map[string]uuid.UUID, len(intents)),
	}
	for _, i := range intents {
		g.Intents[i.OpID] = i.ID
	}
	if err := s.cache.Set(ctx, key, g, s.cacheTTL); err != nil {
		s.logger.Warn("Allow-list cache write failed", "key", key, "error", err)
	}
	return g, nil
}

func (s *AgentService) invalidateRole(ctx context.Context, roleID uuid.UUID) {
	tenantID := s.resolver.MustTenant(ctx)
	if err := s.cache.Delete(ctx, allowListKey(tenantID, roleID)); err != nil {
		s.logger.Warn("Allow-list cache invalidation failed", "agent_role_id", roleID, "error", err)
	}
}

// invalidateIntent drops the cached allow-list of every role granting intentID.
func (s *AgentService) invalidateIntent(ctx context.Context, intentID uuid.UUID) {
	s.InvalidateRoles(ctx, s.rolesMatching(ctx, grantsIntent(intentID)))
}

func grantsIntent(intentID uuid.UUID) func(*models.AgentRole) bool {
	return func(r *models.AgentRole) bool {
		for _, id := range r.IntentIDs {
			if id == intentID {
				return true
			}
		}
		return false
	}
}

// RolesForOntology lists the roles whose read or write ontology is ontologyID.
func (s *AgentService) RolesForOntology(ctx context.Context, ontologyID uuid.UUID) []uuid.UUID {
	return s.rolesMatching(ctx, func(r *models.AgentRole) bool {
		return (r.ReadOntologyID != nil && *r.ReadOntologyID == ontologyID) ||
			(r.WriteOntologyID != nil && *r.WriteOntologyID == ontologyID)
	})
}

// InvalidateRoles drops the cached allow-lists of roleIDs.
func (s *AgentService) InvalidateRoles(ctx context.Context, roleIDs []uuid.UUID) {
	for _, id := range roleIDs {
		s.invalidateRole(ctx, id)
	}
}

func (s *AgentService) rolesMatching(ctx context.Context, match func(*models.AgentRole) bool) []uuid.UUID {
	roles, err := s.store.ListAgentRoles(ctx)
	if err != nil {
		s.logger.Warn("Could not list agent roles for cache invalidation", "error", err)
		return nil
	}
	var ids []uuid.UUID
	for _, r := range roles {
		if match(r) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
