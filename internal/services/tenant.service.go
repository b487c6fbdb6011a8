package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/internal/tenancy"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

// DirectoryStore is the persistence needed by TenantService.
type DirectoryStore interface {
	repo.TenantStore
	repo.UserStore
	repo.CompanyStore
}

// TenantService provisions tenants and manages the tenant directory: users,
// roles and companies.
type TenantService struct {
	store    DirectoryStore
	resolver *tenancy.Resolver
	logger   logger.Logger
}

func NewTenantService(store DirectoryStore, resolver *tenancy.Resolver, log logger.Logger) *TenantService {
	return &TenantService{store: store, resolver: resolver, logger: log}
}

// ProvisionTenant creates a tenant. The new id is bound into ctx before the
// insert so the row passes the tenant policy.
func (s *TenantService) ProvisionTenant(ctx context.Context, in models.TenantInput) (*models.Tenant, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id := uuid.New()
	t, err := s.store.CreateTenant(tenancy.WithTenant(ctx, id), id, in)
	if err != nil {
		return nil, fmt.Errorf("provision tenant: %w", err)
	}
	s.logger.Info("Tenant provisioned", "tenant_id", t.ID, "name", t.Name, "region", t.Region)
	return t, nil
}

func (s *TenantService) currentTenantID(ctx context.Context) (uuid.UUID, error) {
	id, _, ok := s.resolver.Resolve(ctx)
	if !ok {
		return uuid.Nil, repo.ErrNotFound
	}
	return id, nil
}

// GetCurrentTenant returns the tenant bound to ctx.
func (s *TenantService) GetCurrentTenant(ctx context.Context) (*models.Tenant, error) {
	id, err := s.currentTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.GetTenant(ctx, id)
}

func (s *TenantService) UpdateCurrentTenant(ctx context.Context, in models.TenantInput) (*models.Tenant, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id, err := s.currentTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateTenant(ctx, id, in)
}

func (s *TenantService) CreateUser(ctx context.Context, in models.UserInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateUser(ctx, in)
}

func (s *TenantService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *TenantService) ListUsers(ctx context.Context, page repo.Page) ([]*models.User, error) {
	return s.store.ListUsers(ctx, page.Normalize())
}

func (s *TenantService) UpdateUser(ctx context.Context, id uuid.UUID, patch models.UserPatch) (*models.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpdateUser(ctx, id, patch)
}

func (s *TenantService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteUser(ctx, id)
}

func (s *TenantService) CreateRole(ctx context.Context, name, description string) (*models.Role, error) {
	if name == "" {
		return nil, &models.ValidationError{Field: "name", Message: "is required"}
	}
	return s.store.CreateRole(ctx, name, description)
}

func (s *TenantService) ListRoles(ctx context.Context) ([]*models.Role, error) {
	return s.store.ListRoles(ctx)
}

func (s *TenantService) DeleteRole(ctx context.Context, name string) error {
	return s.store.DeleteRole(ctx, name)
}

func (s *TenantService) AssignRole(ctx context.Context, userID uuid.UUID, role string) error {
	return s.store.AssignRole(ctx, userID, role)
}

func (s *TenantService) RevokeRole(ctx context.Context, userID uuid.UUID, role string) error {
	return s.store.RevokeRole(ctx, userID, role)
}

func (s *TenantService) ListUserRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.store.ListUserRoles(ctx, userID)
}

func (s *TenantService) CreateCompany(ctx context.Context, in models.CompanyInput) (*models.Company, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateCompany(ctx, in)
}

func (s *TenantService) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return s.store.GetCompany(ctx, id)
}

func (s *TenantService) ListCompanies(ctx context.Context, page repo.Page) ([]*models.Company, error) {
	return s.store.ListCompanies(ctx, page.Normalize())
}

func (s *TenantService) UpdateCompany(ctx context.Context, id uuid.UUID, patch models.CompanyPatch) (*models.Company, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpdateCompany(ctx, id, patch)
}

func (s *TenantService) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteCompany(ctx, id)
}
