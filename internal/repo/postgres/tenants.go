package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
)

const tenantColumns = "id, name, region, created_at"

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	if err := row.Scan(&t.ID, &t.Name, &t.Region, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTenant inserts a tenant with a caller-chosen id. The connection must
// already be bound to id or the row-level-security check rejects the insert.
func (s *Store) CreateTenant(ctx context.Context, id uuid.UUID, in models.TenantInput) (*models.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`INSERT INTO tenants (id, name, region) VALUES ($1, $2, $3) RETURNING `+tenantColumns,
		id, in.Name, in.Region))
	return t, wrap("create tenant", err)
}

func (s *Store) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	return t, wrap("get tenant", err)
}

func (s *Store) UpdateTenant(ctx context.Context, id uuid.UUID, in models.TenantInput) (*models.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`UPDATE tenants SET name = $2, region = $3 WHERE id = $1 RETURNING `+tenantColumns,
		id, in.Name, in.Region))
	return t, wrap("update tenant", err)
}

const userColumns = "id, tenant_id, email, external_subject, display_name, is_admin, preferences, created_at, updated_at"

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.ExternalSubject, &u.DisplayName,
		&u.IsAdmin, &u.Preferences, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, in models.UserInput) (*models.User, error) {
	prefs := in.Preferences
	if len(prefs) == 0 {
		prefs = []byte("{}")
	}
	u, err := scanUser(s.pool.QueryRow(ctx,
		`INSERT INTO users (email, external_subject, display_name, is_admin, preferences)
		 VALUES ($1, $2, $3, $4, $5) RETURNING `+userColumns,
		in.Email, in.ExternalSubject, in.DisplayName, in.IsAdmin, string(prefs)))
	return u, wrap("create user", err)
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, wrap("get user", err)
}

func (s *Store) ListUsers(ctx context.Context, page repo.Page) ([]*models.User, error) {
	limit, offset := pageArgs(page)
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, wrap("list users", err)
	}
	users, err := collect(rows, scanUser)
	return users, wrap("list users", err)
}

func (s *Store) UpdateUser(ctx context.Context, id uuid.UUID, patch models.UserPatch) (*models.User, error) {
	var u updateSet
	if patch.DisplayName != nil {
		u.set("display_name", *patch.DisplayName)
	}
	if patch.IsAdmin != nil {
		u.set("is_admin", *patch.IsAdmin)
	}
	if len(patch.Preferences) > 0 {
		u.set("preferences", string(patch.Preferences))
	}
	if u.empty() {
		return s.GetUser(ctx, id)
	}
	u.setRaw("updated_at = now()")
	where := u.arg(id)
	user, err := scanUser(s.pool.QueryRow(ctx,
		`UPDATE users SET `+u.String()+` WHERE id = `+where+` RETURNING `+userColumns, u.args...))
	return user, wrap("update user", err)
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return expectRow("delete user", tag, err)
}

func (s *Store) CreateRole(ctx context.Context, name, description string) (*models.Role, error) {
	var r models.Role
	err := s.pool.QueryRow(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING tenant_id, name, description, created_at`,
		name, description).Scan(&r.TenantID, &r.Name, &r.Description, &r.CreatedAt)
	if err != nil {
		return nil, wrap("create role", err)
	}
	return &r, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]*models.Role, error) {
	rows, err := s.pool.Query(ctx, `SELECT tenant_id, name, description, created_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, wrap("list roles", err)
	}
	roles, err := collect(rows, func(row pgx.Row) (*models.Role, error) {
		var r models.Role
		if err := row.Scan(&r.TenantID, &r.Name, &r.Description, &r.CreatedAt); err != nil {
			return nil, err
		}
		return &r, nil
	})
	return roles, wrap("list roles", err)
}

func (s *Store) DeleteRole(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM roles WHERE name = $1`, name)
	return expectRow("delete role", tag, err)
}

func (s *Store) AssignRole(ctx context.Context, userID uuid.UUID, roleName string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireVisible(ctx, tx, "users", "userId", &userID); err != nil {
			return wrap("assign role", err)
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_name) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, roleName)
		return wrap("assign role", err)
	})
}

func (s *Store) RevokeRole(ctx context.Context, userID uuid.UUID, roleName string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_name = $2`, userID, roleName)
	return expectRow("revoke role", tag, err)
}

func (s *Store) ListUserRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT role_name FROM user_roles WHERE user_id = $1 ORDER BY role_name`, userID)
	if err != nil {
		return nil, wrap("list user roles", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrap("list user roles", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

const companyColumns = "id, tenant_id, name, content, created_at, updated_at"

func scanCompany(row pgx.Row) (*models.Company, error) {
	var c models.Company
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCompany(ctx context.Context, in models.CompanyInput) (*models.Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx,
		`INSERT INTO companies (name, content) VALUES ($1, $2) RETURNING `+companyColumns, in.Name, in.Content))
	return c, wrap("create company", err)
}

func (s *Store) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	return c, wrap("get company", err)
}

func (s *Store) ListCompanies(ctx context.Context, page repo.Page) ([]*models.Company, error) {
	limit, offset := pageArgs(page)
	rows, err := s.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, wrap("list companies", err)
	}
	companies, err := collect(rows, scanCompany)
	return companies, wrap("list companies", err)
}

func (s *Store) UpdateCompany(ctx context.Context, id uuid.UUID, patch models.CompanyPatch) (*models.Company, error) {
	var u updateSet
	if patch.Name != nil {
		u.set("name", *patch.Name)
	}
	if patch.Content != nil {
		u.set("content", *patch.Content)
	}
	if u.empty() {
		return s.GetCompany(ctx, id)
	}
	u.setRaw("updated_at = now()")
	where := u.arg(id)
	c, err := scanCompany(s.pool.QueryRow(ctx,
		`UPDATE companies SET `+u.String()+` WHERE id = `+where+` RETURNING `+companyColumns, u.args...))
	return c, wrap("update company", err)
}

func (s *Store) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	return expectRow("delete company", tag, err)
}
