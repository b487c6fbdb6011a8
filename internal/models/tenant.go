package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Tenant is the isolation boundary. Tenants are never hard-deleted.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"createdAt"`
}

type TenantInput struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

func (t *TenantInput) Validate() error {
	return requireText("name", t.Name)
}

type User struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenantId"`
	Email           string          `json:"email"`
	ExternalSubject *string         `json:"externalSubject,omitempty"`
	DisplayName     string          `json:"displayName"`
	IsAdmin         bool            `json:"isAdmin"`
	Preferences     json.RawMessage `json:"preferences,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type UserInput struct {
	Email           string          `json:"email"`
	ExternalSubject *string         `json:"externalSubject,omitempty"`
	DisplayName     string          `json:"displayName"`
	IsAdmin         bool            `json:"isAdmin"`
	Preferences     json.RawMessage `json:"preferences,omitempty"`
}

func (u *UserInput) Validate() error {
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	return requireJSONObject("preferences", u.Preferences)
}

// UserPatch carries partial updates; nil fields are left unchanged.
type UserPatch struct {
	DisplayName *string         `json:"displayName,omitempty"`
	IsAdmin     *bool           `json:"isAdmin,omitempty"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
}

func (p *UserPatch) Validate() error {
	return requireJSONObject("preferences", p.Preferences)
}

// Role is keyed by (tenant, name).
type Role struct {
	TenantID    uuid.UUID `json:"tenantId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type UserRole struct {
	TenantID uuid.UUID `json:"tenantId"`
	UserID   uuid.UUID `json:"userId"`
	RoleName string    `json:"roleName"`
}

type Company struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenantId"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CompanyInput struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (c *CompanyInput) Validate() error {
	return requireText("name", c.Name)
}

type CompanyPatch struct {
	Name    *string `json:"name,omitempty"`
	Content *string `json:"content,omitempty"`
}

func (p *CompanyPatch) Validate() error {
	if p.Name != nil {
		return requireText("name", *p.Name)
	}
	return nil
}
