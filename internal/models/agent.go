package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Intent is a named operation an agent may invoke.
type Intent struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenantId"`
	OpID         string     `json:"opId"`
	Name         string     `json:"name"`
	Route        *string    `json:"route,omitempty"`
	DataSource   *string    `json:"dataSource,omitempty"`
	InputSchema  *string    `json:"inputSchema,omitempty"`
	OutputSchema *string    `json:"outputSchema,omitempty"`
	Grounding    *string    `json:"grounding,omitempty"`
	OntologyID   *uuid.UUID `json:"ontologyId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type IntentInput struct {
	OpID         string     `json:"opId"`
	Name         string     `json:"name"`
	Route        *string    `json:"route,omitempty"`
	DataSource   *string    `json:"dataSource,omitempty"`
	InputSchema  *string    `json:"inputSchema,omitempty"`
	OutputSchema *string    `json:"outputSchema,omitempty"`
	Grounding    *string    `json:"grounding,omitempty"`
	OntologyID   *uuid.UUID `json:"ontologyId,omitempty"`
}

func (i *IntentInput) Validate() error {
	if err := requireText("opId", i.OpID); err != nil {
		return err
	}
	if err := requireText("name", i.Name); err != nil {
		return err
	}
	if i.InputSchema != nil {
		if err := ValidateSchemaText("inputSchema", *i.InputSchema); err != nil {
			return err
		}
	}
	if i.OutputSchema != nil {
		return ValidateSchemaText("outputSchema", *i.OutputSchema)
	}
	return nil
}

// AgentRole is a credential principal limited to an ontology pair and an
// intent allow-list.
type AgentRole struct {
	ID              uuid.UUID   `json:"id"`
	TenantID        uuid.UUID   `json:"tenantId"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	ReadOntologyID  *uuid.UUID  `json:"readOntologyId,omitempty"`
	WriteOntologyID *uuid.UUID  `json:"writeOntologyId,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
	IntentIDs       []uuid.UUID `json:"intentIds,omitempty"`
}

type AgentRoleInput struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	ReadOntologyID  *uuid.UUID `json:"readOntologyId,omitempty"`
	WriteOntologyID *uuid.UUID `json:"writeOntologyId,omitempty"`
	// IntentIDs, when non-nil, becomes the role's full allow-list.
	IntentIDs []uuid.UUID `json:"intentIds,omitempty"`
	// ResumeRoleID is the id returned by an earlier partially failed create.
	// The retry updates that role instead of creating another.
	ResumeRoleID *uuid.UUID `json:"resumeRoleId,omitempty"`
}

func (r *AgentRoleInput) Validate() error {
	return requireText("name", r.Name)
}

// AgentRoleAccessKey never holds the secret; only its hash and a short prefix.
type AgentRoleAccessKey struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenantId"`
	AgentRoleID uuid.UUID  `json:"agentRoleId"`
	Name        *string    `json:"name,omitempty"`
	KeyHash     string     `json:"-"`
	Prefix      string     `json:"prefix"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// IsExpired reports whether the key has expired as of now.
func (k *AgentRoleAccessKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}

type AccessKeyInput struct {
	Name      *string    `json:"name,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// IssuedAccessKey is returned once, at issuance.
type IssuedAccessKey struct {
	Key     *AgentRoleAccessKey `json:"key"`
	Secret  string              `json:"secret"`
	Warning string              `json:"warning"`
}

const (
	accessKeyEntropyBytes = 32
	// AccessKeyPrefixLen is the number of leading secret characters kept for display.
	AccessKeyPrefixLen = 8
)

// GenerateAccessKey returns a new secret: prefix followed by 64 hex chars.
func GenerateAccessKey(prefix string) (string, error) {
	b := make([]byte, accessKeyEntropyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate access key: %w", err)
	}
	return prefix + hex.EncodeToString(b), nil
}

// HashAccessKey is the one-way function applied before storage and lookup.
func HashAccessKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// AccessKeyPrefix returns the non-secret display prefix of a key.
func AccessKeyPrefix(secret string) string {
	if len(secret) <= AccessKeyPrefixLen {
		return secret
	}
	return secret[:AccessKeyPrefixLen]
}

// LooksLikeAccessKey reports whether token carries the agent key prefix.
func LooksLikeAccessKey(token, prefix string) bool {
	return prefix != "" && strings.HasPrefix(token, prefix) && len(token) > len(prefix)
}

// AuthorizeRequest asks whether a presented secret may invoke an intent.
type AuthorizeRequest struct {
	Secret string `json:"secret"`
	OpID   string `json:"opId"`
}

func (r *AuthorizeRequest) Validate() error {
	if err := requireText("secret", r.Secret); err != nil {
		return err
	}
	return requireText("opId", r.OpID)
}

// AgentGrant is the outcome of a successful authorization.
type AgentGrant struct {
	AccessKeyID     uuid.UUID  `json:"accessKeyId"`
	AgentRoleID     uuid.UUID  `json:"agentRoleId"`
	TenantID        uuid.UUID  `json:"tenantId"`
	IntentID        uuid.UUID  `json:"intentId"`
	ReadOntologyID  *uuid.UUID `json:"readOntologyId,omitempty"`
	WriteOntologyID *uuid.UUID `json:"writeOntologyId,omitempty"`
}
