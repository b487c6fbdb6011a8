// Package tenancy carries the caller's tenant identity from the request edge
// down to connection acquisition.
//
// The HTTP layer attaches a Context to the request's context.Context. When the
// store acquires a pooled connection it asks a Resolver which tenant to bind.
// Nothing here is process-global: two requests for different tenants can share
// a pool without seeing each other's binding.
package tenancy

import (
	"context"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Source identifies where a resolved tenant id came from.
type Source string

const (
	SourceClaim  Source = "claim"
	SourceHeader Source = "header"
	SourceEnv    Source = "env"
	SourceNone   Source = "none"
)

// Context is the per-request tenant information.
type Context struct {
	// Claim is the tenant asserted by an authenticated principal.
	Claim string
	// Requested is an explicit tenant from a header or query parameter.
	Requested string
}

type ctxKey struct{}

// WithContext returns ctx carrying tc.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// FromContext returns the tenant Context attached to ctx, if any.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}

// WithTenant binds id as if it had been asserted by a principal. Used by
// provisioning and by non-HTTP callers that already know the tenant.
func WithTenant(ctx context.Context, id uuid.UUID) context.Context {
	tc, _ := FromContext(ctx)
	tc.Claim = id.String()
	return WithContext(ctx, tc)
}

// Resolver picks the tenant for a connection: principal claim, then explicit
// request, then the configured environment variable.
type Resolver struct {
	envVar string
	getenv func(string) string
}

// NewResolver returns a Resolver. An empty envVar disables the environment
// fallback.
func NewResolver(envVar string) *Resolver {
	return &Resolver{envVar: envVar, getenv: os.Getenv}
}

// Resolve returns the tenant to bind. The first non-empty candidate wins;
// if that candidate is not a valid id the result is unresolved rather than
// falling through to a lower-priority source.
func (r *Resolver) Resolve(ctx context.Context) (uuid.UUID, Source, bool) {
	tc, _ := FromContext(ctx)

	candidates := []struct {
		value  string
		source Source
	}{
		{tc.Claim, SourceClaim},
		{tc.Requested, SourceHeader},
	}
	if r != nil && r.envVar != "" {
		candidates = append(candidates, struct {
			value  string
			source Source
		}{r.getenv(r.envVar), SourceEnv})
	}

	for _, c := range candidates {
		v := strings.TrimSpace(c.value)
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil || id == uuid.Nil {
			return uuid.Nil, c.source, false
		}
		return id, c.source, true
	}
	return uuid.Nil, SourceNone, false
}

// MustTenant returns the resolved tenant or uuid.Nil. Convenience for code
// that only needs the id for cache keys or logging.
func (r *Resolver) MustTenant(ctx context.Context) uuid.UUID {
	id, _, _ := r.Resolve(ctx)
	return id
}
