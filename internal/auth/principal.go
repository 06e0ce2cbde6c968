package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned by verifiers for missing, malformed or rejected tokens.
var ErrInvalidToken = errors.New("invalid token")

// SystemActor names writes made without an authenticated principal.
const SystemActor = "system"

// Principal is the authenticated caller of a request.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Verifier resolves a bearer token to a principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

type principalKey struct{}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored on ctx, if any.
func FromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// Actor identifies the caller for created_by, approved_by and audit columns.
func Actor(ctx context.Context) string {
	p, ok := FromContext(ctx)
	if !ok {
		return SystemActor
	}
	if p.ID != "" {
		return p.ID
	}
	if p.Email != "" {
		return p.Email
	}
	return SystemActor
}
