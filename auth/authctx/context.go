// Package authctx carries the authenticated principal through a request
// context. The enforcer stores it; handlers read it.
//
//	ctx = authctx.WithPrincipal(ctx, principal)
//	p, ok := authctx.PrincipalFrom(ctx)
package authctx

import (
	"context"
	"errors"

	"github.com/kbukum/authgate/auth"
)

type contextKey struct{}

var principalKey = contextKey{}

// ErrNoPrincipal is returned when the context carries no principal.
var ErrNoPrincipal = errors.New("authctx: no principal in context")

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal stored in ctx.
func PrincipalFrom(ctx context.Context) (*auth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*auth.Principal)
	return p, ok && p != nil
}

// MustPrincipal panics when ctx carries no principal. Use only behind the enforcer.
func MustPrincipal(ctx context.Context) *auth.Principal {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		panic("authctx: principal not found in context")
	}
	return p
}

// PrincipalOrError returns ErrNoPrincipal when ctx carries no principal.
func PrincipalOrError(ctx context.Context) (*auth.Principal, error) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return nil, ErrNoPrincipal
	}
	return p, nil
}
