package gopa

import (
	"context"
)

// metaKey is an unexported context key type.
type metaKey struct{}
type managerKey struct{}

// WithTraceID attaches a trace identifier that is logged with every statement.
func WithTraceID(ctx context.Context, v string) context.Context {
	m := extractMeta(ctx)
	m.traceID = v
	return context.WithValue(ctx, metaKey{}, m)
}

// WithEntityManager binds em to ctx so callers further down can reach the current session.
func WithEntityManager(ctx context.Context, em *EntityManager) context.Context {
	return context.WithValue(ctx, managerKey{}, em)
}

// CurrentEntityManager returns the entity manager bound to ctx, if any.
func CurrentEntityManager(ctx context.Context) (*EntityManager, bool) {
	em, ok := ctx.Value(managerKey{}).(*EntityManager)
	return em, ok && em != nil
}

// extractMeta extracts metadata from context.
func extractMeta(ctx context.Context) meta {
	if v := ctx.Value(metaKey{}); v != nil {
		if m, ok := v.(meta); ok {
			return m
		}
	}
	return meta{}
}
