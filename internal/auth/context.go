package auth

import "context"

type principalKey struct{}

// WithPrincipal кладёт principal в контекст запроса.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext достаёт principal из контекста (если есть).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}
