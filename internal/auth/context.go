package auth

import "context"

type contextKey struct{}

// WithUID returns a context carrying the authenticated uid.
func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, contextKey{}, uid)
}

// UID returns the authenticated uid, or "" when the request is
// unauthenticated.
func UID(ctx context.Context) string {
	uid, _ := ctx.Value(contextKey{}).(string)
	return uid
}
