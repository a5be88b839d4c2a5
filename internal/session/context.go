package session

import "context"

type ctxKey struct{}

// WithManager installs m in ctx.
func WithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, ctxKey{}, m)
}

// FromContext returns the manager installed by the session middleware.
// Calling it on a context without one is a programming error and panics.
func FromContext(ctx context.Context) *Manager {
	m, ok := ctx.Value(ctxKey{}).(*Manager)
	if !ok || m == nil {
		panic("session: FromContext called outside the session middleware")
	}
	return m
}

// Lookup returns the installed manager without panicking.
func Lookup(ctx context.Context) (*Manager, bool) {
	m, ok := ctx.Value(ctxKey{}).(*Manager)
	return m, ok && m != nil
}
