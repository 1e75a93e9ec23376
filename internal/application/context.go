package application

import "context"

// Accessor identifies who is calling the vault, plus whatever client
// context the transport layer captured. It rides on the request context so
// every operation can stamp access log entries without widening signatures.
type Accessor struct {
	ID        string
	ClientIP  string
	UserAgent string
}

type accessorContextKey struct{}

// WithAccessor attaches the caller identity to the context.
func WithAccessor(ctx context.Context, a Accessor) context.Context {
	return context.WithValue(ctx, accessorContextKey{}, a)
}

// AccessorFromContext returns the caller identity, or a placeholder when
// the transport layer did not attach one.
func AccessorFromContext(ctx context.Context) Accessor {
	if a, ok := ctx.Value(accessorContextKey{}).(Accessor); ok {
		return a
	}
	return Accessor{ID: "unknown"}
}
