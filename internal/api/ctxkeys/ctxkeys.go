// Package ctxkeys holds the typed request-context keys shared by middleware
// and handlers. It is a leaf package so both can import it without a cycle.
package ctxkeys

import "context"

// Key is the named type for all API context keys. context.Value compares
// type and value, so string keys from other packages never collide.
type Key string

const (
	// UserID is the authenticated account id, injected by AuthMiddleware.
	UserID Key = "user_id"

	// Email is the authenticated account email, injected by AuthMiddleware.
	Email Key = "email"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// String returns the value stored under key, or "" when absent.
func String(ctx context.Context, key Key) string {
	v, _ := ctx.Value(key).(string)
	return v
}
