package auth

import "context"

// contextKey is a private type so our context values cannot collide with
// other packages'.
type contextKey int

const (
	userIDKey contextKey = iota
	usernameKey
)

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, userID, username string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, usernameKey, username)
}

// UserID extracts the authenticated user id, or "" when anonymous.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// Username extracts the authenticated username, or "" when anonymous.
func Username(ctx context.Context) string {
	if name, ok := ctx.Value(usernameKey).(string); ok {
		return name
	}
	return ""
}
