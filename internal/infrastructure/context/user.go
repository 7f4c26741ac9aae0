package context

import (
	"context"

	"3tcapital/gstlens/internal/core/identity"
)

// UserKey is the context key for the authenticated user.
const UserKey contextKey = "user"

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user identity.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser returns the authenticated user, if any.
func GetUser(ctx context.Context) (identity.User, bool) {
	u, ok := ctx.Value(UserKey).(identity.User)
	if !ok || u.ID == "" {
		return identity.User{}, false
	}
	return u, true
}
