package auth

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

type ctxKey string

const userKey ctxKey = "currentUser"

// WithUser stores the authenticated identity on the context for handlers
// downstream of the auth gate.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the identity attached by the auth gate. The
// second result is false on anonymous requests.
func UserFromContext(ctx context.Context) (models.User, bool) {
	if ctx == nil {
		return models.User{}, false
	}
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}
