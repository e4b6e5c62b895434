package middleware

import (
	"context"

	"github.com/angelmondragon/packfinderz-storefront/pkg/auth"
)

// SessionIDFromContext returns the session the request is scoped to, or "".
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := auth.SessionFromContext(ctx)
	return id
}

// WithSessionID scopes ctx to a session for downstream handlers.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return auth.WithSession(ctx, sessionID)
}
