package httpx

import (
	"context"

	"github.com/slicehq/slice/internal/domain/auth"
)

type sessionContextKey struct{}

// SetSessionInContext returns a child context carrying the resolved session.
func SetSessionInContext(ctx context.Context, sess auth.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// GetSessionFromContext retrieves the session placed by the auth gateway.
func GetSessionFromContext(ctx context.Context) (auth.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(auth.Session)
	return sess, ok
}
