package throttle

import "context"

type userIDKey struct{}

// ContextWithUserID attaches an authenticated user id to ctx. The transport
// uses it to key requests per user.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the user id set by ContextWithUserID, or "".
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}
