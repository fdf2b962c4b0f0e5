package session

import "context"

type ctxKey struct{}

// WithUser returns a context carrying the authenticated user's uid.
func WithUser(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxKey{}, uid)
}

// UserFromContext returns the uid stored by WithUser.
func UserFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(ctxKey{}).(string)
	return uid, ok && uid != ""
}

// RequireUser is UserFromContext that fails with ErrUnauthenticated.
func RequireUser(ctx context.Context) (string, error) {
	uid, ok := UserFromContext(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	return uid, nil
}
