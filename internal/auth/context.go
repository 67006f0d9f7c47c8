package auth

import (
	"context"

	"github.com/MrJamesThe3rd/fintrack/internal/user"
)

type contextKey struct{}

func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(contextKey{}).(*user.User)
	return u, ok && u != nil
}
