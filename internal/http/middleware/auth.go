package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrJamesThe3rd/fintrack/internal/auth"
	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/http/respond"
	"github.com/MrJamesThe3rd/fintrack/internal/user"
)

type Resolver interface {
	Resolve(ctx context.Context, token string) (*user.User, error)
}

// Authenticate rejects requests without a valid bearer token and stores the caller in the
// request context.
func Authenticate(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respond.Error(w, r, errs.ErrUnauthenticated)
				return
			}

			u, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

// UserID returns the authenticated caller's id. Handlers behind Authenticate can rely on it.
func UserID(r *http.Request) int64 {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		return 0
	}

	return u.ID
}
