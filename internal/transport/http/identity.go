package http

import (
	"context"
	"net/http"
	"strings"

	"scenario-quiz-service/internal/domain"
)

// UserHeader carries the player identity on REST calls.
const UserHeader = "X-User-Id"

type userKey struct{}

// WithUser stores the resolved player on the context.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// ContextIdentity resolves the player set by RequireUser.
type ContextIdentity struct{}

func (ContextIdentity) CurrentUser(ctx context.Context) (string, error) {
	user, _ := ctx.Value(userKey{}).(string)
	if user == "" {
		return "", domain.ErrMissingIdentity
	}
	return user, nil
}

// RequireUser rejects requests without an identity header.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := strings.TrimSpace(r.Header.Get(UserHeader))
		if user == "" {
			writeJSON(w, http.StatusUnauthorized, envelope{Message: domain.ErrMissingIdentity.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAdminToken guards admin routes with a bearer token; an empty token disables the routes.
func RequireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || r.Header.Get("Authorization") != "Bearer "+token {
				writeJSON(w, http.StatusForbidden, envelope{Message: "admin token required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
