package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/blapoker/loyalty/internal/domain"
)

type ctxKey string

const UserKey ctxKey = "user"

// GetUser extracts the authenticated user from context.
func GetUser(ctx context.Context) *domain.User {
	u, ok := ctx.Value(UserKey).(*domain.User)
	if !ok {
		return nil
	}
	return u
}

// SessionVerifier resolves a bearer token to a user.
type SessionVerifier interface {
	VerifySession(token string) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Auth loads the session user into the request context. Requests
// without a valid token for an active user are rejected.
func Auth(users SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}
			id, err := users.VerifySession(token)
			if err != nil {
				unauthorized(w)
				return
			}
			u, err := users.GetByID(r.Context(), id)
			if err != nil || !u.IsActive {
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), UserKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects non-admin users. Must run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := GetUser(r.Context())
		if u == nil || !u.IsAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"code":"forbidden","message":"admin access required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"code":"invalid_credentials","message":"authentication required"}`))
}
