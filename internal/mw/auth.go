package mw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/internal/token"
)

type contextKey string

const UserCtxKey contextKey = "current_user"

// UserResolver re-resolves a token subject against the identity store. The
// token being valid does not mean the account still exists.
type UserResolver interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// Auth verifies the bearer token, re-resolves the subject and stores the
// resulting *model.User on the request context.
func Auth(tokens *token.Manager, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				switch {
				case errors.Is(err, token.ErrExpired):
					http.Error(w, "token expired", http.StatusUnauthorized)
				default:
					http.Error(w, "invalid token", http.StatusUnauthorized)
				}
				return
			}

			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, service.ErrNotFound) {
					http.Error(w, "token subject no longer exists", http.StatusUnauthorized)
					return
				}
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose authenticated user is not an admin.
// It must run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if user.Role != model.RoleAdmin {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(UserCtxKey).(*model.User)
	return user
}
