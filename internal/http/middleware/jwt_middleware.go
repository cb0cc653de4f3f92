package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/prodlast/cospace-backend/internal/domain"
	"github.com/prodlast/cospace-backend/internal/http/response"
	"github.com/prodlast/cospace-backend/internal/repo/postgres"
	"github.com/prodlast/cospace-backend/pkg/auth"
	"github.com/prodlast/cospace-backend/pkg/logger"
)

type ctxKey string

const ctxUser ctxKey = "user"

// Authenticator guards routes with bearer tokens. Beyond signature and
// expiry, a token is only accepted while its embedded rotation marker
// matches the one stored on the user row, so a later sign-in revokes it.
type Authenticator struct {
	users  postgres.UserRepo
	secret string
}

func NewAuthenticator(users postgres.UserRepo, secret string) *Authenticator {
	return &Authenticator{users: users, secret: secret}
}

func (a *Authenticator) RequireJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			response.Unauthorized(w, "invalid authorization header")
			return
		}
		raw := strings.TrimPrefix(authz, "Bearer ")
		claims, err := auth.Parse(raw, a.secret)
		if err != nil {
			response.Unauthorized(w, "invalid authorization token")
			return
		}

		user, err := a.users.FindByID(r.Context(), claims.Sub)
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to load token user", "error", err)
			response.Unauthorized(w, "invalid authorization token")
			return
		}
		if user == nil || user.TokenUUID != claims.TokenID {
			// Marker mismatch: a newer sign-in rotated it.
			response.Unauthorized(w, "token has been revoked")
			return
		}

		ctx := context.WithValue(r.Context(), ctxUser, user)
		ctx = context.WithValue(ctx, logger.UserIDKey, user.ID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route behind a role claim; must run after RequireJWT.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFrom(r)
			if user == nil {
				response.Unauthorized(w, "authentication required")
				return
			}
			if user.Role != role {
				response.Forbidden(w, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func UserFrom(r *http.Request) *domain.User {
	v := r.Context().Value(ctxUser)
	if v == nil {
		return nil
	}
	return v.(*domain.User)
}
