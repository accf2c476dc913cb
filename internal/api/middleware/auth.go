package middleware

import (
	"context"
	"errors"
	"net/http"

	"credtrack/internal/common"
	"credtrack/internal/common/security"
	"credtrack/internal/domain/model"
	"credtrack/internal/domain/policy"
	"credtrack/internal/domain/repository"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserCtxKey contextKey = "user"
	JTICtxKey  contextKey = "jti"
)

// ResolveUser returns the live user behind the request's bearer token, or nil
// when the token is absent, invalid, revoked, or orphaned. The user row is
// loaded fresh so role changes and deletions take effect immediately.
func ResolveUser(ctx context.Context, sessions repository.SessionRepository, users repository.UserRepository) (*model.User, string) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return nil, ""
	}

	jti, err := security.GetJTIFromClaims(claims)
	if err != nil {
		return nil, ""
	}
	alive, err := sessions.Exists(ctx, jti)
	if err != nil || !alive {
		return nil, ""
	}

	userID, err := security.GetUserIDFromClaims(claims)
	if err != nil {
		return nil, ""
	}
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		return nil, ""
	}
	return user, jti
}

// Authenticator rejects requests without a live session and stuffs the
// resolved user (and the presenting token's jti, for logout) into context.
func Authenticator(sessions repository.SessionRepository, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())
			if err != nil {
				if errors.Is(err, jwtauth.ErrNoTokenFound) || token == nil {
					common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				} else {
					common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
				}
				return
			}

			user, jti := ResolveUser(r.Context(), sessions, users)
			if user == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			ctx = context.WithValue(ctx, JTICtxKey, jti)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAction gates a route group on a capability from the policy table.
func RequireAction(action policy.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok || !policy.Allows(user.Role, action) {
				common.RespondWithError(w, http.StatusForbidden, "Insufficient privileges")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Helper to get the authenticated user from context
func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok
}

// Helper to get the presenting token's jti from context
func GetJTIFromContext(ctx context.Context) (string, bool) {
	jti, ok := ctx.Value(JTICtxKey).(string)
	return jti, ok
}
