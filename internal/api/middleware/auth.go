package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"taskbill/internal/api/util"
	"taskbill/internal/core/model"
	"taskbill/internal/core/service"
)

type contextKey string

const identityKey contextKey = "identity"

type AuthMiddleware struct {
	jwt         *util.JWTService
	memberships service.MembershipService
	logger      *slog.Logger
}

func NewAuthMiddleware(jwt *util.JWTService, memberships service.MembershipService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, memberships: memberships, logger: logger}
}

// Authenticate resolves the caller's identity from a bearer access token
// and stores it on the request context. Requests without a valid token are
// rejected with 401.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := util.BearerToken(r)
		if token == "" {
			util.Error(w, r, fmt.Errorf("%w: bearer token required", model.ErrUnauthorized))
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			m.logger.Debug("rejected access token", "error", err)
			util.Error(w, r, fmt.Errorf("%w: invalid token", model.ErrUnauthorized))
			return
		}

		identity, err := m.memberships.ResolveIdentity(r.Context(), claims.Subject)
		if err != nil {
			if !errors.Is(err, model.ErrUnauthorized) {
				m.logger.Error("identity resolution failed", "user", claims.Subject, "error", err)
			}
			util.Error(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom returns the identity set by Authenticate, or nil.
func IdentityFrom(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityKey).(*model.Identity)
	return identity
}
