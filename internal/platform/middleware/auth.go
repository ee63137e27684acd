package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"altanbank/pkg/domain"
	dErrors "altanbank/pkg/domain-errors"
	"altanbank/pkg/platform/httputil"
	"altanbank/pkg/requestcontext"
)

// OfficerClaims is the identity the authentication boundary resolves for an
// authenticated caller. The engine trusts these claims; it never verifies
// wallet signatures itself.
type OfficerClaims struct {
	OfficerID string
	Role      string
}

// TokenValidator validates a bearer token issued by the external
// authentication service and returns the resolved officer claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*OfficerClaims, error)
}

// RequireOfficer rejects requests without a valid bearer token and stores the
// resolved officer identity in the request context.
func RequireOfficer(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				unauthenticated(w, "missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "rejected token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthenticated(w, "invalid or expired token")
				return
			}

			officerID, err := domain.ParseOfficerID(claims.OfficerID)
			if err != nil {
				unauthenticated(w, "malformed officer identity")
				return
			}
			role, err := domain.ParseOfficerRole(claims.Role)
			if err != nil {
				unauthenticated(w, "unknown officer role")
				return
			}

			ctx = requestcontext.WithOfficer(ctx, domain.Officer{ID: officerID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthenticated(w http.ResponseWriter, description string) {
	httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, description))
}
