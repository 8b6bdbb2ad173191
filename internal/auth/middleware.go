package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gamestore-labs/gamestore/internal/domain"
)

// Identity is the authenticated caller resolved from a bearer token. Handlers
// trust the user id it carries and never re-derive it from request bodies.
type Identity struct {
	UserID int64
	Email  string
	Role   domain.Role
}

func (id Identity) IsAdmin() bool {
	return id.Role == domain.RoleAdmin
}

type identityKey struct{}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// RequireUser rejects requests without a valid bearer token and stores the
// resolved identity on the request context.
func RequireUser(issuer *TokenIssuer, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}

		identity := Identity{
			UserID: claims.UserID,
			Email:  claims.Subject,
			Role:   domain.Role(claims.Role),
		}

		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin additionally rejects authenticated callers without the admin
// role.
func RequireAdmin(issuer *TokenIssuer, next http.HandlerFunc) http.HandlerFunc {
	return RequireUser(issuer, func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFrom(r.Context())
		if !identity.IsAdmin() {
			writeAuthError(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
