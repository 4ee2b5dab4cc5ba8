package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"procura.io/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// withAuth turns a valid bearer token into the request tenant. Every route
// behind it is tenant scoped, so a missing or bad token is a 401.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.signer == nil {
			writeError(w, r, http.StatusUnauthorized, "authentication is not configured")
			return
		}
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="procura"`)
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		claims, err := a.signer.ParseAndValidate(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="procura", error="invalid_token"`)
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := auth.ContextWithTenant(r.Context(), claims.Tenant(), claims.Roles)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects requests whose principal lacks role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.TenantFromContext(r.Context()); !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="procura"`)
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			if !auth.HasRole(r.Context(), role) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="procura", error="insufficient_scope"`)
				writeError(w, r, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
