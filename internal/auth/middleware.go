package auth

import (
	"net/http"
	"strings"

	"github.com/cidadao-inteligente/api/internal/httpx"
)

var errUnauthenticated = httpx.NewError(http.StatusUnauthorized, "AUTH_REQUIRED", "Você precisa estar logado.")

// RequireIdentity rejects requests without a valid session token and puts the
// caller identity into the request context.
func RequireIdentity(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identityFromRequest(v, r)
			if !ok {
				httpx.WriteError(w, errUnauthenticated)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalIdentity puts the caller identity into the context when a valid
// token is present and lets the request through anonymously otherwise. Used
// by endpoints that treat anonymous visitors as a valid case.
func OptionalIdentity(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := identityFromRequest(v, r); ok {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func identityFromRequest(v *Verifier, r *http.Request) (Identity, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return Identity{}, false
	}

	claims, err := v.Parse(token)
	if err != nil {
		return Identity{}, false
	}

	id, err := claims.Identity()
	if err != nil {
		return Identity{}, false
	}
	return id, true
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
