package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/cidadao-inteligente/api/internal/auth"
	"github.com/cidadao-inteligente/api/internal/httpx"
)

// KeyFunc extracts a rate limit key from the request.
type KeyFunc func(r *http.Request) string

// PerUser keys the limit on the authenticated user, falling back to the
// remote address for requests that reach the limiter anonymously.
func PerUser(r *http.Request) string {
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		return "user:" + id.UserID.String()
	}
	return "addr:" + r.RemoteAddr
}

// Middleware applies the limiter to every request, exposing the usual
// X-RateLimit headers. Limiter store failures let the request through: rate
// limiting is protective, not load-bearing.
func Middleware(l *Limiter, keyFunc KeyFunc) func(http.Handler) http.Handler {
	if keyFunc == nil {
		keyFunc = PerUser
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := l.Allow(r.Context(), keyFunc(r))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed() {
				if retryAfter := int(result.RetryAfter().Seconds()); retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
				httpx.WriteError(w, httpx.NewError(http.StatusTooManyRequests, "RATE_LIMITED",
					"Muitas requisições em sequência. Aguarde um instante e tente de novo."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
