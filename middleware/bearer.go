package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	goBank "github.com/MrEthical07/goBank"
)

type bearerContextKey struct{}

// TokenFromContext returns the bearer token stored by [Bearer].
func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(bearerContextKey{}).(string)
	return tok, ok && tok != ""
}

// Bearer stores the Authorization bearer token in the request context.
// Requests without one are rejected with a plain-text 401.
func Bearer(next http.Handler) http.Handler {
	return BearerWith(nil)(next)
}

// BearerWith is Bearer with a custom response for requests that carry no
// bearer token. A nil unauthorized handler selects the plain-text 401.
func BearerWith(unauthorized http.Handler) func(http.Handler) http.Handler {
	if unauthorized == nil {
		unauthorized = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), bearerContextKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP attaches the request's remote host to the context with
// goBank.WithClientIP. Behind a trusted proxy, mount it after chi's RealIP;
// otherwise RemoteAddr is the only address that cannot be forged.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		next.ServeHTTP(w, r.WithContext(goBank.WithClientIP(r.Context(), ip)))
	})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
