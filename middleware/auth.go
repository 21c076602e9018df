package middleware

import (
	"context"
	"net/http"
	"strings"

	"bulletin/pkg/logger"
	"bulletin/pkg/token"
)

type contextKey string

// UsernameKey carries the authenticated principal's username through the
// request context. Handlers trust it unconditionally.
const UsernameKey contextKey = "username"

// SessionCookie is the HttpOnly cookie the login handler sets.
const SessionCookie = "board_token"

// RevocationChecker is the logout-all store consulted on every request.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenString string) (bool, error)
}

// ExtractToken finds the presented session token: Authorization header first,
// then the session cookie, then the query string (browsers cannot set custom
// headers on WebSocket connects).
func ExtractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

// Auth validates the session token (signature, expiry, revocation) and puts
// the username into the request context.
func Auth(secret []byte, blacklist RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractToken(r)
			if tokenString == "" {
				http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
				return
			}

			claims, err := token.Parse(secret, tokenString)
			if err != nil {
				logger.Sugar.Debugf("Invalid token: %v", err)
				http.Error(w, "Unauthorized: Invalid or expired token", http.StatusUnauthorized)
				return
			}

			revoked, err := blacklist.IsRevoked(r.Context(), tokenString)
			if err != nil {
				http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
				return
			}
			if revoked {
				http.Error(w, "Unauthorized: Token has been revoked", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UsernameKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
