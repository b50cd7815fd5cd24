package auth

import (
	"context"
	"net/http"
)

// SessionCookie is the name of the HttpOnly cookie holding the JWT.
const SessionCookie = "token"

// contextKey is unexported so only this package can read or write the
// userID slot in a request context.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth enforces authentication on protected routes. It reads the JWT
// from the session cookie, validates it, and stores the userID in the
// request context. Missing or invalid tokens end the request with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				// Written by hand rather than via http.Error, which would
				// stamp text/plain over the content type.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated caller's id, or ("", false)
// for an anonymous request.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID reads and validates the session cookie.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
