package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/authcore"
)

const (
	MessageNoToken      = "No token provided"
	MessageTokenRevoked = "Token revoked, please login again"
	MessageInvalidToken = "Invalid or expired token"
	MessageInternal     = "internal server error"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims attached by [RequireAuth].
func ClaimsFromContext(ctx context.Context) (*authcore.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*authcore.Claims)
	return claims, ok && claims != nil
}

// WithClaims attaches claims to ctx as RequireAuth does.
func WithClaims(ctx context.Context, claims *authcore.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// RequireAuth rejects requests without a valid bearer credential with 401
// and attaches the verified claims to the request context otherwise.
func RequireAuth(auth authcore.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				WriteMessage(w, http.StatusUnauthorized, MessageInvalidToken)
				return
			}

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteMessage(w, http.StatusUnauthorized, MessageNoToken)
				return
			}

			claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, authcore.ErrTokenRevoked):
					WriteMessage(w, http.StatusUnauthorized, MessageTokenRevoked)
				case authcore.KindOf(err) == authcore.KindInternal:
					WriteMessage(w, http.StatusInternalServerError, MessageInternal)
				default:
					WriteMessage(w, http.StatusUnauthorized, MessageInvalidToken)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerToken extracts the credential from an Authorization header value.
// The scheme match is case-insensitive.
func BearerToken(value string) (string, bool) {
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

// WriteMessage writes {"message": msg} with status.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
