package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/permission"
)

type fakeAuth struct {
	claims *authcore.Claims
	err    error
	seen   string
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*authcore.Claims, error) {
	f.seen = token
	return f.claims, f.err
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Error("expected claims in context")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(claims.Role))
	})
}

func serve(h http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body["message"]
}

func TestRequireAuth(t *testing.T) {
	claims := &authcore.Claims{Role: "user"}

	tests := []struct {
		name       string
		authz      string
		auth       *fakeAuth
		wantStatus int
		wantMsg    string
	}{
		{"missing header", "", &fakeAuth{claims: claims}, http.StatusUnauthorized, MessageNoToken},
		{"wrong scheme", "Basic abc", &fakeAuth{claims: claims}, http.StatusUnauthorized, MessageNoToken},
		{"empty bearer", "Bearer ", &fakeAuth{claims: claims}, http.StatusUnauthorized, MessageNoToken},
		{"revoked", "Bearer tok", &fakeAuth{err: authcore.ErrTokenRevoked}, http.StatusUnauthorized, MessageTokenRevoked},
		{"expired", "Bearer tok", &fakeAuth{err: authcore.ErrTokenExpired}, http.StatusUnauthorized, MessageInvalidToken},
		{"forged", "Bearer tok", &fakeAuth{err: authcore.ErrUnauthenticated}, http.StatusUnauthorized, MessageInvalidToken},
		{"registry down", "Bearer tok", &fakeAuth{err: fmt.Errorf("%w: redis", authcore.ErrInternal)}, http.StatusInternalServerError, MessageInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(RequireAuth(tt.auth)(okHandler(t)), tt.authz)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := message(t, rec); got != tt.wantMsg {
				t.Fatalf("expected %q, got %q", tt.wantMsg, got)
			}
		})
	}

	auth := &fakeAuth{claims: claims}
	rec := serve(RequireAuth(auth)(okHandler(t)), "bearer tok-123")
	if rec.Code != http.StatusOK || auth.seen != "tok-123" {
		t.Fatalf("expected pass-through, got %d (seen %q)", rec.Code, auth.seen)
	}
}

func TestRequireRoles(t *testing.T) {
	adminOnly, err := permission.ParseRoleSet("admin")
	if err != nil {
		t.Fatalf("role set: %v", err)
	}

	tests := []struct {
		name       string
		role       string
		wantStatus int
		wantMsg    string
	}{
		{"admin", "admin", http.StatusOK, ""},
		{"padded mixed case", " Admin ", http.StatusOK, ""},
		{"insufficient", "user", http.StatusForbidden, MessageInsufficientRole},
		{"unknown role", "root", http.StatusForbidden, MessageInvalidRole},
		{"empty role", "", http.StatusForbidden, MessageInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuth{claims: &authcore.Claims{Role: tt.role}}
			h := RequireAuth(auth)(RequireRoles(adminOnly)(okHandler(t)))
			rec := serve(h, "Bearer tok")
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantMsg != "" {
				if got := message(t, rec); got != tt.wantMsg {
					t.Fatalf("expected %q, got %q", tt.wantMsg, got)
				}
			}
		})
	}
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	rec := serve(RequireRoles(permission.NewRoleSet(permission.RoleAdmin))(http.NotFoundHandler()), "")
	if rec.Code != http.StatusForbidden || message(t, rec) != MessageInvalidRole {
		t.Fatalf("expected 403 invalid role, got %d %q", rec.Code, rec.Body.String())
	}
}
