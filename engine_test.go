package authcore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/refresh"
	"github.com/MrEthical07/authcore/store/storetest"
)

const testSecret = "engine-test-secret-engine-test-secret"

func fastHasher(t *testing.T) password.Hasher {
	t.Helper()
	h, err := password.NewBcrypt(4)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return h
}

func newTestEngine(t *testing.T, configure func(*Builder)) (*Engine, *storetest.Clock) {
	t.Helper()
	clock := storetest.NewClock(time.Unix(1_700_000_000, 0))
	b := New().
		WithSecret([]byte(testSecret)).
		WithPasswordHasher(fastHasher(t)).
		WithClock(clock.Now)
	if configure != nil {
		configure(b)
	}
	e, err := b.Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e, clock
}

func registerAlice(t *testing.T, e *Engine) Identity {
	t.Helper()
	id, err := e.Register(context.Background(), RegisterRequest{
		Username: "alice",
		Email:    "a@x.com",
		Password: "Secr3t!",
	})
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	return id
}

func TestBuildRequiresSecret(t *testing.T) {
	if _, err := New().WithPasswordHasher(fastHasher(t)).Build(); err == nil {
		t.Fatal("expected build without secret to fail")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithSecret([]byte(testSecret)).WithPasswordHasher(fastHasher(t))
	e, err := b.Build()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	defer e.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second build to fail")
	}
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	id := registerAlice(t, e)
	if id.Role != "user" || id.ID == "" || strings.Contains(id.PasswordHash, "Secr3t!") {
		t.Fatalf("unexpected identity %+v", id)
	}

	pair, err := e.Login(ctx, "alice", "Secr3t!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.TokenType != "Bearer" || pair.ExpiresIn != 15*time.Minute {
		t.Fatalf("unexpected pair metadata %+v", pair)
	}
	if !refresh.Valid(pair.RefreshToken) {
		t.Fatalf("refresh token has unexpected shape: %q", pair.RefreshToken)
	}

	claims, err := e.Authenticate(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if claims.Subject != id.ID || claims.Role != "user" || claims.Username != "alice" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := e.Login(ctx, "a@x.com", "Secr3t!"); err != nil {
		t.Fatalf("login by email: %v", err)
	}
}

func TestRegisterErrors(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	registerAlice(t, e)

	cases := []struct {
		req  RegisterRequest
		want error
	}{
		{RegisterRequest{Username: "bob", Password: "x"}, ErrMissingFields},
		{RegisterRequest{Username: "bob", Email: "bob", Password: "x"}, ErrInvalidEmail},
		{RegisterRequest{Username: "bob", Email: "b@x.com", Password: "x", Role: "superuser"}, ErrInvalidRole},
		{RegisterRequest{Username: "alice", Email: "other@x.com", Password: "x"}, ErrIdentityExists},
		{RegisterRequest{Username: "alice2", Email: "A@X.com", Password: "x"}, ErrIdentityExists},
		{RegisterRequest{Username: "bob", Email: "b@x.com", Password: strings.Repeat("p", 100)}, ErrInvalidPassword},
	}
	for i, tc := range cases {
		if _, err := e.Register(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	registerAlice(t, e)

	_, errWrong := e.Login(ctx, "alice", "nope")
	_, errUnknown := e.Login(ctx, "mallory", "nope")
	if !errors.Is(errWrong, ErrInvalidCredentials) || !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v and %v", errWrong, errUnknown)
	}
	if errWrong.Error() != errUnknown.Error() {
		t.Fatalf("failure messages differ: %q vs %q", errWrong, errUnknown)
	}
	if _, err := e.Login(ctx, "", "x"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected missing fields, got %v", err)
	}
}

func TestOverlongPasswordIsInvalidCredentials(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	alice := registerAlice(t, e)

	long := strings.Repeat("x", 2048)
	for _, login := range []string{"alice", "nobody"} {
		_, err := e.Login(ctx, login, long)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("login %q: expected invalid credentials, got %v", login, err)
		}
		if KindOf(err) != KindAuthentication {
			t.Fatalf("login %q: expected authentication kind, got %v", login, KindOf(err))
		}
	}

	if err := e.ChangePassword(ctx, alice.ID, long, "N3w-secret!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("change password: expected invalid credentials, got %v", err)
	}
	if _, err := e.Login(ctx, "alice", "Secr3t!"); err != nil {
		t.Fatalf("expected original password to still work: %v", err)
	}
}

func TestRefreshIsSingleUse(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	registerAlice(t, e)

	first, _ := e.Login(ctx, "alice", "Secr3t!")
	second, err := e.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken || second.AccessToken == first.AccessToken {
		t.Fatal("expected a fresh pair")
	}
	if _, err := e.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected reuse to fail with ErrInvalidToken, got %v", err)
	}
	if _, err := e.Refresh(ctx, second.RefreshToken); err != nil {
		t.Fatalf("rotated token should work: %v", err)
	}
	if _, err := e.Refresh(ctx, ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected missing fields, got %v", err)
	}
}

func TestAccessExpiryBoundary(t *testing.T) {
	e, clock := newTestEngine(t, nil)
	ctx := context.Background()
	registerAlice(t, e)

	pair, _ := e.Login(ctx, "alice", "Secr3t!")
	clock.Advance(15*time.Minute - time.Second)
	if _, err := e.Authenticate(ctx, pair.AccessToken); err != nil {
		t.Fatalf("expected valid before exp: %v", err)
	}
	clock.Advance(2 * time.Second)
	if _, err := e.Authenticate(ctx, pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if KindOf(ErrTokenExpired) != KindAuthentication {
		t.Fatal("expired credentials must classify as authentication failures")
	}
}

func TestRefreshExpiryBoundary(t *testing.T) {
	e, clock := newTestEngine(t, func(b *Builder) {
		cfg := DefaultConfig()
		cfg.JWT.Secret = []byte(testSecret)
		cfg.JWT.RefreshTTL = time.Hour
		b.WithConfig(cfg)
	})
	ctx := context.Background()
	registerAlice(t, e)

	pair, _ := e.Login(ctx, "alice", "Secr3t!")
	clock.Advance(time.Hour + time.Second)
	if _, err := e.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if _, err := e.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired entry to be gone, got %v", err)
	}
}

func TestLogoutRevokesOnlyPresentedCredential(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	registerAlice(t, e)

	a, _ := e.Login(ctx, "alice", "Secr3t!")
	b, _ := e.Login(ctx, "alice", "Secr3t!")

	if err := e.Logout(ctx, a.RefreshToken, a.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := e.Authenticate(ctx, a.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
	if _, err := e.Refresh(ctx, a.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected logged-out refresh token invalid, got %v", err)
	}
	if _, err := e.Authenticate(ctx, b.AccessToken); err != nil {
		t.Fatalf("other session must stay valid: %v", err)
	}
	if _, err := e.Refresh(ctx, b.RefreshToken); err != nil {
		t.Fatalf("other refresh token must stay valid: %v", err)
	}

	if err := e.Logout(ctx, a.RefreshToken, a.AccessToken); err != nil {
		t.Fatalf("second logout must be a no-op: %v", err)
	}
	if err := e.Logout(ctx, "", ""); err != nil {
		t.Fatalf("empty logout must be a no-op: %v", err)
	}
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	for _, tok := range []string{"", "abc", "a.b.c"} {
		if _, err := e.Authenticate(context.Background(), tok); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("%q: expected ErrUnauthenticated, got %v", tok, err)
		}
	}
}

func TestRefreshPicksUpCurrentRole(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := e.Register(ctx, RegisterRequest{Username: "root", Email: "root@x.com", Password: "pw", Role: " Admin "}); err != nil {
		t.Fatalf("register admin: %v", err)
	}
	pair, _ := e.Login(ctx, "root", "pw")
	next, err := e.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := e.Authenticate(ctx, next.AccessToken)
	if err != nil || claims.Role != "admin" {
		t.Fatalf("expected admin claims, got %+v (%v)", claims, err)
	}
}

func TestChangePasswordEndsOtherSessions(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	id := registerAlice(t, e)

	a, _ := e.Login(ctx, "alice", "Secr3t!")
	if sessions, _ := e.Sessions(ctx, id.ID); len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}

	if err := e.ChangePassword(ctx, id.ID, "bad", "N3w!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := e.ChangePassword(ctx, id.ID, "Secr3t!", "N3w!"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := e.Refresh(ctx, a.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected sessions dropped, got %v", err)
	}
	if _, err := e.Login(ctx, "alice", "Secr3t!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := e.Login(ctx, "alice", "N3w!"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestIdentityLookups(t *testing.T) {
	e, clock := newTestEngine(t, nil)
	ctx := context.Background()
	alice := registerAlice(t, e)
	clock.Advance(time.Second)
	bob, err := e.Register(ctx, RegisterRequest{Username: "bob", Email: "b@x.com", Password: "pw", Role: "manager"})
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}

	got, err := e.Identity(ctx, bob.ID)
	if err != nil || got.Username != "bob" || got.Role != "manager" {
		t.Fatalf("unexpected identity %+v (%v)", got, err)
	}
	if _, err := e.Identity(ctx, "missing"); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}

	all, err := e.Identities(ctx)
	if err != nil || len(all) != 2 || all[0].ID != alice.ID || all[1].ID != bob.ID {
		t.Fatalf("unexpected listing %+v (%v)", all, err)
	}
}

func TestSessionsHidesExpiredEntries(t *testing.T) {
	e, clock := newTestEngine(t, func(b *Builder) {
		cfg := DefaultConfig()
		cfg.JWT.Secret = []byte(testSecret)
		cfg.JWT.RefreshTTL = time.Hour
		b.WithConfig(cfg)
	})
	ctx := context.Background()
	id := registerAlice(t, e)

	_, _ = e.Login(ctx, "alice", "Secr3t!")
	clock.Advance(30 * time.Minute)
	_, _ = e.Login(ctx, "alice", "Secr3t!")
	clock.Advance(31 * time.Minute)

	sessions, err := e.Sessions(ctx, id.ID)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 live session, got %d", len(sessions))
	}
}

func TestNilEngine(t *testing.T) {
	var e *Engine
	ctx := context.Background()
	if _, err := e.Login(ctx, "a", "b"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.Authenticate(ctx, "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if e.AuditDropped() != 0 || len(e.MetricsSnapshot().Counters) != 0 {
		t.Fatal("nil engine must report empty observability")
	}
	e.Close()
}
