package authcore

import (
	"context"
	"testing"
	"time"
)

func drain(t *testing.T, sink *ChannelSink, n int) []AuditEvent {
	t.Helper()
	out := make([]AuditEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev := <-sink.Events():
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for %d audit events, got %d", n, len(out))
		}
	}
	return out
}

func TestAuditEventsForLoginLifecycle(t *testing.T) {
	sink := NewChannelSink(64)
	e, _ := newTestEngine(t, func(b *Builder) {
		b.WithAuditSink(sink)
	})
	ctx := WithRequestID(WithClientIP(context.Background(), "10.0.0.1"), "req-1")

	id := registerAlice(t, e)
	_, _ = e.Login(ctx, "alice", "wrong")
	pair, err := e.Login(ctx, "alice", "Secr3t!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := e.Logout(ctx, pair.RefreshToken, pair.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, _ = e.Authenticate(ctx, pair.AccessToken)

	events := drain(t, sink, 5)
	wantTypes := []string{"register_success", "login_failure", "login_success", "logout", "revoked_token_used"}
	for i, want := range wantTypes {
		if events[i].EventType != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, events[i].EventType)
		}
	}

	if events[0].IdentityID != id.ID || !events[0].Success {
		t.Fatalf("unexpected register event %+v", events[0])
	}
	if events[1].Error != "invalid_credentials" || events[1].IP != "10.0.0.1" {
		t.Fatalf("unexpected failure event %+v", events[1])
	}
	if events[2].Metadata["request_id"] != "req-1" {
		t.Fatalf("expected request id metadata, got %+v", events[2].Metadata)
	}
	if events[3].Metadata["access_revoked"] != "true" || events[3].Metadata["refresh_removed"] != "true" {
		t.Fatalf("unexpected logout metadata %+v", events[3].Metadata)
	}
	if events[4].Error != "token_revoked" {
		t.Fatalf("unexpected revoked event %+v", events[4])
	}
}

func TestAuditDisabledByDefault(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	registerAlice(t, e)
	if e.audit != nil || e.AuditDropped() != 0 {
		t.Fatal("expected no dispatcher without a sink")
	}
}

func TestAuditErrorCodeMapping(t *testing.T) {
	cases := map[error]AuditErrorCode{
		ErrMissingFields:      auditErrMissingFields,
		ErrInvalidRole:        auditErrInvalidInput,
		ErrIdentityExists:     auditErrDuplicate,
		ErrInvalidCredentials: auditErrInvalidCredentials,
		ErrUnauthenticated:    auditErrInvalidToken,
		ErrTokenExpired:       auditErrTokenExpired,
		ErrInternal:           auditErrInternal,
	}
	for err, want := range cases {
		if got := auditErrorCode(err); got != want {
			t.Fatalf("%v: expected %s, got %s", err, want, got)
		}
	}
	if auditErrorCode(nil) != "" {
		t.Fatal("nil error must have no code")
	}
}
