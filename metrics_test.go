package authcore

import (
	"context"
	"testing"
)

func TestEngineMetricsCountOutcomes(t *testing.T) {
	e, _ := newTestEngine(t, func(b *Builder) {
		b.WithMetricsEnabled(true).WithLatencyHistograms(true)
	})
	ctx := context.Background()

	registerAlice(t, e)
	_, _ = e.Register(ctx, RegisterRequest{Username: "alice", Email: "a@x.com", Password: "x"})
	_, _ = e.Login(ctx, "alice", "wrong")
	pair, _ := e.Login(ctx, "alice", "Secr3t!")
	next, _ := e.Refresh(ctx, pair.RefreshToken)
	_, _ = e.Refresh(ctx, pair.RefreshToken)
	_, _ = e.Authenticate(ctx, next.AccessToken)
	_ = e.Logout(ctx, next.RefreshToken, next.AccessToken)
	_, _ = e.Authenticate(ctx, next.AccessToken)

	s := e.MetricsSnapshot()
	want := map[MetricID]uint64{
		MetricRegisterSuccess:     1,
		MetricRegisterConflict:    1,
		MetricLoginFailure:        1,
		MetricLoginSuccess:        1,
		MetricSessionCreated:      1,
		MetricRefreshSuccess:      1,
		MetricRefreshFailure:      1,
		MetricAuthenticateSuccess: 1,
		MetricAuthenticateRevoked: 1,
		MetricLogout:              1,
		MetricAccessRevoked:       1,
		MetricSessionInvalidated:  1,
	}
	for id, v := range want {
		if got := s.Counters[id]; got != v {
			t.Fatalf("metric %d: expected %d, got %d", id, v, got)
		}
	}

	var samples uint64
	for _, c := range s.Histograms[MetricAuthenticateLatency] {
		samples += c
	}
	if samples != 2 {
		t.Fatalf("expected 2 authenticate latency samples, got %d", samples)
	}
}

func TestEngineMetricsDisabled(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	registerAlice(t, e)
	if s := e.MetricsSnapshot(); len(s.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", s.Counters)
	}
}
