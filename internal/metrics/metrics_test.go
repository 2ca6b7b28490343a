package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestDisabledMetricsAreInert(t *testing.T) {
	m := New(Config{Enabled: false})
	m.Inc(LoginSuccess)
	m.Observe(AuthenticateLatency, time.Millisecond)
	if m.Value(LoginSuccess) != 0 {
		t.Fatal("expected no counts when disabled")
	}
	s := m.Snapshot()
	if len(s.Counters) != 0 || len(s.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", s)
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(LoginSuccess)
	if nilMetrics.Enabled() || nilMetrics.Value(LoginSuccess) != 0 {
		t.Fatal("expected nil metrics to be inert")
	}
}

func TestConcurrentIncrements(t *testing.T) {
	m := New(Config{Enabled: true})

	const workers, per = 16, 1000
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < per; j++ {
				m.Inc(RefreshSuccess)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := m.Value(RefreshSuccess); got != workers*per {
		t.Fatalf("expected %d, got %d", workers*per, got)
	}
	if got := m.Snapshot().Counters[RefreshSuccess]; got != workers*per {
		t.Fatalf("snapshot mismatch: %d", got)
	}
}

func TestHistogramBuckets(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(AuthenticateLatency, 3*time.Millisecond)
	m.Observe(AuthenticateLatency, 30*time.Millisecond)
	m.Observe(AuthenticateLatency, 2*time.Second)
	m.Observe(LoginSuccess, time.Millisecond)

	s := m.Snapshot()
	got := s.Histograms[AuthenticateLatency]
	want := []uint64{1, 0, 0, 1, 0, 0, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bucket %d: expected %d, got %d", i, want[i], got[i])
		}
	}
	if _, ok := s.Histograms[LoginSuccess]; ok {
		t.Fatal("counter id must not produce a histogram")
	}
	if _, ok := s.Counters[AuthenticateLatency]; ok {
		t.Fatal("histogram id must not appear as a counter")
	}
}

func TestBucketIndexBounds(t *testing.T) {
	cases := map[time.Duration]int{
		0:                      0,
		5 * time.Millisecond:   0,
		6 * time.Millisecond:   1,
		100 * time.Millisecond: 4,
		500 * time.Millisecond: 6,
		501 * time.Millisecond: 7,
	}
	for d, want := range cases {
		if got := BucketIndex(d); got != want {
			t.Fatalf("%v: expected %d, got %d", d, want, got)
		}
	}
}
