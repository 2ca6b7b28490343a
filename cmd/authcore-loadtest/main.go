// Command authcore-loadtest measures refresh-session throughput on the Redis
// session store.
//
// It seeds refresh entries, then runs three phases: owner lookups, rotations
// (consume the current digest and add its successor) and a contention phase
// where every worker races to consume the same digest.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/refresh"
	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/store"
)

type slot struct {
	identity string
	digest   string
	mu       sync.Mutex
}

func main() {
	var (
		sessions    = flag.Int("sessions", 50000, "number of refresh entries to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase")
		races       = flag.Int("races", 200, "contended digests in the race phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, AUTHCORE_REDIS_ADDR or miniredis is used")
		prefix      = flag.String("prefix", "authcore-lt", "session key prefix")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	client, cleanup, err := connect(*redisAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()

	sessionStore := session.NewStore(client, session.Config{Prefix: *prefix})

	slots, err := seed(ctx, sessionStore, *sessions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	ownerStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		s := &slots[r.Intn(len(slots))]
		s.mu.Lock()
		digest := s.digest
		s.mu.Unlock()
		_, err := sessionStore.Owner(ctx, digest)
		return err
	})

	rotateStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		s := &slots[r.Intn(len(slots))]
		s.mu.Lock()
		defer s.mu.Unlock()
		return rotate(ctx, sessionStore, s)
	})

	winners, raceStats := runRaces(ctx, sessionStore, *races, *concurrency)

	fmt.Println("---- results ----")
	printStats("owner", ownerStats)
	printStats("rotate", rotateStats)
	printStats("race", raceStats)
	fmt.Printf("race: digests=%d winners=%d\n", *races, winners)
	if winners != int64(*races) {
		fmt.Fprintln(os.Stderr, "single-winner violation")
		os.Exit(1)
	}
}

func connect(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("AUTHCORE_REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func seed(ctx context.Context, s store.SessionStore, n int) ([]slot, error) {
	fmt.Printf("seeding %d refresh entries...\n", n)
	start := time.Now()
	slots := make([]slot, n)
	for i := range slots {
		digest, err := newDigest()
		if err != nil {
			return nil, err
		}
		slots[i].identity = fmt.Sprintf("identity-%d", i%1024)
		slots[i].digest = digest
		if err := s.Add(ctx, slots[i].identity, digest, 24*time.Hour); err != nil {
			return nil, err
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(start).Round(time.Millisecond))
	return slots, nil
}

func newDigest() (string, error) {
	token, err := refresh.Generate()
	if err != nil {
		return "", err
	}
	return refresh.Digest(token), nil
}

func rotate(ctx context.Context, s store.SessionStore, sl *slot) error {
	status, err := s.Consume(ctx, sl.identity, sl.digest)
	if err != nil {
		return err
	}
	if status != store.ConsumeOK {
		return fmt.Errorf("consume: %s", status)
	}
	next, err := newDigest()
	if err != nil {
		return err
	}
	if err := s.Add(ctx, sl.identity, next, 24*time.Hour); err != nil {
		return err
	}
	sl.digest = next
	return nil
}

// runRaces seeds n digests and lets concurrency workers consume each one at
// the same time. It returns how many consumes succeeded in total.
func runRaces(ctx context.Context, s store.SessionStore, n, concurrency int) (int64, phaseStats) {
	var (
		winners   int64
		failures  int64
		latencies []time.Duration
		mu        sync.Mutex
	)

	start := time.Now()
	for i := 0; i < n; i++ {
		digest, err := newDigest()
		if err != nil {
			atomic.AddInt64(&failures, 1)
			continue
		}
		identity := fmt.Sprintf("racer-%d", i)
		if err := s.Add(ctx, identity, digest, time.Hour); err != nil {
			atomic.AddInt64(&failures, 1)
			continue
		}

		gate := make(chan struct{})
		var wg sync.WaitGroup
		for w := 0; w < concurrency; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-gate
				t0 := time.Now()
				status, err := s.Consume(ctx, identity, digest)
				d := time.Since(t0)
				switch {
				case err != nil:
					atomic.AddInt64(&failures, 1)
				case status == store.ConsumeOK:
					atomic.AddInt64(&winners, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}()
		}
		close(gate)
		wg.Wait()
	}
	return winners, computeStats(time.Since(start), latencies, failures)
}

func runPhase(ops, concurrency int, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for atomic.AddInt64(&cursor, 1) <= int64(ops) {
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	switch {
	case len(sorted) == 0:
		return 0
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	return sorted[(len(sorted)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
