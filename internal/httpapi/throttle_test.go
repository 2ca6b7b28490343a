package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/internal/rate"
)

func TestLoginAndRefreshThrottle(t *testing.T) {
	a := newTestAPI(t)
	a.register("alice", "a@x.com", "")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	limiter := rate.New(rdb, rate.Config{
		MaxLoginAttempts:   2,
		LoginWindow:        time.Minute,
		MaxRefreshAttempts: 1,
		RefreshWindow:      time.Minute,
	})

	a.srv.Close()
	a.srv = httptest.NewServer(New(Config{
		Service:      a.engine,
		Throttle:     limiter,
		ErrThrottled: rate.ErrRateLimited,
	}).Handler())
	t.Cleanup(a.srv.Close)

	bad := map[string]string{"username": "alice", "password": "wrong"}
	expect(t, a.do(http.MethodPost, "/auth/login", "", bad), http.StatusUnauthorized, msgInvalidCredentials)
	expect(t, a.do(http.MethodPost, "/auth/login", "", bad), http.StatusUnauthorized, msgInvalidCredentials)
	good := map[string]string{"username": "alice", "password": "Secr3t!"}
	expect(t, a.do(http.MethodPost, "/auth/login", "", good), http.StatusTooManyRequests, msgTooManyRequests)

	mr.FastForward(time.Minute + time.Second)
	login := a.do(http.MethodPost, "/auth/login", "", good)
	expect(t, login, http.StatusOK, "")

	body := map[string]string{"refreshToken": login.str("refreshToken")}
	expect(t, a.do(http.MethodPost, "/auth/refresh", "", body), http.StatusOK, "")
	expect(t, a.do(http.MethodPost, "/auth/refresh", "", body), http.StatusTooManyRequests, msgTooManyRequests)
}

func TestThrottleFailsOpen(t *testing.T) {
	a := newTestAPI(t)
	a.register("alice", "a@x.com", "")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	a.srv.Close()
	a.srv = httptest.NewServer(New(Config{
		Service:      a.engine,
		Throttle:     rate.New(rdb, rate.Config{MaxLoginAttempts: 1, LoginWindow: time.Minute}),
		ErrThrottled: rate.ErrRateLimited,
	}).Handler())
	t.Cleanup(a.srv.Close)

	expect(t, a.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "Secr3t!"}), http.StatusOK, "")
}
