package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore"
)

const msgTooManyRequests = "Too many requests, please try again later"

// allowLogin reports whether the login may proceed. Throttle backend
// failures are logged and let the request through.
func (s *Server) allowLogin(w http.ResponseWriter, r *http.Request, login string) bool {
	if s.throttle == nil {
		return true
	}
	return s.throttleResult(w, r, s.throttle.CheckLogin(r.Context(), login, clientIP(r.RemoteAddr)))
}

func (s *Server) allowRefresh(w http.ResponseWriter, r *http.Request) bool {
	if s.throttle == nil {
		return true
	}
	return s.throttleResult(w, r, s.throttle.CheckRefresh(r.Context(), clientIP(r.RemoteAddr)))
}

func (s *Server) throttleResult(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case s.throttled != nil && errors.Is(err, s.throttled):
		writeMessage(w, http.StatusTooManyRequests, msgTooManyRequests)
		return false
	default:
		s.log.Warn("throttle unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		return true
	}
}

// recordLogin feeds the outcome of a login back into the throttle.
func (s *Server) recordLogin(ctx context.Context, login, ip string, err error) {
	if s.throttle == nil {
		return
	}
	var terr error
	switch {
	case err == nil:
		terr = s.throttle.ResetLogin(ctx, login, ip)
	case errors.Is(err, authcore.ErrInvalidCredentials):
		terr = s.throttle.RecordLoginFailure(ctx, login, ip)
	}
	if terr != nil {
		s.log.Warn("throttle update failed", zap.Error(terr))
	}
}
