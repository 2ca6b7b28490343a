package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/MrEthical07/authcore"
)

const (
	msgMissingFields       = "Missing fields"
	msgMissingLogin        = "Missing username or password"
	msgMissingRefreshToken = "Missing refresh token"
	msgInvalidEmail        = "Invalid email"
	msgInvalidRole         = "Invalid role"
	msgInvalidPassword     = "Invalid password"
	msgIdentityExists      = "Username or email already in use"
	msgInvalidCredentials  = "Invalid credentials"
	msgInvalidRefreshToken = "Invalid refresh token"
	msgRefreshTokenExpired = "Refresh token expired"
	msgUserNotFound        = "User not found"
	msgOwnProfileOnly      = "Forbidden: You can only view your own profile"
	msgLoggedOut           = "Logged out"
	msgPasswordChanged     = "Password changed"
	msgBadRequest          = "Malformed request body"
	msgInternal            = "internal server error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// decode reads a JSON body into dst. An empty body leaves dst zero.
func decode(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeError answers err with the fixed message for its sentinel. Internal
// errors are logged and answered with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			writeMessage(w, m.status, m.msg)
			return
		}
	}

	switch authcore.KindOf(err) {
	case authcore.KindValidation:
		writeMessage(w, http.StatusBadRequest, msgMissingFields)
	case authcore.KindConflict:
		writeMessage(w, http.StatusConflict, msgIdentityExists)
	case authcore.KindAuthentication:
		writeMessage(w, http.StatusUnauthorized, msgInvalidCredentials)
	case authcore.KindAuthorization:
		writeMessage(w, http.StatusForbidden, msgOwnProfileOnly)
	case authcore.KindNotFound:
		writeMessage(w, http.StatusNotFound, msgUserNotFound)
	default:
		s.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	}
}

var errorMessages = []struct {
	err    error
	status int
	msg    string
}{
	{authcore.ErrMissingFields, http.StatusBadRequest, msgMissingFields},
	{authcore.ErrInvalidEmail, http.StatusBadRequest, msgInvalidEmail},
	{authcore.ErrInvalidRole, http.StatusBadRequest, msgInvalidRole},
	{authcore.ErrInvalidPassword, http.StatusBadRequest, msgInvalidPassword},
	{authcore.ErrIdentityExists, http.StatusConflict, msgIdentityExists},
	{authcore.ErrInvalidCredentials, http.StatusUnauthorized, msgInvalidCredentials},
	{authcore.ErrInvalidToken, http.StatusUnauthorized, msgInvalidRefreshToken},
	{authcore.ErrTokenExpired, http.StatusUnauthorized, msgRefreshTokenExpired},
	{authcore.ErrIdentityNotFound, http.StatusNotFound, msgUserNotFound},
}
