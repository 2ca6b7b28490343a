package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/middleware"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type identityResponse struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
	ActiveSessions *int      `json:"activeSessions,omitempty"`
}

func toIdentityResponse(id authcore.Identity) identityResponse {
	return identityResponse{
		ID:        id.ID,
		Username:  id.Username,
		Email:     id.Email,
		Role:      string(id.Role),
		CreatedAt: id.CreatedAt,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

func toTokenResponse(p authcore.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresIn:    int64(p.ExpiresIn / time.Second),
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	id, err := s.svc.Register(r.Context(), authcore.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toIdentityResponse(id))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	login := req.Username
	if strings.TrimSpace(login) == "" {
		login = req.Email
	}
	if strings.TrimSpace(login) == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, msgMissingLogin)
		return
	}

	if !s.allowLogin(w, r, login) {
		return
	}

	pair, err := s.svc.Login(r.Context(), login, req.Password)
	s.recordLogin(r.Context(), login, clientIP(r.RemoteAddr), err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	if req.RefreshToken == "" {
		writeMessage(w, http.StatusBadRequest, msgMissingRefreshToken)
		return
	}
	if !s.allowRefresh(w, r) {
		return
	}

	pair, err := s.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

// handleLogout takes the refresh token from the body and the access
// credential from the Authorization header. Both are optional.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	access, _ := middleware.BearerToken(r.Header.Get("Authorization"))

	if err := s.svc.Logout(r.Context(), req.RefreshToken, access); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, msgLoggedOut)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, middleware.MessageInvalidToken)
		return
	}

	var req changePasswordRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	if err := s.svc.ChangePassword(r.Context(), claims.Subject, req.OldPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, msgPasswordChanged)
}
