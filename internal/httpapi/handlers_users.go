package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrEthical07/authcore/middleware"
	"github.com/MrEthical07/authcore/permission"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, middleware.MessageInvalidToken)
		return
	}

	id, err := s.svc.Identity(r.Context(), claims.Subject)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sessions, err := s.svc.Sessions(r.Context(), id.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := toIdentityResponse(id)
	active := len(sessions)
	resp.ActiveSessions = &active
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ids, err := s.svc.Identities(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]identityResponse, 0, len(ids))
	for _, id := range ids {
		out = append(out, toIdentityResponse(id))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetUser lets admins read any identity and everyone else only their
// own. The ownership check runs before the lookup.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, middleware.MessageInvalidToken)
		return
	}

	target := chi.URLParam(r, "id")
	role, err := permission.ParseRole(claims.Role)
	if (err != nil || role != permission.RoleAdmin) && claims.Subject != target {
		writeMessage(w, http.StatusForbidden, msgOwnProfileOnly)
		return
	}

	id, err := s.svc.Identity(r.Context(), target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponse(id))
}
