package middleware

import (
	"net/http"

	"github.com/MrEthical07/authcore/permission"
)

const (
	MessageInvalidRole      = "Forbidden: invalid or missing role"
	MessageInsufficientRole = "Forbidden: insufficient role"
)

// RequireRoles admits requests whose claims carry a role in allowed. It must
// run after [RequireAuth]. The claim role is normalised with
// permission.ParseRole before the comparison.
func RequireRoles(allowed permission.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				WriteMessage(w, http.StatusForbidden, MessageInvalidRole)
				return
			}

			permitted, valid := allowed.Allows(claims.Role)
			if !valid {
				WriteMessage(w, http.StatusForbidden, MessageInvalidRole)
				return
			}
			if !permitted {
				WriteMessage(w, http.StatusForbidden, MessageInsufficientRole)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
