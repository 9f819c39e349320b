package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/tanahub/timeclock/internal/domain/auth"
	"github.com/tanahub/timeclock/internal/domain/user"
	"github.com/tanahub/timeclock/internal/handler/http/response"
)

// ManagerOnly restricts a route to users whose role can manage shifts
// and correct attendance.
func ManagerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		role, ok := claims["role"].(string)
		if !ok {
			response.HandleError(w, user.ErrManagerPrivilegeRequired)
			return
		}

		u := user.User{Role: user.Role(role)}
		if !u.IsManager() {
			response.HandleError(w, user.ErrManagerPrivilegeRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
