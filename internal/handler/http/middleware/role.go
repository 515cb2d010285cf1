package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
)

// RequirePermission checks if user has specific permission
func RequirePermission(resource user.Resource, action user.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := jwt.ActorFromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}

			if err := user.Require(actor, resource, action); err != nil {
				response.HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission admits the caller when any one of perms is held.
func RequireAnyPermission(perms ...user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := jwt.ActorFromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}

			var lastErr error
			for _, p := range perms {
				if lastErr = user.Require(actor, p.Resource, p.Action); lastErr == nil {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.HandleError(w, lastErr)
		})
	}
}
