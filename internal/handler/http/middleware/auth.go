package middleware

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
)

// AuthRequired rejects requests whose verified token is missing or is not an
// access token carrying a user and role. Must run after jwtauth.Verifier.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := jwt.ActorFromContext(r.Context()); err != nil {
			response.HandleError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ResolveEmployeeProfile fills in the employee id for tokens that carry only
// a user id, when that user is linked to an employee record.
func ResolveEmployeeProfile(employees employee.EmployeeRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := jwt.ActorFromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}
			if actor.HasEmployeeProfile() {
				next.ServeHTTP(w, r)
				return
			}

			emp, err := employees.GetByUserID(r.Context(), actor.UserID)
			switch {
			case err == nil:
				actor.EmployeeID = emp.ID
				r = r.WithContext(jwt.WithResolvedActor(r.Context(), actor))
			case !errors.Is(err, employee.ErrEmployeeNotFound):
				response.HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireEmployeeProfile only admits callers linked to an employee record.
func RequireEmployeeProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := jwt.ActorFromContext(r.Context())
		if err != nil {
			response.HandleError(w, err)
			return
		}

		if !actor.HasEmployeeProfile() {
			response.HandleError(w, user.ErrEmployeeProfileRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
