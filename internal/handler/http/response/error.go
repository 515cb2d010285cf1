package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/centre"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// exposeInternalErrors adds the underlying error text to 500 responses.
var exposeInternalErrors bool

// SetExposeInternalErrors is enabled in development environments.
func SetExposeInternalErrors(enabled bool) {
	exposeInternalErrors = enabled
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var outOfRange *attendance.OutOfRangeError
	if errors.As(err, &outOfRange) {
		BadRequest(w, outOfRange.Error(), map[string]string{
			"distance_meters": fmt.Sprintf("%.2f", outOfRange.Distance),
			"radius_meters":   fmt.Sprintf("%.0f", outOfRange.Radius),
		})
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrUnauthenticated), errors.Is(err, user.ErrInvalidClaims):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrEmployeeProfileRequired):
		Forbidden(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyCheckedIn),
		errors.Is(err, attendance.ErrAlreadyCheckedOut),
		errors.Is(err, attendance.ErrNotCheckedIn):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrEmployeeProfileNotFound),
		errors.Is(err, attendance.ErrNoPrimaryCentre),
		errors.Is(err, attendance.ErrCentreLocationNotConfigured),
		errors.Is(err, attendance.ErrCheckOutBeforeCheckIn):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")

	// Regularization domain errors
	case errors.Is(err, regularization.ErrRegularizationNotFound):
		NotFound(w, "Regularization request not found")
	case errors.Is(err, regularization.ErrAlreadyProcessed),
		errors.Is(err, regularization.ErrCannotDeleteProcessed):
		Conflict(w, err.Error())
	case errors.Is(err, regularization.ErrSelfReview),
		errors.Is(err, regularization.ErrNotOwner):
		Forbidden(w, err.Error())
	case errors.Is(err, regularization.ErrFutureDate):
		BadRequest(w, err.Error(), nil)

	// Holiday domain errors
	case errors.Is(err, holiday.ErrHolidayNotFound):
		NotFound(w, "Holiday not found")
	case errors.Is(err, holiday.ErrHolidayExists):
		Conflict(w, err.Error())

	// Collaborator lookups
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, centre.ErrCentreNotFound):
		NotFound(w, "Centre not found")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		message := "An unexpected error occurred"
		if exposeInternalErrors {
			message = fmt.Sprintf("%s: %v", message, err)
		}
		InternalServerError(w, message)
	}
}
