package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	// Check-in/out errors
	ErrAlreadyCheckedIn  = errors.New("you have already checked in today")
	ErrNotCheckedIn      = errors.New("you must check in first")
	ErrAlreadyCheckedOut = errors.New("your attendance for today is already complete")
	ErrOutsideGeofence   = errors.New("you are outside the allowed radius of your centre")

	ErrCheckOutBeforeCheckIn = errors.New("check-out time must not be before check-in time")

	// Precondition errors
	ErrEmployeeProfileNotFound     = errors.New("employee profile not found")
	ErrNoPrimaryCentre             = errors.New("no primary centre is assigned to your profile")
	ErrCentreLocationNotConfigured = errors.New("your primary centre has no latitude/longitude configured")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
)

// OutOfRangeError reports a punch outside the centre geofence together with
// the measured distance.
type OutOfRangeError struct {
	Distance float64
	Radius   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: %.2f m from centre (allowed %.0f m)", ErrOutsideGeofence.Error(), e.Distance, e.Radius)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutsideGeofence
}
