package employee

import (
	"time"
)

// Employee is the read-only staff profile owned by the HR module.
type Employee struct {
	ID              string
	UserID          *string
	EmployeeCode    string
	FullName        string
	Department      string
	Designation     string
	Role            string
	PrimaryCentreID *string
	JoiningDate     *time.Time
	WorkingDays     WeeklySchedule
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// JoinedOnOrBefore reports whether the employee had joined by day. An
// unknown joining date counts as joined.
func (e Employee) JoinedOnOrBefore(day time.Time) bool {
	if e.JoiningDate == nil {
		return true
	}
	joined := time.Date(e.JoiningDate.Year(), e.JoiningDate.Month(), e.JoiningDate.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(joined)
}
