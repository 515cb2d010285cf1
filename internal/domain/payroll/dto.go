package payroll

import (
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// Fallbacks used when the payroll period is not specified.
var (
	DefaultPaidDays     = decimal.NewFromInt(26)
	DefaultSundaysCount = 4
)

type AttendanceDetailRequest struct {
	EmployeeID string `json:"employee_id"`
	// Month and Year are optional; zero means "period not specified".
	Month int `json:"month,omitempty"`
	Year  int `json:"year,omitempty"`
}

// PeriodSet reports whether both month and year are given.
func (r *AttendanceDetailRequest) PeriodSet() bool {
	return r.Month != 0 && r.Year != 0
}

func (r *AttendanceDetailRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if r.Month != 0 && !validator.IsValidMonth(r.Month) {
		errs.Add("month", "month must be between 1 and 12")
	}
	if r.Year != 0 && !validator.IsValidYear(r.Year) {
		errs.Add("year", "year must be between 1970 and 9999")
	}
	return errs.OrNil()
}

type EmployeeAttendanceDetail struct {
	Employee        employee.EmployeeResponse `json:"employee"`
	Month           int                       `json:"month,omitempty"`
	Year            int                       `json:"year,omitempty"`
	AttendanceCount decimal.Decimal           `json:"attendance_count"`
	SundaysCount    int                       `json:"sundays_count"`
	Defaulted       bool                      `json:"defaulted"`
}
