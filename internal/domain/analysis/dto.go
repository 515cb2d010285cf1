package analysis

import (
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type SummaryRequest struct {
	// EmployeeID defaults to the caller when empty.
	EmployeeID string `json:"employee_id,omitempty"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

func (r *SummaryRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidMonth(r.Month) {
		errs.Add("month", "month must be between 1 and 12")
	}
	if !validator.IsValidYear(r.Year) {
		errs.Add("year", "year must be between 1970 and 9999")
	}
	return errs.OrNil()
}

// DailyHours is one calendar day in the month's series.
type DailyHours struct {
	Date       string  `json:"date"`
	Day        int     `json:"day"`
	Hours      float64 `json:"hours"`
	Status     string  `json:"status,omitempty"`
	WorkingDay bool    `json:"working_day"`
	Holiday    string  `json:"holiday,omitempty"`
	Absent     bool    `json:"absent"`
	Future     bool    `json:"future,omitempty"`
}

type MonthlySummary struct {
	EmployeeID     string                  `json:"employee_id"`
	Month          int                     `json:"month"`
	Year           int                     `json:"year"`
	TotalDays      int                     `json:"total_days"`
	WorkingDays    int                     `json:"working_days"`
	PresentDays    int                     `json:"present_days"`
	AbsentDays     int                     `json:"absent_days"`
	HolidayCount   int                     `json:"holiday_count"`
	TotalHours     float64                 `json:"total_hours"`
	AverageHours   float64                 `json:"average_hours"`
	ScheduleSource employee.ScheduleSource `json:"schedule_source"`
	Daily          []DailyHours            `json:"daily"`
}
