package attendance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent        Status = "Present"
	StatusAbsent         Status = "Absent"
	StatusLate           Status = "Late"
	StatusHalfDay        Status = "HalfDay"
	StatusHoliday        Status = "Holiday"
	StatusWeekOff        Status = "WeekOff"
	StatusEarlyLeave     Status = "EarlyLeave"
	StatusOvertime       Status = "Overtime"
	StatusForgotCheckout Status = "ForgotCheckout"
)

var AllStatuses = []Status{
	StatusPresent, StatusAbsent, StatusLate, StatusHalfDay, StatusHoliday,
	StatusWeekOff, StatusEarlyLeave, StatusOvertime, StatusForgotCheckout,
}

// PresentStatuses count as attended days for analysis and payroll.
var PresentStatuses = []Status{StatusPresent, StatusLate, StatusHalfDay}

func (s Status) IsValid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s Status) IsPresent() bool {
	for _, v := range PresentStatuses {
		if v == s {
			return true
		}
	}
	return false
}

var halfDay = decimal.RequireFromString("0.5")

// PaidWeight is the fraction of a paid day the status is worth.
func (s Status) PaidWeight() decimal.Decimal {
	switch {
	case s == StatusHalfDay:
		return halfDay
	case s.IsPresent():
		return decimal.NewFromInt(1)
	default:
		return decimal.Zero
	}
}

// Punch is one check-in or check-out event.
type Punch struct {
	Time      time.Time
	Latitude  *float64
	Longitude *float64
	Address   *string
}

// Record is the single attendance row per employee per calendar day.
type Record struct {
	ID           string
	EmployeeID   string
	UserID       *string
	CentreID     *string
	Date         time.Time
	CheckIn      *Punch
	CheckOut     *Punch
	Status       Status
	WorkingHours decimal.Decimal
	Remarks      string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Join
	EmployeeName *string
	Department   *string
	Designation  *string
}

type DayState string

const (
	StateNotStarted DayState = "not_started"
	StateCheckedIn  DayState = "checked_in"
	StateCompleted  DayState = "completed"
)

// StateOf places a day's record in the check-in/check-out state machine.
// Only a missing record has not started. A record without a check-in (a
// regularization approved without times, an admin-entered absence) settles
// the day and counts as completed.
func StateOf(r *Record) DayState {
	switch {
	case r == nil:
		return StateNotStarted
	case r.CheckIn != nil && r.CheckOut == nil:
		return StateCheckedIn
	default:
		return StateCompleted
	}
}

// RecomputeHours sets WorkingHours from the punches when both are present.
func (r *Record) RecomputeHours() {
	if r.CheckIn != nil && r.CheckOut != nil {
		r.WorkingHours = WorkingHours(r.CheckIn.Time, r.CheckOut.Time)
	}
}

// WorkingHours is the elapsed time between in and out in hours, rounded to
// two decimals. Non-positive spans yield zero.
func WorkingHours(in, out time.Time) decimal.Decimal {
	return HoursOf(out.Sub(in))
}

// HoursOf converts d to hours rounded to two decimals.
func HoursOf(d time.Duration) decimal.Decimal {
	if d <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(d / time.Second)).
		Div(decimal.NewFromInt(3600)).
		Round(2)
}

// DayOf returns the UTC calendar day containing t, at midnight.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthRange returns the first and last calendar day of month in UTC.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// DaysIn returns the number of days in month.
func DaysIn(year int, month time.Month) int {
	_, last := MonthRange(year, month)
	return last.Day()
}

// AppendRemark adds note on a new line, keeping earlier remarks intact.
func AppendRemark(existing, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	if strings.TrimSpace(existing) == "" {
		return note
	}
	return existing + "\n" + note
}

// RegularizedDay is the attendance outcome of an approved regularization.
type RegularizedDay struct {
	EmployeeID   string
	UserID       *string
	CentreID     *string
	Date         time.Time
	CheckIn      *time.Time
	CheckOut     *time.Time
	WorkingHours decimal.Decimal
	Remark       string
}
