package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// ========================================
// CHECK-IN / CHECK-OUT DTOs
// ========================================

type PunchType string

const (
	PunchCheckIn  PunchType = "checkIn"
	PunchCheckOut PunchType = "checkOut"
)

type PunchRequest struct {
	Latitude  *float64  `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64  `json:"longitude" validate:"required,gte=-180,lte=180"`
	Type      PunchType `json:"type" validate:"required,oneof=checkIn checkOut"`
	Address   *string   `json:"address,omitempty" validate:"omitempty,max=255"`
}

func (r *PunchRequest) Validate() error {
	return validator.Struct(r)
}

type PunchResponse struct {
	Time      string   `json:"time"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   *string  `json:"address,omitempty"`
}

type AttendanceResponse struct {
	ID           string         `json:"id"`
	EmployeeID   string         `json:"employee_id"`
	EmployeeName *string        `json:"employee_name,omitempty"`
	Department   *string        `json:"department,omitempty"`
	Designation  *string        `json:"designation,omitempty"`
	CentreID     *string        `json:"centre_id,omitempty"`
	Date         string         `json:"date"`
	CheckIn      *PunchResponse `json:"check_in,omitempty"`
	CheckOut     *PunchResponse `json:"check_out,omitempty"`
	Status       Status         `json:"status"`
	WorkingHours float64        `json:"working_hours"`
	Remarks      string         `json:"remarks,omitempty"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
}

func punchToResponse(p *Punch) *PunchResponse {
	if p == nil {
		return nil
	}
	return &PunchResponse{
		Time:      p.Time.UTC().Format(time.RFC3339),
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Address:   p.Address,
	}
}

// ToResponse maps a Record to its API shape.
func ToResponse(r Record) AttendanceResponse {
	return AttendanceResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		Department:   r.Department,
		Designation:  r.Designation,
		CentreID:     r.CentreID,
		Date:         r.Date.Format("2006-01-02"),
		CheckIn:      punchToResponse(r.CheckIn),
		CheckOut:     punchToResponse(r.CheckOut),
		Status:       r.Status,
		WorkingHours: r.WorkingHours.InexactFloat64(),
		Remarks:      r.Remarks,
		CreatedAt:    r.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:    r.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func ToResponses(records []Record) []AttendanceResponse {
	out := make([]AttendanceResponse, 0, len(records))
	for _, r := range records {
		out = append(out, ToResponse(r))
	}
	return out
}

type DayStatusResponse struct {
	Date        string              `json:"date"`
	State       DayState            `json:"state"`
	CanCheckIn  bool                `json:"can_check_in"`
	CanCheckOut bool                `json:"can_check_out"`
	Record      *AttendanceResponse `json:"record,omitempty"`
}

// ========================================
// HISTORY DTOs
// ========================================

type MyHistoryRequest struct {
	Year int `json:"year"`
}

func (r *MyHistoryRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidYear(r.Year) {
		errs.Add("year", "year must be between 1970 and 9999")
	}
	return errs.OrNil()
}

type MyHistoryResponse struct {
	Year        int                       `json:"year"`
	Attendances []AttendanceResponse      `json:"attendances"`
	Holidays    []holiday.HolidayResponse `json:"holidays"`
	WorkingDays map[string]bool           `json:"working_days"`
}

// ========================================
// ADMIN LIST DTOs
// ========================================

// AttendanceFilter carries the admin multi-select filters. Each slice is an
// OR within the field; fields combine with AND.
type AttendanceFilter struct {
	Dates        []string `json:"dates,omitempty"` // YYYY-MM-DD
	Month        int      `json:"month,omitempty"`
	Year         int      `json:"year,omitempty"`
	EmployeeIDs  []string `json:"employee_ids,omitempty"`
	Departments  []string `json:"departments,omitempty"`
	Designations []string `json:"designations,omitempty"`
	Roles        []string `json:"roles,omitempty"`
	CentreIDs    []string `json:"centre_ids,omitempty"`
	Statuses     []string `json:"statuses,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, employee_name, status, working_hours
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}

	for _, d := range f.Dates {
		if _, valid := validator.IsValidDate(d); !valid {
			errs.Add("date", "date must be in YYYY-MM-DD format")
			break
		}
	}

	if f.Month != 0 {
		if !validator.IsValidMonth(f.Month) {
			errs.Add("month", "month must be between 1 and 12")
		}
		if f.Year == 0 {
			errs.Add("year", "year is required when month is given")
		}
	}
	if f.Year != 0 && !validator.IsValidYear(f.Year) {
		errs.Add("year", "year must be between 1970 and 9999")
	}

	for _, s := range f.Statuses {
		if !Status(s).IsValid() {
			errs.Add("status", "status must be one of: "+joinStatuses(AllStatuses))
			break
		}
	}

	if f.SortBy != "" {
		validSortFields := []string{"date", "employee_name", "status", "working_hours"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs.Add("sort_by", "sort_by must be one of: date, employee_name, status, working_hours")
		}
	} else {
		f.SortBy = "date"
	}

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs.Add("sort_order", "sort_order must be one of: asc, desc")
		}
	} else {
		f.SortOrder = "desc"
	}

	return errs.OrNil()
}

// DateRange returns the month or year window selected by the filter.
func (f *AttendanceFilter) DateRange() (from, to time.Time, ok bool) {
	switch {
	case f.Year != 0 && f.Month != 0:
		from, to = MonthRange(f.Year, time.Month(f.Month))
		return from, to, true
	case f.Year != 0:
		return time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(f.Year, time.December, 31, 0, 0, 0, 0, time.UTC), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func joinStatuses(statuses []Status) string {
	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ", ")
}

// ListAttendanceResponse is one page of records. Pagination travels in the
// response meta, not in the body.
type ListAttendanceResponse struct {
	Attendances []AttendanceResponse `json:"attendances"`
	TotalCount  int64                `json:"-"`
	Page        int                  `json:"-"`
	Limit       int                  `json:"-"`
}

// UpdateAttendanceRequest lets administrators correct a record.
type UpdateAttendanceRequest struct {
	ID           string  `json:"-"`
	Status       *Status `json:"status,omitempty"`
	CheckInTime  *string `json:"check_in_time,omitempty"`  // RFC3339 or HH:mm on the record date
	CheckOutTime *string `json:"check_out_time,omitempty"` // RFC3339 or HH:mm on the record date
	Remark       *string `json:"remark,omitempty" validate:"omitempty,max=500"`
}

func (r *UpdateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, fieldErrs...)
		} else {
			return err
		}
	}

	if r.Status != nil && !r.Status.IsValid() {
		errs.Add("status", "status must be one of: "+joinStatuses(AllStatuses))
	}
	if r.CheckInTime != nil && !isPunchTime(*r.CheckInTime) {
		errs.Add("check_in_time", "check_in_time must be RFC3339 or HH:mm")
	}
	if r.CheckOutTime != nil && !isPunchTime(*r.CheckOutTime) {
		errs.Add("check_out_time", "check_out_time must be RFC3339 or HH:mm")
	}
	if r.Status == nil && r.CheckInTime == nil && r.CheckOutTime == nil && r.Remark == nil {
		errs.Add("body", "at least one field must be provided")
	}

	return errs.OrNil()
}

func isPunchTime(s string) bool {
	_, ok := ParsePunchTime(s, time.Time{})
	return ok
}

// ParsePunchTime accepts RFC3339, or HH:mm interpreted on day in UTC.
func ParsePunchTime(s string, day time.Time) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if clock, ok := validator.IsValidClock(s); ok {
		return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC), true
	}
	return time.Time{}, false
}
