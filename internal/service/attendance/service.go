package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/centre"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/geo"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/google/uuid"
)

const forgotCheckoutRemark = "Check-out not recorded; closed automatically"

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	employee.EmployeeRepository
	centre.CentreRepository
	holiday.HolidayRepository
	geofenceRadius float64
	now            func() time.Time
}

// Punch implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Punch(ctx context.Context, req attendance.PunchRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := user.Require(actor, user.ResourceAttendance, user.ActionCreate); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, err := a.employeeOf(ctx, actor)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	centreLocation, err := a.centreLocationOf(ctx, emp)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	reported := geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if !geo.Within(centreLocation, reported, a.geofenceRadius) {
		return attendance.AttendanceResponse{}, &attendance.OutOfRangeError{
			Distance: geo.Distance(centreLocation, reported),
			Radius:   a.geofenceRadius,
		}
	}

	nowUTC := a.now().UTC()
	punch := attendance.Punch{
		Time:      nowUTC,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Address:   req.Address,
	}

	switch req.Type {
	case attendance.PunchCheckIn:
		return a.checkIn(ctx, actor, emp, punch)
	default:
		return a.checkOut(ctx, emp, punch)
	}
}

func (a *AttendanceServiceImpl) checkIn(ctx context.Context, actor user.Actor, emp employee.Employee, punch attendance.Punch) (attendance.AttendanceResponse, error) {
	userID := emp.UserID
	if userID == nil {
		userID = &actor.UserID
	}

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}

	stored, created, err := a.AttendanceRepository.CreateCheckIn(ctx, attendance.Record{
		ID:         id.String(),
		EmployeeID: emp.ID,
		UserID:     userID,
		CentreID:   emp.PrimaryCentreID,
		Date:       attendance.DayOf(punch.Time),
		CheckIn:    &punch,
		Status:     attendance.StatusPresent,
	})
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	if !created {
		if attendance.StateOf(&stored) == attendance.StateCheckedIn {
			return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedOut
	}

	return attendance.ToResponse(stored), nil
}

func (a *AttendanceServiceImpl) checkOut(ctx context.Context, emp employee.Employee, punch attendance.Punch) (attendance.AttendanceResponse, error) {
	existing, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, emp.ID, attendance.DayOf(punch.Time))
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	switch attendance.StateOf(existing) {
	case attendance.StateNotStarted:
		return attendance.AttendanceResponse{}, attendance.ErrNotCheckedIn
	case attendance.StateCompleted:
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedOut
	}

	hours := attendance.WorkingHours(existing.CheckIn.Time, punch.Time)
	updated, err := a.AttendanceRepository.CompleteCheckOut(ctx, existing.ID, punch, hours)
	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyCheckedOut) {
			return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedOut
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to record check-out: %w", err)
	}

	return attendance.ToResponse(updated), nil
}

// employeeOf loads the caller's employee profile.
func (a *AttendanceServiceImpl) employeeOf(ctx context.Context, actor user.Actor) (employee.Employee, error) {
	if !actor.HasEmployeeProfile() {
		return employee.Employee{}, attendance.ErrEmployeeProfileNotFound
	}

	emp, err := a.EmployeeRepository.GetByID(ctx, actor.EmployeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, attendance.ErrEmployeeProfileNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee profile: %w", err)
	}
	return emp, nil
}

func (a *AttendanceServiceImpl) centreLocationOf(ctx context.Context, emp employee.Employee) (geo.Point, error) {
	if emp.PrimaryCentreID == nil || *emp.PrimaryCentreID == "" {
		return geo.Point{}, attendance.ErrNoPrimaryCentre
	}

	c, err := a.CentreRepository.GetByID(ctx, *emp.PrimaryCentreID)
	if err != nil {
		if errors.Is(err, centre.ErrCentreNotFound) {
			return geo.Point{}, attendance.ErrNoPrimaryCentre
		}
		return geo.Point{}, fmt.Errorf("failed to get primary centre: %w", err)
	}

	location, ok := c.Location()
	if !ok {
		return geo.Point{}, attendance.ErrCentreLocationNotConfigured
	}
	return location, nil
}

// GetTodayStatus implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetTodayStatus(ctx context.Context) (attendance.DayStatusResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return attendance.DayStatusResponse{}, err
	}
	if err := user.Require(actor, user.ResourceAttendance, user.ActionViewOwn); err != nil {
		return attendance.DayStatusResponse{}, err
	}
	if !actor.HasEmployeeProfile() {
		return attendance.DayStatusResponse{}, attendance.ErrEmployeeProfileNotFound
	}

	today := attendance.DayOf(a.now())
	rec, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, actor.EmployeeID, today)
	if err != nil {
		return attendance.DayStatusResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	state := attendance.StateOf(rec)
	resp := attendance.DayStatusResponse{
		Date:        today.Format("2006-01-02"),
		State:       state,
		CanCheckIn:  rec == nil,
		CanCheckOut: state == attendance.StateCheckedIn,
	}
	if rec != nil {
		r := attendance.ToResponse(*rec)
		resp.Record = &r
	}
	return resp, nil
}

// GetMyHistory implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyHistory(ctx context.Context, req attendance.MyHistoryRequest) (attendance.MyHistoryResponse, error) {
	if req.Year == 0 {
		req.Year = a.now().UTC().Year()
	}
	if err := req.Validate(); err != nil {
		return attendance.MyHistoryResponse{}, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return attendance.MyHistoryResponse{}, err
	}
	if err := user.Require(actor, user.ResourceAttendance, user.ActionViewOwn); err != nil {
		return attendance.MyHistoryResponse{}, err
	}

	emp, err := a.employeeOf(ctx, actor)
	if err != nil {
		return attendance.MyHistoryResponse{}, err
	}

	from := time.Date(req.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(req.Year, time.December, 31, 0, 0, 0, 0, time.UTC)

	records, err := a.AttendanceRepository.ListByEmployee(ctx, emp.ID, from, to)
	if err != nil {
		return attendance.MyHistoryResponse{}, fmt.Errorf("failed to list attendance history: %w", err)
	}

	holidays, err := a.HolidayRepository.ListByRange(ctx, from, to)
	if err != nil {
		return attendance.MyHistoryResponse{}, fmt.Errorf("failed to list holidays: %w", err)
	}

	return attendance.MyHistoryResponse{
		Year:        req.Year,
		Attendances: attendance.ToResponses(records),
		Holidays:    holiday.ToResponses(holidays),
		WorkingDays: emp.WorkingDays.Resolved(),
	}, nil
}

// ListAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	if err := user.Require(actor, user.ResourceAttendance, user.ActionViewAll); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	records, total, err := a.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	return attendance.ListAttendanceResponse{
		Attendances: attendance.ToResponses(records),
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
	}, nil
}

// GetAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	rec, err := a.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	if err := user.AuthorizeEmployeeScope(actor, user.ResourceAttendance, rec.EmployeeID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return attendance.ToResponse(rec), nil
}

// UpdateAttendance implements attendance.AttendanceService.
// Administrators use it to fix wrong punches, statuses or remarks.
func (a *AttendanceServiceImpl) UpdateAttendance(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := user.Require(actor, user.ResourceAttendance, user.ActionManage); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	rec, err := a.AttendanceRepository.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	if req.CheckInTime != nil {
		t, _ := attendance.ParsePunchTime(*req.CheckInTime, rec.Date)
		rec.CheckIn = withTime(rec.CheckIn, t)
	}
	if req.CheckOutTime != nil {
		t, _ := attendance.ParsePunchTime(*req.CheckOutTime, rec.Date)
		rec.CheckOut = withTime(rec.CheckOut, t)
	}
	if rec.CheckOut != nil && rec.CheckIn == nil {
		return attendance.AttendanceResponse{}, attendance.ErrNotCheckedIn
	}
	if rec.CheckIn != nil && rec.CheckOut != nil && rec.CheckOut.Time.Before(rec.CheckIn.Time) {
		return attendance.AttendanceResponse{}, attendance.ErrCheckOutBeforeCheckIn
	}

	if req.Status != nil {
		rec.Status = *req.Status
	}
	if req.Remark != nil {
		rec.Remarks = attendance.AppendRemark(rec.Remarks, *req.Remark)
	}
	rec.RecomputeHours()

	updated, err := a.AttendanceRepository.Update(ctx, rec)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	return attendance.ToResponse(updated), nil
}

// withTime returns a copy of p moved to t, keeping its coordinates.
func withTime(p *attendance.Punch, t time.Time) *attendance.Punch {
	out := attendance.Punch{Time: t}
	if p != nil {
		out.Latitude, out.Longitude, out.Address = p.Latitude, p.Longitude, p.Address
	}
	return &out
}

// DeleteAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DeleteAttendance(ctx context.Context, id string) error {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return err
	}
	if err := user.Require(actor, user.ResourceAttendance, user.ActionManage); err != nil {
		return err
	}

	if err := a.AttendanceRepository.Delete(ctx, id); err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.ErrAttendanceNotFound
		}
		return fmt.Errorf("failed to delete attendance: %w", err)
	}

	return nil
}

// CloseForgottenCheckouts implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CloseForgottenCheckouts(ctx context.Context, now time.Time) (int64, error) {
	today := attendance.DayOf(now)

	closed, err := a.AttendanceRepository.MarkForgotCheckout(ctx, today, forgotCheckoutRemark)
	if err != nil {
		return 0, fmt.Errorf("failed to close forgotten check-outs: %w", err)
	}

	if closed > 0 {
		slog.Info("Closed attendance records without check-out", "count", closed, "before", today.Format("2006-01-02"))
	}
	return closed, nil
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	centreRepo centre.CentreRepository,
	holidayRepo holiday.HolidayRepository,
	geofenceRadiusMeters float64,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		CentreRepository:     centreRepo,
		HolidayRepository:    holidayRepo,
		geofenceRadius:       geofenceRadiusMeters,
		now:                  time.Now,
	}
}
