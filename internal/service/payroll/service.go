package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/shopspring/decimal"
)

type PayrollServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
}

func NewPayrollService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
	}
}

// EmployeeAttendanceDetail implements payroll.PayrollService.
func (s *PayrollServiceImpl) EmployeeAttendanceDetail(ctx context.Context, req payroll.AttendanceDetailRequest) (payroll.EmployeeAttendanceDetail, error) {
	if err := req.Validate(); err != nil {
		return payroll.EmployeeAttendanceDetail{}, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return payroll.EmployeeAttendanceDetail{}, err
	}
	if !user.Authorize(actor, user.ResourcePayroll, user.ActionView) {
		return payroll.EmployeeAttendanceDetail{}, fmt.Errorf("%w: %w", user.ErrInsufficientPermissions, payroll.ErrPayrollAccessDenied)
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return payroll.EmployeeAttendanceDetail{}, employee.ErrEmployeeNotFound
		}
		return payroll.EmployeeAttendanceDetail{}, fmt.Errorf("failed to get employee: %w", err)
	}

	detail := payroll.EmployeeAttendanceDetail{
		Employee: employee.ToResponse(emp),
		Month:    req.Month,
		Year:     req.Year,
	}

	if !req.PeriodSet() {
		detail.AttendanceCount = payroll.DefaultPaidDays
		detail.SundaysCount = payroll.DefaultSundaysCount
		detail.Defaulted = true
		return detail, nil
	}

	month := time.Month(req.Month)
	from, to := attendance.MonthRange(req.Year, month)

	records, err := s.attendanceRepo.ListByEmployee(ctx, emp.ID, from, to, attendance.PresentStatuses...)
	if err != nil {
		return payroll.EmployeeAttendanceDetail{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	detail.AttendanceCount = PaidDays(records)
	detail.SundaysCount = SundaysAfterJoining(req.Year, month, emp.JoiningDate)
	return detail, nil
}

// PaidDays sums the paid weight of each record: half for HalfDay, one for
// any other attended status.
func PaidDays(records []attendance.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Status.PaidWeight())
	}
	return total
}

// SundaysAfterJoining counts the month's Sundays falling on or after the
// joining date. A nil joining date counts every Sunday.
func SundaysAfterJoining(year int, month time.Month, joining *time.Time) int {
	emp := employee.Employee{JoiningDate: joining}
	first, last := attendance.MonthRange(year, month)

	count := 0
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Sunday && emp.JoinedOnOrBefore(day) {
			count++
		}
	}
	return count
}
