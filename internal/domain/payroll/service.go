package payroll

import "context"

type PayrollService interface {
	// EmployeeAttendanceDetail returns the paid-day count and Sunday count
	// payroll needs for one employee and month.
	EmployeeAttendanceDetail(ctx context.Context, req AttendanceDetailRequest) (EmployeeAttendanceDetail, error)
}
