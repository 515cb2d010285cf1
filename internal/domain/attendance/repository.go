package attendance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AttendanceRepository defines data access methods for attendance records.
// (employee_id, date) is unique; the create/upsert methods rely on it.
type AttendanceRepository interface {
	// CreateCheckIn inserts the day's record unless one already exists for
	// (employee, date). When it exists, the stored record is returned with
	// created=false.
	CreateCheckIn(ctx context.Context, rec Record) (stored Record, created bool, err error)

	// CompleteCheckOut stores the check-out only while the record is still
	// open. Returns ErrAlreadyCheckedOut when another request closed it first.
	CompleteCheckOut(ctx context.Context, id string, out Punch, hours decimal.Decimal) (Record, error)

	// UpsertRegularized creates or updates the day's record as Present.
	UpsertRegularized(ctx context.Context, day RegularizedDay) (Record, error)

	// GetByEmployeeAndDate returns nil when no record exists.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Record, error)
	GetByID(ctx context.Context, id string) (Record, error)

	// ListByEmployee returns records with from <= date <= to ordered by date.
	// An empty statuses list means any status.
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time, statuses ...Status) ([]Record, error)
	List(ctx context.Context, filter AttendanceFilter) ([]Record, int64, error)

	Update(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, id string) error

	// MarkForgotCheckout flags open records dated before day and appends
	// remark. Returns the number of records changed.
	MarkForgotCheckout(ctx context.Context, before time.Time, remark string) (int64, error)
}
