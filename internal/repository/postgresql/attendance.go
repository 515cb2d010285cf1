package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type attendanceRepository struct {
	db *database.DB
}

const attendanceColumns = `
	a.id, a.employee_id, a.user_id, a.centre_id, a.date,
	a.check_in_time, a.check_in_latitude, a.check_in_longitude, a.check_in_address,
	a.check_out_time, a.check_out_latitude, a.check_out_longitude, a.check_out_address,
	a.status, a.working_hours, a.remarks, a.created_at, a.updated_at,
	e.full_name, e.department, e.designation`

const attendanceFrom = `
	FROM attendances a
	LEFT JOIN employees e ON e.id = a.employee_id`

func scanAttendance(row pgx.Row) (attendance.Record, error) {
	var (
		rec                          attendance.Record
		inTime, outTime              *time.Time
		inLat, inLon, outLat, outLon *float64
		inAddress, outAddress        *string
		status                       string
		workingHours                 decimal.Decimal
	)

	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.UserID, &rec.CentreID, &rec.Date,
		&inTime, &inLat, &inLon, &inAddress,
		&outTime, &outLat, &outLon, &outAddress,
		&status, &workingHours, &rec.Remarks, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.EmployeeName, &rec.Department, &rec.Designation,
	)
	if err != nil {
		return attendance.Record{}, err
	}

	if inTime != nil {
		rec.CheckIn = &attendance.Punch{Time: inTime.UTC(), Latitude: inLat, Longitude: inLon, Address: inAddress}
	}
	if outTime != nil {
		rec.CheckOut = &attendance.Punch{Time: outTime.UTC(), Latitude: outLat, Longitude: outLon, Address: outAddress}
	}
	rec.Status = attendance.Status(status)
	rec.WorkingHours = workingHours
	rec.Date = attendance.DayOf(rec.Date)
	return rec, nil
}

// punchColumns flattens an optional punch into its column values.
func punchColumns(p *attendance.Punch) (*time.Time, *float64, *float64, *string) {
	if p == nil {
		return nil, nil, nil, nil
	}
	t := p.Time.UTC()
	return &t, p.Latitude, p.Longitude, p.Address
}

// CreateCheckIn implements attendance.AttendanceRepository.
func (a *attendanceRepository) CreateCheckIn(ctx context.Context, rec attendance.Record) (attendance.Record, bool, error) {
	q := GetQuerier(ctx, a.db)

	inTime, inLat, inLon, inAddress := punchColumns(rec.CheckIn)

	query := `
		INSERT INTO attendances (
			id, employee_id, user_id, centre_id, date,
			check_in_time, check_in_latitude, check_in_longitude, check_in_address,
			status, working_hours, remarks
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		ON CONFLICT (employee_id, date) DO NOTHING
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		rec.ID, rec.EmployeeID, rec.UserID, rec.CentreID, attendance.DayOf(rec.Date),
		inTime, inLat, inLon, inAddress,
		string(rec.Status), rec.WorkingHours, rec.Remarks,
	).Scan(&id)

	created := true
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, false, fmt.Errorf("failed to insert check-in: %w", err)
		}
		created = false
	}

	if !created {
		existing, err := a.GetByEmployeeAndDate(ctx, rec.EmployeeID, rec.Date)
		if err != nil {
			return attendance.Record{}, false, err
		}
		if existing == nil {
			return attendance.Record{}, false, fmt.Errorf("attendance for %s on %s conflicted but was not found", rec.EmployeeID, rec.Date.Format("2006-01-02"))
		}
		return *existing, false, nil
	}

	stored, err := a.GetByID(ctx, id)
	if err != nil {
		return attendance.Record{}, false, err
	}
	return stored, true, nil
}

// CompleteCheckOut implements attendance.AttendanceRepository.
func (a *attendanceRepository) CompleteCheckOut(ctx context.Context, id string, out attendance.Punch, hours decimal.Decimal) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	outTime, outLat, outLon, outAddress := punchColumns(&out)

	query := `
		UPDATE attendances SET
			check_out_time = $2,
			check_out_latitude = $3,
			check_out_longitude = $4,
			check_out_address = $5,
			working_hours = $6,
			updated_at = NOW()
		WHERE id = $1 AND check_out_time IS NULL
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, outTime, outLat, outLon, outAddress, hours).Scan(&updatedID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, fmt.Errorf("failed to update check-out: %w", err)
		}
		if _, getErr := a.GetByID(ctx, id); getErr != nil {
			return attendance.Record{}, getErr
		}
		return attendance.Record{}, attendance.ErrAlreadyCheckedOut
	}

	return a.GetByID(ctx, updatedID)
}

// UpsertRegularized implements attendance.AttendanceRepository.
func (a *attendanceRepository) UpsertRegularized(ctx context.Context, day attendance.RegularizedDay) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	id, err := newUUID()
	if err != nil {
		return attendance.Record{}, err
	}

	query := `
		INSERT INTO attendances (
			id, employee_id, user_id, centre_id, date,
			check_in_time, check_out_time, status, working_hours, remarks
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			working_hours = EXCLUDED.working_hours,
			check_in_time = COALESCE(EXCLUDED.check_in_time, attendances.check_in_time),
			check_out_time = COALESCE(EXCLUDED.check_out_time, attendances.check_out_time),
			remarks = CASE
				WHEN attendances.remarks = '' THEN EXCLUDED.remarks
				WHEN EXCLUDED.remarks = '' THEN attendances.remarks
				ELSE attendances.remarks || E'\n' || EXCLUDED.remarks
			END,
			updated_at = NOW()
		RETURNING id
	`

	var storedID string
	err = q.QueryRow(ctx, query,
		id, day.EmployeeID, day.UserID, day.CentreID, attendance.DayOf(day.Date),
		utcPtr(day.CheckIn), utcPtr(day.CheckOut), string(attendance.StatusPresent), day.WorkingHours,
		strings.TrimSpace(day.Remark),
	).Scan(&storedID)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to upsert regularized attendance: %w", err)
	}

	return a.GetByID(ctx, storedID)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + attendanceFrom + `
		WHERE a.employee_id = $1 AND a.date = $2
		LIMIT 1
	`

	rec, err := scanAttendance(q.QueryRow(ctx, query, employeeID, attendance.DayOf(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}

	return &rec, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + attendanceFrom + `
		WHERE a.id = $1
	`

	rec, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	return rec, nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time, statuses ...attendance.Status) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	var statusArg []string
	for _, s := range statuses {
		statusArg = append(statusArg, string(s))
	}

	query := `SELECT ` + attendanceColumns + attendanceFrom + `
		WHERE a.employee_id = $1
		  AND a.date BETWEEN $2 AND $3
		  AND ($4::text[] IS NULL OR a.status = ANY($4::text[]))
		ORDER BY a.date ASC
	`

	rows, err := q.Query(ctx, query, employeeID, attendance.DayOf(from), attendance.DayOf(to), statusArg)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "1=1"
	args := []interface{}{}
	argIdx := 1

	addAny := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		baseWhere += fmt.Sprintf(" AND %s = ANY($%d::text[])", column, argIdx)
		args = append(args, values)
		argIdx++
	}

	if len(filter.Dates) > 0 {
		dates := make([]time.Time, 0, len(filter.Dates))
		for _, d := range filter.Dates {
			parsed, err := time.Parse("2006-01-02", d)
			if err != nil {
				return nil, 0, fmt.Errorf("invalid date filter %q: %w", d, err)
			}
			dates = append(dates, parsed)
		}
		baseWhere += fmt.Sprintf(" AND a.date = ANY($%d::date[])", argIdx)
		args = append(args, dates)
		argIdx++
	}

	if from, to, ok := filter.DateRange(); ok {
		baseWhere += fmt.Sprintf(" AND a.date BETWEEN $%d AND $%d", argIdx, argIdx+1)
		args = append(args, from, to)
		argIdx += 2
	}

	addAny("a.employee_id::text", filter.EmployeeIDs)
	addAny("a.centre_id::text", filter.CentreIDs)
	addAny("a.status", filter.Statuses)
	addAny("e.department", filter.Departments)
	addAny("e.designation", filter.Designations)
	addAny("e.role", filter.Roles)

	countQuery := `SELECT COUNT(*)` + attendanceFrom + ` WHERE ` + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	// Build ORDER BY
	orderByField := "a.date"
	switch filter.SortBy {
	case "employee_name":
		orderByField = "e.full_name"
	case "status":
		orderByField = "a.status"
	case "working_hours":
		orderByField = "a.working_hours"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`SELECT %s %s
		WHERE %s
		ORDER BY %s %s, a.id %s
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, attendanceFrom, baseWhere, orderByField, sortOrder, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	records := []attendance.Record{}
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendances: %w", err)
	}

	return records, total, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	inTime, inLat, inLon, inAddress := punchColumns(rec.CheckIn)
	outTime, outLat, outLon, outAddress := punchColumns(rec.CheckOut)

	query := `
		UPDATE attendances SET
			check_in_time = $2,
			check_in_latitude = $3,
			check_in_longitude = $4,
			check_in_address = $5,
			check_out_time = $6,
			check_out_latitude = $7,
			check_out_longitude = $8,
			check_out_address = $9,
			status = $10,
			working_hours = $11,
			remarks = $12,
			updated_at = NOW()
		WHERE id = $1
	`

	cmdTag, err := q.Exec(ctx, query,
		rec.ID,
		inTime, inLat, inLon, inAddress,
		outTime, outLat, outLon, outAddress,
		string(rec.Status), rec.WorkingHours, rec.Remarks,
	)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to update attendance: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}

	return a.GetByID(ctx, rec.ID)
}

// Delete implements attendance.AttendanceRepository.
func (a *attendanceRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, a.db)

	cmdTag, err := q.Exec(ctx, `DELETE FROM attendances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// MarkForgotCheckout implements attendance.AttendanceRepository.
func (a *attendanceRepository) MarkForgotCheckout(ctx context.Context, before time.Time, remark string) (int64, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances SET
			status = $2,
			remarks = CASE WHEN remarks = '' THEN $3 ELSE remarks || E'\n' || $3 END,
			updated_at = NOW()
		WHERE check_in_time IS NOT NULL
		  AND check_out_time IS NULL
		  AND date < $1
		  AND status <> $2
	`

	cmdTag, err := q.Exec(ctx, query, attendance.DayOf(before), string(attendance.StatusForgotCheckout), remark)
	if err != nil {
		return 0, fmt.Errorf("failed to mark forgotten check-outs: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}
