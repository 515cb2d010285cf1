package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type attendanceRepositoryImpl struct {
	store *Store
}

func NewAttendanceRepository(store *Store) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{store: store}
}

// withEmployee fills the joined employee columns. Caller holds the lock.
func (r *attendanceRepositoryImpl) withEmployee(rec attendance.Record) attendance.Record {
	if e, ok := r.store.employees[rec.EmployeeID]; ok {
		name, dept, desig := e.FullName, e.Department, e.Designation
		rec.EmployeeName = &name
		rec.Department = &dept
		rec.Designation = &desig
	}
	return rec
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (r *attendanceRepositoryImpl) CreateCheckIn(ctx context.Context, rec attendance.Record) (attendance.Record, bool, error) {
	defer r.store.lock(ctx)()

	key := dayKey(rec.EmployeeID, rec.Date)
	if id, ok := r.store.attendanceByDay[key]; ok {
		return r.withEmployee(r.store.attendances[id]), false, nil
	}

	if rec.ID == "" {
		rec.ID = newID()
	}
	now := r.store.now()
	rec.Date = attendance.DayOf(rec.Date)
	rec.CreatedAt, rec.UpdatedAt = now, now

	r.store.attendances[rec.ID] = rec
	r.store.attendanceByDay[key] = rec.ID
	return r.withEmployee(rec), true, nil
}

func (r *attendanceRepositoryImpl) CompleteCheckOut(ctx context.Context, id string, out attendance.Punch, hours decimal.Decimal) (attendance.Record, error) {
	defer r.store.lock(ctx)()

	rec, ok := r.store.attendances[id]
	if !ok {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	if rec.CheckOut != nil {
		return attendance.Record{}, attendance.ErrAlreadyCheckedOut
	}

	rec.CheckOut = &out
	rec.WorkingHours = hours
	rec.UpdatedAt = r.store.now()
	r.store.attendances[id] = rec
	return r.withEmployee(rec), nil
}

func (r *attendanceRepositoryImpl) UpsertRegularized(ctx context.Context, day attendance.RegularizedDay) (attendance.Record, error) {
	defer r.store.lock(ctx)()

	now := r.store.now()
	key := dayKey(day.EmployeeID, day.Date)

	rec := attendance.Record{
		ID:         newID(),
		EmployeeID: day.EmployeeID,
		UserID:     day.UserID,
		CentreID:   day.CentreID,
		Date:       attendance.DayOf(day.Date),
		CreatedAt:  now,
	}
	if id, ok := r.store.attendanceByDay[key]; ok {
		rec = r.store.attendances[id]
	}

	rec.Status = attendance.StatusPresent
	rec.WorkingHours = day.WorkingHours
	if day.CheckIn != nil {
		in := attendance.Punch{Time: *day.CheckIn}
		if rec.CheckIn != nil {
			in.Latitude, in.Longitude, in.Address = rec.CheckIn.Latitude, rec.CheckIn.Longitude, rec.CheckIn.Address
		}
		rec.CheckIn = &in
	}
	if day.CheckOut != nil {
		out := attendance.Punch{Time: *day.CheckOut}
		if rec.CheckOut != nil {
			out.Latitude, out.Longitude, out.Address = rec.CheckOut.Latitude, rec.CheckOut.Longitude, rec.CheckOut.Address
		}
		rec.CheckOut = &out
	}
	rec.Remarks = attendance.AppendRemark(rec.Remarks, day.Remark)
	rec.UpdatedAt = now

	r.store.attendances[rec.ID] = rec
	r.store.attendanceByDay[key] = rec.ID
	return r.withEmployee(rec), nil
}

func (r *attendanceRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.attendanceByDay[dayKey(employeeID, date)]
	if !ok {
		return nil, nil
	}
	rec := r.withEmployee(r.store.attendances[id])
	return &rec, nil
}

func (r *attendanceRepositoryImpl) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.attendances[id]
	if !ok {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	return r.withEmployee(rec), nil
}

func (r *attendanceRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time, statuses ...attendance.Status) ([]attendance.Record, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []attendance.Record
	for _, rec := range r.store.attendances {
		if rec.EmployeeID != employeeID || rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, rec.Status) {
			continue
		}
		out = append(out, r.withEmployee(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *attendanceRepositoryImpl) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Record, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	from, to, hasRange := filter.DateRange()

	var matched []attendance.Record
	for _, rec := range r.store.attendances {
		if len(filter.Dates) > 0 && !slices.Contains(filter.Dates, rec.Date.Format("2006-01-02")) {
			continue
		}
		if hasRange && (rec.Date.Before(from) || rec.Date.After(to)) {
			continue
		}
		if len(filter.EmployeeIDs) > 0 && !slices.Contains(filter.EmployeeIDs, rec.EmployeeID) {
			continue
		}
		if len(filter.CentreIDs) > 0 && (rec.CentreID == nil || !slices.Contains(filter.CentreIDs, *rec.CentreID)) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, string(rec.Status)) {
			continue
		}

		emp := r.store.employees[rec.EmployeeID]
		if len(filter.Departments) > 0 && !slices.Contains(filter.Departments, emp.Department) {
			continue
		}
		if len(filter.Designations) > 0 && !slices.Contains(filter.Designations, emp.Designation) {
			continue
		}
		if len(filter.Roles) > 0 && !slices.Contains(filter.Roles, emp.Role) {
			continue
		}

		matched = append(matched, r.withEmployee(rec))
	}

	sortRecords(matched, filter.SortBy, strings.EqualFold(filter.SortOrder, "asc"))

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start < 0 || start >= len(matched) {
		return []attendance.Record{}, total, nil
	}
	end := min(start+filter.Limit, len(matched))
	return matched[start:end], total, nil
}

func sortRecords(records []attendance.Record, sortBy string, asc bool) {
	less := func(a, b attendance.Record) int {
		switch sortBy {
		case "employee_name":
			return strings.Compare(deref(a.EmployeeName), deref(b.EmployeeName))
		case "status":
			return strings.Compare(string(a.Status), string(b.Status))
		case "working_hours":
			return a.WorkingHours.Cmp(b.WorkingHours)
		default:
			return a.Date.Compare(b.Date)
		}
	}
	slices.SortStableFunc(records, func(a, b attendance.Record) int {
		c := less(a, b)
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if !asc {
			c = -c
		}
		return c
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *attendanceRepositoryImpl) Update(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	defer r.store.lock(ctx)()

	existing, ok := r.store.attendances[rec.ID]
	if !ok {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}

	existing.Status = rec.Status
	existing.CheckIn = rec.CheckIn
	existing.CheckOut = rec.CheckOut
	existing.WorkingHours = rec.WorkingHours
	existing.Remarks = rec.Remarks
	existing.UpdatedAt = r.store.now()
	r.store.attendances[rec.ID] = existing
	return r.withEmployee(existing), nil
}

func (r *attendanceRepositoryImpl) Delete(ctx context.Context, id string) error {
	defer r.store.lock(ctx)()

	rec, ok := r.store.attendances[id]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	delete(r.store.attendances, id)
	delete(r.store.attendanceByDay, dayKey(rec.EmployeeID, rec.Date))
	return nil
}

func (r *attendanceRepositoryImpl) MarkForgotCheckout(ctx context.Context, before time.Time, remark string) (int64, error) {
	defer r.store.lock(ctx)()

	var n int64
	now := r.store.now()
	for id, rec := range r.store.attendances {
		if rec.CheckIn == nil || rec.CheckOut != nil || !rec.Date.Before(before) {
			continue
		}
		if rec.Status == attendance.StatusForgotCheckout {
			continue
		}
		rec.Status = attendance.StatusForgotCheckout
		rec.Remarks = attendance.AppendRemark(rec.Remarks, remark)
		rec.UpdatedAt = now
		r.store.attendances[id] = rec
		n++
	}
	return n, nil
}
