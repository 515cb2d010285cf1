package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/centre"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/geo"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var centreLocation = geo.Point{Latitude: 22.5726, Longitude: 88.3639}

type fixture struct {
	svc   *AttendanceServiceImpl
	store *memory.Store
	jwt   jwt.Service
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	lat, lon := centreLocation.Latitude, centreLocation.Longitude
	store.PutCentre(centre.Centre{ID: "centre-1", Name: "Park Street", Latitude: &lat, Longitude: &lon})
	store.PutCentre(centre.Centre{ID: "centre-nogeo", Name: "Annex"})

	centreID := "centre-1"
	joined := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	userID := "user-1"
	store.PutEmployee(employee.Employee{
		ID:              "emp-1",
		UserID:          &userID,
		EmployeeCode:    "E001",
		FullName:        "Employee One",
		Department:      "Science",
		Designation:     "Teacher",
		Role:            "employee",
		PrimaryCentreID: &centreID,
		JoiningDate:     &joined,
	})

	f := &fixture{
		store: store,
		jwt:   jwt.NewJWTService("test-secret", time.Hour),
		clock: time.Date(2024, 7, 1, 9, 5, 0, 0, time.UTC),
	}
	f.svc = &AttendanceServiceImpl{
		AttendanceRepository: memory.NewAttendanceRepository(store),
		EmployeeRepository:   memory.NewEmployeeRepository(store),
		CentreRepository:     memory.NewCentreRepository(store),
		HolidayRepository:    memory.NewHolidayRepository(store),
		geofenceRadius:       10,
		now:                  func() time.Time { return f.clock },
	}
	return f
}

func (f *fixture) ctx(t *testing.T, actor user.Actor) context.Context {
	t.Helper()
	ctx, err := jwt.ContextWithActor(context.Background(), f.jwt, actor)
	require.NoError(t, err)
	return ctx
}

func employeeActor() user.Actor {
	return user.Actor{UserID: "user-1", EmployeeID: "emp-1", Role: user.RoleEmployee}
}

func punchAt(p geo.Point, typ attendance.PunchType) attendance.PunchRequest {
	lat, lon := p.Latitude, p.Longitude
	return attendance.PunchRequest{Latitude: &lat, Longitude: &lon, Type: typ}
}

func TestPunch_CheckInThenCheckOut(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx(t, employeeActor())

	in, err := f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckIn))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, in.Status)
	assert.Equal(t, "2024-07-01", in.Date)
	assert.Nil(t, in.CheckOut)

	f.clock = time.Date(2024, 7, 1, 18, 10, 0, 0, time.UTC)
	out, err := f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckOut))
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, 9.08, out.WorkingHours)
	assert.Equal(t, attendance.StatusPresent, out.Status)
	require.NotNil(t, out.CheckOut)
	assert.Equal(t, "2024-07-01T18:10:00Z", out.CheckOut.Time)

	records, err := f.svc.AttendanceRepository.ListByEmployee(ctx, "emp-1",
		time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestPunch_StateMachineRejectsInvalidTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx(t, employeeActor())

	_, err := f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckOut))
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)

	_, err = f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckIn))
	require.NoError(t, err)

	_, err = f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckIn))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	f.clock = f.clock.Add(8 * time.Hour)
	_, err = f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckOut))
	require.NoError(t, err)

	_, err = f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckOut))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
	_, err = f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckIn))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestPunch_ConcurrentCheckInsCreateOneRecord(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx(t, employeeActor())

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckIn)); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestPunch_Geofence(t *testing.T) {
	centres := []struct {
		name     string
		location geo.Point
	}{
		{"origin", geo.Point{Latitude: 0, Longitude: 0}},
		{"kolkata", centreLocation},
	}
	cases := []struct {
		name    string
		meters  float64
		wantErr bool
	}{
		{"at centre", 0, false},
		{"exactly on radius", 10.0, false},
		{"just outside radius", 10.1, true},
		{"far away", 2500, true},
	}

	for _, c := range centres {
		for _, tc := range cases {
			t.Run(c.name+"/"+tc.name, func(t *testing.T) {
				f := newFixture(t)
				lat, lon := c.location.Latitude, c.location.Longitude
				f.store.PutCentre(centre.Centre{ID: "centre-1", Name: "Park Street", Latitude: &lat, Longitude: &lon})
				ctx := f.ctx(t, employeeActor())

				_, err := f.svc.Punch(ctx, punchAt(geo.Offset(c.location, 45, tc.meters), attendance.PunchCheckIn))
				if !tc.wantErr {
					assert.NoError(t, err)
					return
				}

				assert.ErrorIs(t, err, attendance.ErrOutsideGeofence)
				var rangeErr *attendance.OutOfRangeError
				require.ErrorAs(t, err, &rangeErr)
				assert.InDelta(t, tc.meters, rangeErr.Distance, 1e-6)
				assert.Equal(t, 10.0, rangeErr.Radius)
			})
		}
	}
}

func TestPunch_Preconditions(t *testing.T) {
	t.Run("no employee profile on token", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.ctx(t, user.Actor{UserID: "user-9", Role: user.RoleEmployee})
		_, err := f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckIn))
		assert.ErrorIs(t, err, attendance.ErrEmployeeProfileNotFound)
	})

	t.Run("unknown employee", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.ctx(t, user.Actor{UserID: "user-9", EmployeeID: "emp-404", Role: user.RoleEmployee})
		_, err := f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckIn))
		assert.ErrorIs(t, err, attendance.ErrEmployeeProfileNotFound)
	})

	t.Run("no primary centre", func(t *testing.T) {
		f := newFixture(t)
		f.store.PutEmployee(employee.Employee{ID: "emp-2", FullName: "Floating"})
		ctx := f.ctx(t, user.Actor{UserID: "user-2", EmployeeID: "emp-2", Role: user.RoleEmployee})
		_, err := f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckIn))
		assert.ErrorIs(t, err, attendance.ErrNoPrimaryCentre)
	})

	t.Run("centre without coordinates", func(t *testing.T) {
		f := newFixture(t)
		centreID := "centre-nogeo"
		f.store.PutEmployee(employee.Employee{ID: "emp-3", FullName: "Annex Staff", PrimaryCentreID: &centreID})
		ctx := f.ctx(t, user.Actor{UserID: "user-3", EmployeeID: "emp-3", Role: user.RoleEmployee})
		_, err := f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckIn))
		assert.ErrorIs(t, err, attendance.ErrCentreLocationNotConfigured)
	})

	t.Run("invalid payload", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.ctx(t, employeeActor())
		_, err := f.svc.Punch(ctx, attendance.PunchRequest{Type: "lunch"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "latitude is required")
	})

	t.Run("no token", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Punch(context.Background(), punchAt(centreLocation, attendance.PunchCheckIn))
		assert.ErrorIs(t, err, user.ErrUnauthenticated)
	})
}

func TestGetTodayStatus(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx(t, employeeActor())

	status, err := f.svc.GetTodayStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, attendance.StateNotStarted, status.State)
	assert.True(t, status.CanCheckIn)
	assert.False(t, status.CanCheckOut)
	assert.Nil(t, status.Record)

	_, err = f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckIn))
	require.NoError(t, err)

	status, err = f.svc.GetTodayStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, attendance.StateCheckedIn, status.State)
	assert.False(t, status.CanCheckIn)
	assert.True(t, status.CanCheckOut)
	require.NotNil(t, status.Record)
}

func TestGetTodayStatus_RegularizedDayWithoutTimesIsCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx(t, employeeActor())

	_, err := f.svc.AttendanceRepository.UpsertRegularized(ctx, attendance.RegularizedDay{
		EmployeeID:   "emp-1",
		Date:         attendance.DayOf(f.clock),
		WorkingHours: decimal.NewFromInt(9),
		Remark:       "Regularized: field visit",
	})
	require.NoError(t, err)

	status, err := f.svc.GetTodayStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, attendance.StateCompleted, status.State)
	assert.False(t, status.CanCheckIn)
	assert.False(t, status.CanCheckOut)

	_, err = f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckIn))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
	_, err = f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckOut))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestGetMyHistory_DefaultsToCurrentYear(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx(t, employeeActor())

	_, err := f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckIn))
	require.NoError(t, err)

	history, err := f.svc.GetMyHistory(ctx, attendance.MyHistoryRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2024, history.Year)
	assert.Len(t, history.Attendances, 1)
	assert.Empty(t, history.Holidays)
	assert.True(t, history.WorkingDays["monday"])
	assert.False(t, history.WorkingDays["sunday"])
}

func TestListAttendance_RequiresViewAll(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListAttendance(f.ctx(t, employeeActor()), attendance.AttendanceFilter{})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	_, err = f.svc.Punch(f.ctx(t, employeeActor()), punchAt(centreLocation, attendance.PunchCheckIn))
	require.NoError(t, err)

	admin := f.ctx(t, user.Actor{UserID: "admin-1", Role: user.RoleAdmin})
	list, err := f.svc.ListAttendance(admin, attendance.AttendanceFilter{Departments: []string{"Science"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalCount)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.Limit)
	require.Len(t, list.Attendances, 1)
	require.NotNil(t, list.Attendances[0].EmployeeName)
	assert.Equal(t, "Employee One", *list.Attendances[0].EmployeeName)

	empty, err := f.svc.ListAttendance(admin, attendance.AttendanceFilter{Departments: []string{"Arts"}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.TotalCount)
	assert.Empty(t, empty.Attendances)
}

func TestUpdateAttendance_RecomputesHoursAndAppendsRemark(t *testing.T) {
	f := newFixture(t)
	in, err := f.svc.Punch(f.ctx(t, employeeActor()), punchAt(centreLocation, attendance.PunchCheckIn))
	require.NoError(t, err)

	admin := f.ctx(t, user.Actor{UserID: "admin-1", Role: user.RoleAdmin})
	out, remark := "17:35", "corrected by admin"
	updated, err := f.svc.UpdateAttendance(admin, attendance.UpdateAttendanceRequest{
		ID:           in.ID,
		CheckOutTime: &out,
		Remark:       &remark,
	})
	require.NoError(t, err)
	assert.Equal(t, 8.5, updated.WorkingHours)
	assert.Equal(t, "corrected by admin", updated.Remarks)

	early := "08:00"
	_, err = f.svc.UpdateAttendance(admin, attendance.UpdateAttendanceRequest{ID: in.ID, CheckOutTime: &early})
	assert.ErrorIs(t, err, attendance.ErrCheckOutBeforeCheckIn)

	_, err = f.svc.UpdateAttendance(f.ctx(t, employeeActor()), attendance.UpdateAttendanceRequest{ID: in.ID, Remark: &remark})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}

func TestGetAndDeleteAttendance(t *testing.T) {
	f := newFixture(t)
	in, err := f.svc.Punch(f.ctx(t, employeeActor()), punchAt(centreLocation, attendance.PunchCheckIn))
	require.NoError(t, err)

	got, err := f.svc.GetAttendance(f.ctx(t, employeeActor()), in.ID)
	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)

	other := f.ctx(t, user.Actor{UserID: "user-2", EmployeeID: "emp-2", Role: user.RoleEmployee})
	_, err = f.svc.GetAttendance(other, in.ID)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	admin := f.ctx(t, user.Actor{UserID: "admin-1", Role: user.RoleAdmin})
	require.NoError(t, f.svc.DeleteAttendance(admin, in.ID))
	assert.ErrorIs(t, f.svc.DeleteAttendance(admin, in.ID), attendance.ErrAttendanceNotFound)
	_, err = f.svc.GetAttendance(admin, in.ID)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestCloseForgottenCheckouts(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx(t, employeeActor())
	in, err := f.svc.Punch(ctx, punchAt(centreLocation, attendance.PunchCheckIn))
	require.NoError(t, err)

	closed, err := f.svc.CloseForgottenCheckouts(context.Background(), f.clock)
	require.NoError(t, err)
	assert.Zero(t, closed)

	closed, err = f.svc.CloseForgottenCheckouts(context.Background(), f.clock.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), closed)

	rec, err := f.svc.AttendanceRepository.GetByID(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusForgotCheckout, rec.Status)
	assert.Equal(t, forgotCheckoutRemark, rec.Remarks)
}
