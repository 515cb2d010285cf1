package regularization

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-engine/internal/service/file"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *RegularizationServiceImpl
	store *memory.Store
	jwt   jwt.Service
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	centreID, userID := "centre-1", "user-1"
	store.PutEmployee(employee.Employee{
		ID:              "emp-1",
		UserID:          &userID,
		FullName:        "Employee One",
		PrimaryCentreID: &centreID,
	})
	reviewerUser := "user-mgr"
	store.PutEmployee(employee.Employee{ID: "emp-mgr", UserID: &reviewerUser, FullName: "Manager"})

	local, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)

	f := &fixture{
		store: store,
		jwt:   jwt.NewJWTService("test-secret", time.Hour),
		clock: time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC),
	}
	f.svc = &RegularizationServiceImpl{
		RegularizationRepository: memory.NewRegularizationRepository(store),
		AttendanceRepository:     memory.NewAttendanceRepository(store),
		EmployeeRepository:       memory.NewEmployeeRepository(store),
		transactor:               memory.NewTransactor(store),
		fileService:              file.NewFileService(local),
		defaultHours:             decimal.NewFromInt(9),
		now:                      func() time.Time { return f.clock },
	}
	return f
}

func (f *fixture) ctx(t *testing.T, actor user.Actor) context.Context {
	t.Helper()
	ctx, err := jwt.ContextWithActor(context.Background(), f.jwt, actor)
	require.NoError(t, err)
	return ctx
}

var (
	owner    = user.Actor{UserID: "user-1", EmployeeID: "emp-1", Role: user.RoleEmployee}
	reviewer = user.Actor{UserID: "user-mgr", EmployeeID: "emp-mgr", Role: user.RoleManager}
)

func strPtr(s string) *string { return &s }

func (f *fixture) submit(t *testing.T, from, to *string) regularization.RegularizationResponse {
	t.Helper()
	created, err := f.svc.Create(f.ctx(t, owner), regularization.CreateRegularizationRequest{
		Date:     "2024-07-01",
		Reason:   "Biometric device was offline",
		Type:     regularization.TypeMissedPunch,
		FromTime: from,
		ToTime:   to,
	})
	require.NoError(t, err)
	return created
}

func (f *fixture) dayRecord(t *testing.T) *attendance.Record {
	t.Helper()
	rec, err := f.svc.AttendanceRepository.GetByEmployeeAndDate(context.Background(), "emp-1", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return rec
}

func TestUpdateStatus_ApproveCreatesPresentRecord(t *testing.T) {
	f := newFixture(t)
	created := f.submit(t, strPtr("09:00"), strPtr("18:00"))
	assert.Equal(t, regularization.StatusPending, created.Status)

	approved, err := f.svc.UpdateStatus(f.ctx(t, reviewer), regularization.UpdateStatusRequest{
		ID:     created.ID,
		Status: regularization.StatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, regularization.StatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, "user-mgr", *approved.ReviewedBy)

	rec := f.dayRecord(t)
	require.NotNil(t, rec)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	assert.True(t, decimal.RequireFromString("9.00").Equal(rec.WorkingHours))
	require.NotNil(t, rec.CheckIn)
	require.NotNil(t, rec.CheckOut)
	assert.Equal(t, time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC), rec.CheckIn.Time)
	assert.Equal(t, time.Date(2024, 7, 1, 18, 0, 0, 0, time.UTC), rec.CheckOut.Time)
	require.NotNil(t, rec.UserID)
	assert.Equal(t, "user-1", *rec.UserID)
	require.NotNil(t, rec.CentreID)
	assert.Equal(t, "centre-1", *rec.CentreID)
	assert.Contains(t, rec.Remarks, "Regularized (MissedPunch 09:00-18:00)")

	_, err = f.svc.UpdateStatus(f.ctx(t, reviewer), regularization.UpdateStatusRequest{
		ID:     created.ID,
		Status: regularization.StatusApproved,
	})
	assert.ErrorIs(t, err, regularization.ErrAlreadyProcessed)
}

func TestUpdateStatus_DefaultHoursWithoutWindow(t *testing.T) {
	cases := []struct {
		name     string
		from, to *string
	}{
		{"no times", nil, nil},
		{"only from", strPtr("09:00"), nil},
		{"inverted window", strPtr("18:00"), strPtr("09:00")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			created := f.submit(t, tc.from, tc.to)

			_, err := f.svc.UpdateStatus(f.ctx(t, reviewer), regularization.UpdateStatusRequest{
				ID:     created.ID,
				Status: regularization.StatusApproved,
			})
			require.NoError(t, err)

			rec := f.dayRecord(t)
			require.NotNil(t, rec)
			assert.True(t, decimal.NewFromInt(9).Equal(rec.WorkingHours), rec.WorkingHours.String())
			assert.Nil(t, rec.CheckIn)
			assert.Nil(t, rec.CheckOut)
		})
	}
}

func TestUpdateStatus_ReviewerWindowOverridesAndKeepsExistingRecord(t *testing.T) {
	f := newFixture(t)
	existing, _, err := f.svc.AttendanceRepository.CreateCheckIn(context.Background(), attendance.Record{
		EmployeeID: "emp-1",
		Date:       time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckIn:    &attendance.Punch{Time: time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)},
		Status:     attendance.StatusPresent,
		Remarks:    "checked in from the gate",
	})
	require.NoError(t, err)

	created := f.submit(t, nil, nil)
	_, err = f.svc.UpdateStatus(f.ctx(t, reviewer), regularization.UpdateStatusRequest{
		ID:       created.ID,
		Status:   regularization.StatusApproved,
		FromTime: strPtr("09:30"),
		ToTime:   strPtr("17:45"),
		Remark:   strPtr("verified with security log"),
	})
	require.NoError(t, err)

	rec := f.dayRecord(t)
	require.NotNil(t, rec)
	assert.Equal(t, existing.ID, rec.ID)
	assert.Equal(t, "8.25", rec.WorkingHours.String())
	assert.Contains(t, rec.Remarks, "checked in from the gate\nRegularized")
	assert.Contains(t, rec.Remarks, "verified with security log")
}

func TestUpdateStatus_RejectLeavesAttendanceUntouched(t *testing.T) {
	f := newFixture(t)
	created := f.submit(t, strPtr("09:00"), strPtr("18:00"))

	rejected, err := f.svc.UpdateStatus(f.ctx(t, reviewer), regularization.UpdateStatusRequest{
		ID:     created.ID,
		Status: regularization.StatusRejected,
		Remark: strPtr("no evidence"),
	})
	require.NoError(t, err)
	assert.Equal(t, regularization.StatusRejected, rejected.Status)
	assert.Nil(t, f.dayRecord(t))
}

func TestUpdateStatus_AuthorizationRules(t *testing.T) {
	f := newFixture(t)
	created := f.submit(t, nil, nil)

	_, err := f.svc.UpdateStatus(f.ctx(t, owner), regularization.UpdateStatusRequest{
		ID: created.ID, Status: regularization.StatusApproved,
	})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	selfReviewer := user.Actor{UserID: "user-1", EmployeeID: "emp-1", Role: user.RoleManager}
	_, err = f.svc.UpdateStatus(f.ctx(t, selfReviewer), regularization.UpdateStatusRequest{
		ID: created.ID, Status: regularization.StatusApproved,
	})
	assert.ErrorIs(t, err, regularization.ErrSelfReview)

	_, err = f.svc.UpdateStatus(f.ctx(t, reviewer), regularization.UpdateStatusRequest{
		ID: "missing", Status: regularization.StatusApproved,
	})
	assert.ErrorIs(t, err, regularization.ErrRegularizationNotFound)

	_, err = f.svc.UpdateStatus(f.ctx(t, reviewer), regularization.UpdateStatusRequest{
		ID: created.ID, Status: regularization.StatusPending,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status must be one of: Approved, Rejected")
}

type failingAttendanceRepo struct {
	attendance.AttendanceRepository
}

func (failingAttendanceRepo) UpsertRegularized(ctx context.Context, day attendance.RegularizedDay) (attendance.Record, error) {
	return attendance.Record{}, errors.New("disk full")
}

func TestUpdateStatus_FailedUpsertRollsBackApproval(t *testing.T) {
	f := newFixture(t)
	created := f.submit(t, strPtr("09:00"), strPtr("18:00"))
	f.svc.AttendanceRepository = failingAttendanceRepo{f.svc.AttendanceRepository}

	_, err := f.svc.UpdateStatus(f.ctx(t, reviewer), regularization.UpdateStatusRequest{
		ID: created.ID, Status: regularization.StatusApproved,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	got, err := f.svc.Get(f.ctx(t, owner), created.ID)
	require.NoError(t, err)
	assert.Equal(t, regularization.StatusPending, got.Status)
	assert.Nil(t, got.ReviewedBy)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx(t, owner)

	_, err := f.svc.Create(ctx, regularization.CreateRegularizationRequest{
		Date:   "2024-07-11",
		Reason: "future",
		Type:   regularization.TypeOnDuty,
	})
	assert.ErrorIs(t, err, regularization.ErrFutureDate)

	lat := 22.5
	_, err = f.svc.Create(ctx, regularization.CreateRegularizationRequest{
		Date:     "01-07-2024",
		Type:     "Holiday",
		FromTime: strPtr("9am"),
		Latitude: &lat,
	})
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "date must match the format YYYY-MM-DD")
	assert.Contains(t, msg, "reason is required")
	assert.Contains(t, msg, "type must be one of")
	assert.Contains(t, msg, "from_time must match the format HH:mm")
	assert.Contains(t, msg, "latitude and longitude must be provided together")

	noProfile := f.ctx(t, user.Actor{UserID: "user-x", Role: user.RoleEmployee})
	_, err = f.svc.Create(noProfile, regularization.CreateRegularizationRequest{
		Date: "2024-07-01", Reason: "x", Type: regularization.TypeOther,
	})
	assert.ErrorIs(t, err, attendance.ErrEmployeeProfileNotFound)
}

func TestListGetDelete(t *testing.T) {
	f := newFixture(t)
	first := f.submit(t, nil, nil)
	second := f.submit(t, strPtr("10:00"), strPtr("12:00"))

	mine, err := f.svc.List(f.ctx(t, owner), regularization.ListRegularizationRequest{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = f.svc.List(f.ctx(t, owner), regularization.ListRegularizationRequest{All: true})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	pending := regularization.StatusPending
	all, err := f.svc.List(f.ctx(t, reviewer), regularization.ListRegularizationRequest{All: true, Status: &pending})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	outsider := f.ctx(t, user.Actor{UserID: "user-9", EmployeeID: "emp-9", Role: user.RoleEmployee})
	_, err = f.svc.Get(outsider, first.ID)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
	assert.ErrorIs(t, f.svc.Delete(outsider, first.ID), regularization.ErrNotOwner)

	require.NoError(t, f.svc.Delete(f.ctx(t, owner), first.ID))
	_, err = f.svc.Get(f.ctx(t, owner), first.ID)
	assert.ErrorIs(t, err, regularization.ErrRegularizationNotFound)

	_, err = f.svc.UpdateStatus(f.ctx(t, reviewer), regularization.UpdateStatusRequest{
		ID: second.ID, Status: regularization.StatusRejected,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Delete(f.ctx(t, owner), second.ID), regularization.ErrCannotDeleteProcessed)
}
