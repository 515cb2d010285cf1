package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunOnceJoinsErrors(t *testing.T) {
	s := NewScheduler()

	var calls int32
	s.AddJob("ok", time.Minute, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	s.AddJob("broken", time.Minute, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	})

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: boom")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewScheduler()

	ran := make(chan struct{}, 1)
	s.AddJob("tick", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	assert.Error(t, s.Start(ctx))

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}

	cancel()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	s := NewScheduler()
	s.AddJob("bad", 0, func(ctx context.Context) error { return nil })
	assert.Error(t, s.Start(context.Background()))
}

type stubAttendanceService struct {
	attendance.AttendanceService
	gotNow time.Time
	closed int64
	err    error
}

func (s *stubAttendanceService) CloseForgottenCheckouts(ctx context.Context, now time.Time) (int64, error) {
	s.gotNow = now
	return s.closed, s.err
}

func TestAttendanceJobs_CloseForgottenCheckouts(t *testing.T) {
	svc := &stubAttendanceService{closed: 3}
	jobs := NewAttendanceJobs(svc, config.AttendanceConfig{AutoCloseEnabled: true, AutoCloseInterval: time.Hour})
	clock := time.Date(2024, 7, 2, 0, 5, 0, 0, time.UTC)
	jobs.now = func() time.Time { return clock }

	s := NewScheduler()
	jobs.RegisterJobs(s)
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, clock, svc.gotNow)

	svc.err = errors.New("store unavailable")
	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), closeForgottenCheckoutsJob)
}
