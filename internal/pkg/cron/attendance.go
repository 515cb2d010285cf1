package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

const closeForgottenCheckoutsJob = "close_forgotten_checkouts"

type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	autoClose         bool
	interval          time.Duration
	now               func() time.Time
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, cfg config.AttendanceConfig) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceService: attendanceService,
		autoClose:         cfg.AutoCloseEnabled,
		interval:          cfg.AutoCloseInterval,
		now:               time.Now,
	}
}

// RegisterJobs adds the sweep only when auto-close is enabled.
func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	if !j.autoClose {
		slog.Info("Cron: Forgotten check-out sweep disabled")
		return
	}
	scheduler.AddJob(closeForgottenCheckoutsJob, j.interval, j.CloseForgottenCheckouts)
}

// CloseForgottenCheckouts flags records of earlier days that were checked
// in but never checked out.
func (j *AttendanceJobs) CloseForgottenCheckouts(ctx context.Context) error {
	slog.Info("Cron: Starting forgotten check-out sweep")

	closed, err := j.attendanceService.CloseForgottenCheckouts(ctx, j.now())
	if err != nil {
		return err
	}

	slog.Info("Cron: Forgotten check-out sweep finished", "closed", closed)
	return nil
}
