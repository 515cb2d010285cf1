package attendance

import (
	"context"
	"time"
)

type AttendanceService interface {
	// Punch performs a geofenced check-in or check-out for the caller.
	Punch(ctx context.Context, req PunchRequest) (AttendanceResponse, error)
	GetTodayStatus(ctx context.Context) (DayStatusResponse, error)
	GetMyHistory(ctx context.Context, req MyHistoryRequest) (MyHistoryResponse, error)

	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)
	GetAttendance(ctx context.Context, id string) (AttendanceResponse, error)
	UpdateAttendance(ctx context.Context, req UpdateAttendanceRequest) (AttendanceResponse, error)
	DeleteAttendance(ctx context.Context, id string) error

	// CloseForgottenCheckouts marks open records from days before now as
	// ForgotCheckout.
	CloseForgottenCheckouts(ctx context.Context, now time.Time) (int64, error)
}
