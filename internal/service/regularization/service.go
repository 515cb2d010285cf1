package regularization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine/internal/service/file"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RegularizationServiceImpl struct {
	regularization.RegularizationRepository
	attendance.AttendanceRepository
	employee.EmployeeRepository
	transactor   database.Transactor
	fileService  file.FileService
	defaultHours decimal.Decimal
	now          func() time.Time
}

// Create implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) Create(ctx context.Context, req regularization.CreateRegularizationRequest) (regularization.RegularizationResponse, error) {
	if err := req.Validate(); err != nil {
		return regularization.RegularizationResponse{}, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}
	if err := user.Require(actor, user.ResourceRegularization, user.ActionCreate); err != nil {
		return regularization.RegularizationResponse{}, err
	}
	if !actor.HasEmployeeProfile() {
		return regularization.RegularizationResponse{}, attendance.ErrEmployeeProfileNotFound
	}

	if _, err := s.EmployeeRepository.GetByID(ctx, actor.EmployeeID); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return regularization.RegularizationResponse{}, attendance.ErrEmployeeProfileNotFound
		}
		return regularization.RegularizationResponse{}, fmt.Errorf("failed to get employee profile: %w", err)
	}

	date := req.ParsedDate()
	if date.After(attendance.DayOf(s.now())) {
		return regularization.RegularizationResponse{}, regularization.ErrFutureDate
	}

	var photoKey string
	if req.File != nil && req.FileHeader != nil {
		photoKey, err = s.fileService.UploadRegularizationPhoto(ctx, actor.EmployeeID, date, req.File, req.FileHeader.Filename)
		if err != nil {
			return regularization.RegularizationResponse{}, fmt.Errorf("failed to upload photo: %w", err)
		}
		photoURL, err := s.fileService.GetFileURL(ctx, photoKey)
		if err != nil {
			return regularization.RegularizationResponse{}, fmt.Errorf("failed to resolve photo url: %w", err)
		}
		req.PhotoURL = &photoURL
	}

	id, err := uuid.NewV7()
	if err != nil {
		return regularization.RegularizationResponse{}, fmt.Errorf("failed to generate regularization id: %w", err)
	}

	created, err := s.RegularizationRepository.Create(ctx, regularization.Regularization{
		ID:         id.String(),
		EmployeeID: actor.EmployeeID,
		Date:       date,
		Reason:     strings.TrimSpace(req.Reason),
		Type:       req.Type,
		FromTime:   req.FromTime,
		ToTime:     req.ToTime,
		Status:     regularization.StatusPending,
		PhotoURL:   req.PhotoURL,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	})
	if err != nil {
		if photoKey != "" {
			if delErr := s.fileService.DeleteFile(ctx, photoKey); delErr != nil {
				slog.Warn("Failed to remove orphaned regularization photo", "path", photoKey, "error", delErr)
			}
		}
		return regularization.RegularizationResponse{}, fmt.Errorf("failed to create regularization: %w", err)
	}

	return regularization.ToResponse(created), nil
}

// List implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) List(ctx context.Context, req regularization.ListRegularizationRequest) ([]regularization.RegularizationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	filter := regularization.RegularizationFilter{Status: req.Status}
	switch {
	case req.EmployeeID != nil:
		if err := user.AuthorizeEmployeeScope(actor, user.ResourceRegularization, *req.EmployeeID); err != nil {
			return nil, err
		}
		filter.EmployeeID = req.EmployeeID
	case req.All:
		if err := user.Require(actor, user.ResourceRegularization, user.ActionViewAll); err != nil {
			return nil, err
		}
	default:
		if err := user.Require(actor, user.ResourceRegularization, user.ActionViewOwn); err != nil {
			return nil, err
		}
		if !actor.HasEmployeeProfile() {
			return nil, attendance.ErrEmployeeProfileNotFound
		}
		filter.EmployeeID = &actor.EmployeeID
	}

	regs, err := s.RegularizationRepository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list regularizations: %w", err)
	}

	responses := make([]regularization.RegularizationResponse, 0, len(regs))
	for _, r := range regs {
		responses = append(responses, regularization.ToResponse(r))
	}
	return responses, nil
}

// Get implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) Get(ctx context.Context, id string) (regularization.RegularizationResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}

	reg, err := s.getByID(ctx, id)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}

	if err := user.AuthorizeEmployeeScope(actor, user.ResourceRegularization, reg.EmployeeID); err != nil {
		return regularization.RegularizationResponse{}, err
	}

	return regularization.ToResponse(reg), nil
}

func (s *RegularizationServiceImpl) getByID(ctx context.Context, id string) (regularization.Regularization, error) {
	reg, err := s.RegularizationRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, regularization.ErrRegularizationNotFound) {
			return regularization.Regularization{}, regularization.ErrRegularizationNotFound
		}
		return regularization.Regularization{}, fmt.Errorf("failed to get regularization: %w", err)
	}
	return reg, nil
}

// UpdateStatus implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) UpdateStatus(ctx context.Context, req regularization.UpdateStatusRequest) (regularization.RegularizationResponse, error) {
	if err := req.Validate(); err != nil {
		return regularization.RegularizationResponse{}, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}
	if err := user.Require(actor, user.ResourceRegularization, user.ActionReview); err != nil {
		return regularization.RegularizationResponse{}, err
	}

	reg, err := s.getByID(ctx, req.ID)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}
	if actor.Owns(reg.EmployeeID) {
		return regularization.RegularizationResponse{}, regularization.ErrSelfReview
	}
	if !reg.IsPending() {
		return regularization.RegularizationResponse{}, regularization.ErrAlreadyProcessed
	}

	review := regularization.Review{
		ID:         reg.ID,
		Status:     req.Status,
		ReviewedBy: actor.UserID,
		ReviewedAt: s.now().UTC(),
		Remark:     req.Remark,
		FromTime:   req.FromTime,
		ToTime:     req.ToTime,
	}

	var reviewed regularization.Regularization
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		reviewed, err = s.RegularizationRepository.ApplyReview(ctx, review)
		if err != nil {
			return err
		}
		if reviewed.Status != regularization.StatusApproved {
			return nil
		}

		day, err := s.regularizedDay(ctx, reviewed)
		if err != nil {
			return err
		}
		if _, err := s.AttendanceRepository.UpsertRegularized(ctx, day); err != nil {
			return fmt.Errorf("failed to write regularized attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, regularization.ErrAlreadyProcessed) {
			return regularization.RegularizationResponse{}, regularization.ErrAlreadyProcessed
		}
		return regularization.RegularizationResponse{}, fmt.Errorf("failed to review regularization: %w", err)
	}

	slog.Info("Regularization reviewed",
		"regularization_id", reviewed.ID,
		"employee_id", reviewed.EmployeeID,
		"status", reviewed.Status,
		"reviewed_by", actor.UserID,
	)

	return regularization.ToResponse(reviewed), nil
}

// regularizedDay derives the attendance outcome of an approved request.
func (s *RegularizationServiceImpl) regularizedDay(ctx context.Context, reg regularization.Regularization) (attendance.RegularizedDay, error) {
	emp, err := s.EmployeeRepository.GetByID(ctx, reg.EmployeeID)
	if err != nil {
		return attendance.RegularizedDay{}, fmt.Errorf("failed to get employee %s: %w", reg.EmployeeID, err)
	}

	date := attendance.DayOf(reg.Date)
	day := attendance.RegularizedDay{
		EmployeeID:   reg.EmployeeID,
		UserID:       emp.UserID,
		CentreID:     emp.PrimaryCentreID,
		Date:         date,
		WorkingHours: s.defaultHours,
	}

	window := ""
	if in, out, ok := clockWindow(date, reg.FromTime, reg.ToTime); ok {
		day.CheckIn, day.CheckOut = &in, &out
		day.WorkingHours = attendance.WorkingHours(in, out)
		window = fmt.Sprintf(" %s-%s", *reg.FromTime, *reg.ToTime)
	}

	note := fmt.Sprintf("Regularized (%s%s) on %s: %s", reg.Type, window, reg.ReviewedAt.Format("2006-01-02"), reg.Reason)
	if reg.ReviewRemark != nil && strings.TrimSpace(*reg.ReviewRemark) != "" {
		note += " | Reviewer: " + strings.TrimSpace(*reg.ReviewRemark)
	}
	day.Remark = note

	return day, nil
}

// clockWindow resolves HH:mm bounds on date. It reports false when either
// bound is missing or the span is not positive.
func clockWindow(date time.Time, from, to *string) (time.Time, time.Time, bool) {
	if from == nil || to == nil {
		return time.Time{}, time.Time{}, false
	}
	fromClock, okFrom := validator.IsValidClock(*from)
	toClock, okTo := validator.IsValidClock(*to)
	if !okFrom || !okTo {
		return time.Time{}, time.Time{}, false
	}

	in := date.Add(time.Duration(fromClock.Hour())*time.Hour + time.Duration(fromClock.Minute())*time.Minute)
	out := date.Add(time.Duration(toClock.Hour())*time.Hour + time.Duration(toClock.Minute())*time.Minute)
	if !out.After(in) {
		return time.Time{}, time.Time{}, false
	}
	return in, out, true
}

// Delete implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) Delete(ctx context.Context, id string) error {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return err
	}

	reg, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}

	if !actor.Owns(reg.EmployeeID) {
		if err := user.Require(actor, user.ResourceRegularization, user.ActionManage); err != nil {
			return regularization.ErrNotOwner
		}
	}
	if !reg.IsPending() {
		return regularization.ErrCannotDeleteProcessed
	}

	if err := s.RegularizationRepository.Delete(ctx, id); err != nil {
		if errors.Is(err, regularization.ErrRegularizationNotFound) {
			return regularization.ErrRegularizationNotFound
		}
		return fmt.Errorf("failed to delete regularization: %w", err)
	}

	return nil
}

func NewRegularizationService(
	transactor database.Transactor,
	regularizationRepo regularization.RegularizationRepository,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	fileService file.FileService,
	defaultHours float64,
) regularization.RegularizationService {
	return &RegularizationServiceImpl{
		RegularizationRepository: regularizationRepo,
		AttendanceRepository:     attendanceRepo,
		EmployeeRepository:       employeeRepo,
		transactor:               transactor,
		fileService:              fileService,
		defaultHours:             decimal.NewFromFloat(defaultHours).Round(2),
		now:                      time.Now,
	}
}
