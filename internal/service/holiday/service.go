package holiday

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/google/uuid"
)

type HolidayServiceImpl struct {
	holiday.HolidayRepository
	now func() time.Time
}

func NewHolidayService(holidayRepo holiday.HolidayRepository) holiday.HolidayService {
	return &HolidayServiceImpl{
		HolidayRepository: holidayRepo,
		now:               time.Now,
	}
}

// List implements holiday.HolidayService.
func (s *HolidayServiceImpl) List(ctx context.Context, req holiday.ListHolidayRequest) ([]holiday.HolidayResponse, error) {
	if req.Year == 0 {
		req.Year = s.now().UTC().Year()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := user.Require(actor, user.ResourceHoliday, user.ActionView); err != nil {
		return nil, err
	}

	from := time.Date(req.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(req.Year, time.December, 31, 0, 0, 0, 0, time.UTC)

	holidays, err := s.HolidayRepository.ListByRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	return holiday.ToResponses(holidays), nil
}

// Create implements holiday.HolidayService.
func (s *HolidayServiceImpl) Create(ctx context.Context, req holiday.CreateHolidayRequest) (holiday.HolidayResponse, error) {
	if err := req.Validate(); err != nil {
		return holiday.HolidayResponse{}, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return holiday.HolidayResponse{}, err
	}
	if err := user.Require(actor, user.ResourceHoliday, user.ActionManage); err != nil {
		return holiday.HolidayResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return holiday.HolidayResponse{}, fmt.Errorf("failed to generate holiday id: %w", err)
	}

	created, err := s.HolidayRepository.Create(ctx, holiday.Holiday{
		ID:   id.String(),
		Date: req.ParsedDate(),
		Name: strings.TrimSpace(req.Name),
		Type: req.Type,
	})
	if err != nil {
		if errors.Is(err, holiday.ErrHolidayExists) {
			return holiday.HolidayResponse{}, holiday.ErrHolidayExists
		}
		return holiday.HolidayResponse{}, fmt.Errorf("failed to create holiday: %w", err)
	}

	return holiday.ToResponse(created), nil
}

// Delete implements holiday.HolidayService.
func (s *HolidayServiceImpl) Delete(ctx context.Context, id string) error {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return err
	}
	if err := user.Require(actor, user.ResourceHoliday, user.ActionManage); err != nil {
		return err
	}

	if err := s.HolidayRepository.Delete(ctx, id); err != nil {
		if errors.Is(err, holiday.ErrHolidayNotFound) {
			return holiday.ErrHolidayNotFound
		}
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return nil
}
