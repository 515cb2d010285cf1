package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/analysis"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type AnalysisServiceImpl struct {
	attendance.AttendanceRepository
	employee.EmployeeRepository
	holiday.HolidayRepository
	now func() time.Time
}

// MonthlySummary implements analysis.AnalysisService.
func (s *AnalysisServiceImpl) MonthlySummary(ctx context.Context, req analysis.SummaryRequest) (analysis.MonthlySummary, error) {
	if err := req.Validate(); err != nil {
		return analysis.MonthlySummary{}, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return analysis.MonthlySummary{}, err
	}

	employeeID := req.EmployeeID
	if employeeID == "" {
		if !actor.HasEmployeeProfile() {
			return analysis.MonthlySummary{}, attendance.ErrEmployeeProfileNotFound
		}
		employeeID = actor.EmployeeID
	}
	if err := user.AuthorizeEmployeeScope(actor, user.ResourceAnalysis, employeeID); err != nil {
		return analysis.MonthlySummary{}, err
	}

	from, to := attendance.MonthRange(req.Year, time.Month(req.Month))

	var (
		emp      *employee.Employee
		records  []attendance.Record
		holidays []holiday.Holiday
	)
	g, gCtx := errgroup.WithContext(ctx)

	// A missing employee still yields a summary; absences need a schedule.
	g.Go(func() error {
		found, err := s.EmployeeRepository.GetByID(gCtx, employeeID)
		switch {
		case err == nil:
			emp = &found
		case !errors.Is(err, employee.ErrEmployeeNotFound):
			return fmt.Errorf("failed to get employee: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		if records, err = s.AttendanceRepository.ListByEmployee(gCtx, employeeID, from, to); err != nil {
			return fmt.Errorf("failed to list attendance: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		if holidays, err = s.HolidayRepository.ListByRange(gCtx, from, to); err != nil {
			return fmt.Errorf("failed to list holidays: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return analysis.MonthlySummary{}, err
	}

	summary := summarize(monthInput{
		employee: emp,
		year:     req.Year,
		month:    time.Month(req.Month),
		records:  records,
		holidays: holidays,
		today:    attendance.DayOf(s.now()),
	})
	summary.EmployeeID = employeeID
	return summary, nil
}

type monthInput struct {
	employee *employee.Employee
	year     int
	month    time.Month
	records  []attendance.Record
	holidays []holiday.Holiday
	today    time.Time
}

// summarize reconciles a month of records against the weekly schedule and
// the holiday calendar. Days after today are listed but never counted.
func summarize(in monthInput) analysis.MonthlySummary {
	byDate := make(map[string]attendance.Record, len(in.records))
	for _, r := range in.records {
		byDate[r.Date.UTC().Format("2006-01-02")] = r
	}
	holidays := holiday.DateSet(in.holidays)

	source := employee.ScheduleUnknown
	if in.employee != nil {
		source = in.employee.WorkingDays.Source()
	}

	summary := analysis.MonthlySummary{
		Month:          int(in.month),
		Year:           in.year,
		HolidayCount:   len(holidays),
		ScheduleSource: source,
	}

	first, last := attendance.MonthRange(in.year, in.month)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		rec, hasRecord := byDate[key]
		hol, isHoliday := holidays[key]

		entry := analysis.DailyHours{
			Date:   key,
			Day:    day.Day(),
			Future: day.After(in.today),
		}
		if in.employee != nil {
			entry.WorkingDay = in.employee.WorkingDays.IsWorkingDay(day.Weekday())
		}
		if hasRecord {
			entry.Hours = rec.WorkingHours.InexactFloat64()
			entry.Status = string(rec.Status)
		}
		if isHoliday {
			entry.Holiday = hol.Name
		}

		if !entry.Future {
			summary.TotalDays++
			if entry.WorkingDay && !isHoliday {
				summary.WorkingDays++
				if !hasRecord {
					entry.Absent = true
					summary.AbsentDays++
				}
			}
		}

		summary.Daily = append(summary.Daily, entry)
	}

	totalHours := decimal.Zero
	for _, r := range in.records {
		if r.Status.IsPresent() {
			summary.PresentDays++
		}
		totalHours = totalHours.Add(r.WorkingHours)
	}

	average := decimal.Zero
	if summary.PresentDays > 0 {
		average = totalHours.Div(decimal.NewFromInt(int64(summary.PresentDays)))
	}
	summary.TotalHours = totalHours.Round(2).InexactFloat64()
	summary.AverageHours = average.Round(2).InexactFloat64()

	return summary
}

func NewAnalysisService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	holidayRepo holiday.HolidayRepository,
) analysis.AnalysisService {
	return &AnalysisServiceImpl{
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		HolidayRepository:    holidayRepo,
		now:                  time.Now,
	}
}
