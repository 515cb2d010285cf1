package fixtures

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/centre"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
)

func strPtr(s string) *string       { return &s }
func float64Ptr(f float64) *float64 { return &f }

// DemoActors are the callers seeded by SeedDemo, keyed by role.
type DemoActors map[user.Role]user.Actor

const demoCentreID = "0190f5a4-0000-7000-8000-000000000001"

// SeedDemo fills an in-memory store with one geo-configured centre, one
// employee per role and the year's fixed public holidays.
func SeedDemo(ctx context.Context, store *memory.Store, holidays holiday.HolidayRepository, year int) (DemoActors, error) {
	store.PutCentre(centre.Centre{
		ID:        demoCentreID,
		Name:      "Park Street Campus",
		Address:   strPtr("Park Street, Kolkata"),
		Latitude:  float64Ptr(22.5526),
		Longitude: float64Ptr(88.3524),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	})

	weekdays := employee.WeeklySchedule{
		time.Monday: true, time.Tuesday: true, time.Wednesday: true, time.Thursday: true,
		time.Friday: true, time.Saturday: true, time.Sunday: false,
	}
	joined := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	people := []struct {
		role        user.Role
		name        string
		department  string
		designation string
		schedule    employee.WeeklySchedule
	}{
		{user.RoleAdmin, "Asha Admin", "Administration", "Principal", weekdays},
		{user.RoleHR, "Harun HR", "Accounts", "Payroll Officer", weekdays},
		{user.RoleManager, "Mira Manager", "Science", "Head of Department", weekdays},
		{user.RoleEmployee, "Esha Employee", "Science", "Teacher", nil},
	}

	actors := make(DemoActors, len(people))
	for i, p := range people {
		employeeID := fmt.Sprintf("0190f5a4-0000-7000-8000-0000000001%02d", i)
		userID := fmt.Sprintf("0190f5a4-0000-7000-8000-0000000002%02d", i)
		store.PutEmployee(employee.Employee{
			ID:              employeeID,
			UserID:          strPtr(userID),
			EmployeeCode:    fmt.Sprintf("EMP%03d", i+1),
			FullName:        p.name,
			Department:      p.department,
			Designation:     p.designation,
			Role:            string(p.role),
			PrimaryCentreID: strPtr(demoCentreID),
			JoiningDate:     &joined,
			WorkingDays:     p.schedule,
			CreatedAt:       time.Now().UTC(),
			UpdatedAt:       time.Now().UTC(),
		})
		actors[p.role] = user.Actor{UserID: userID, EmployeeID: employeeID, Role: p.role}
	}

	fixed := []struct {
		month time.Month
		day   int
		name  string
	}{
		{time.January, 26, "Republic Day"},
		{time.August, 15, "Independence Day"},
		{time.October, 2, "Gandhi Jayanti"},
		{time.December, 25, "Christmas Day"},
	}
	for _, h := range fixed {
		_, err := holidays.Create(ctx, holiday.Holiday{
			Date: time.Date(year, h.month, h.day, 0, 0, 0, 0, time.UTC),
			Name: h.name,
			Type: holiday.TypePublic,
		})
		if err != nil && !errors.Is(err, holiday.ErrHolidayExists) {
			return nil, fmt.Errorf("failed to seed holiday %q: %w", h.name, err)
		}
	}

	return actors, nil
}
