package fixtures

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	holidays := memory.NewHolidayRepository(store)

	actors, err := SeedDemo(ctx, store, holidays, 2024)
	require.NoError(t, err)
	require.Len(t, actors, 4)

	emp, err := memory.NewEmployeeRepository(store).GetByID(ctx, actors[user.RoleEmployee].EmployeeID)
	require.NoError(t, err)
	assert.Equal(t, employee.ScheduleDefault, emp.WorkingDays.Source())
	require.NotNil(t, emp.PrimaryCentreID)

	c, err := memory.NewCentreRepository(store).GetByID(ctx, *emp.PrimaryCentreID)
	require.NoError(t, err)
	_, ok := c.Location()
	assert.True(t, ok)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	list, err := holidays.ListByRange(ctx, from, to)
	require.NoError(t, err)
	assert.Len(t, list, 4)

	// seeding twice keeps one holiday per date
	_, err = SeedDemo(ctx, store, holidays, 2024)
	require.NoError(t, err)
	list, err = holidays.ListByRange(ctx, from, to)
	require.NoError(t, err)
	assert.Len(t, list, 4)
}
