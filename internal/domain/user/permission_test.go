package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	cases := []struct {
		role     Role
		resource Resource
		action   Action
		want     bool
	}{
		{RoleEmployee, ResourceAttendance, ActionCreate, true},
		{RoleEmployee, ResourceAttendance, ActionViewAll, false},
		{RoleEmployee, ResourceRegularization, ActionReview, false},
		{RoleManager, ResourceRegularization, ActionReview, true},
		{RoleManager, ResourcePayroll, ActionView, false},
		{RoleHR, ResourcePayroll, ActionView, true},
		{RoleHR, ResourceAttendance, ActionManage, false},
		{RoleAdmin, ResourceAttendance, ActionManage, true},
		{RoleSuperAdmin, ResourceHoliday, ActionManage, true},
		{Role("guest"), ResourceHoliday, ActionView, false},
	}

	for _, tc := range cases {
		got := Authorize(Actor{Role: tc.role}, tc.resource, tc.action)
		assert.Equal(t, tc.want, got, "%s %s:%s", tc.role, tc.resource, tc.action)
	}
}

func TestAuthorizeEmployeeScope(t *testing.T) {
	employee := Actor{UserID: "u1", EmployeeID: "e1", Role: RoleEmployee}
	manager := Actor{UserID: "u2", EmployeeID: "e2", Role: RoleManager}

	assert.NoError(t, AuthorizeEmployeeScope(employee, ResourceAnalysis, "e1"))
	assert.NoError(t, AuthorizeEmployeeScope(manager, ResourceAnalysis, "e1"))

	err := AuthorizeEmployeeScope(employee, ResourceAnalysis, "e2")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientPermissions)
	assert.Contains(t, err.Error(), "analysis:view_all")
}

func TestActor_OwnsRequiresProfile(t *testing.T) {
	assert.False(t, Actor{}.Owns(""))
	assert.True(t, Actor{EmployeeID: "e1"}.Owns("e1"))
}
