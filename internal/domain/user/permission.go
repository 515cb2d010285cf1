package user

import "fmt"

type Resource string

const (
	ResourceAttendance     Resource = "attendance"
	ResourceRegularization Resource = "regularization"
	ResourceAnalysis       Resource = "analysis"
	ResourcePayroll        Resource = "payroll"
	ResourceHoliday        Resource = "holiday"
)

type Action string

const (
	ActionCreate  Action = "create"
	ActionViewOwn Action = "view_own"
	ActionViewAll Action = "view_all"
	ActionReview  Action = "review"
	ActionManage  Action = "manage"
	ActionView    Action = "view"
)

// Permission is the "resource:action" pair a role may hold.
type Permission struct {
	Resource Resource
	Action   Action
}

func (p Permission) String() string {
	return fmt.Sprintf("%s:%s", p.Resource, p.Action)
}

func perm(r Resource, a Action) Permission {
	return Permission{Resource: r, Action: a}
}

var selfService = []Permission{
	perm(ResourceAttendance, ActionCreate),
	perm(ResourceAttendance, ActionViewOwn),
	perm(ResourceRegularization, ActionCreate),
	perm(ResourceRegularization, ActionViewOwn),
	perm(ResourceAnalysis, ActionViewOwn),
	perm(ResourceHoliday, ActionView),
}

var reviewer = []Permission{
	perm(ResourceAttendance, ActionViewAll),
	perm(ResourceRegularization, ActionViewAll),
	perm(ResourceRegularization, ActionReview),
	perm(ResourceAnalysis, ActionViewAll),
}

var administration = []Permission{
	perm(ResourceAttendance, ActionManage),
	perm(ResourceRegularization, ActionManage),
	perm(ResourceHoliday, ActionManage),
	perm(ResourcePayroll, ActionView),
}

// rolePolicy maps roles to their permissions
var rolePolicy = map[Role]map[Permission]struct{}{
	RoleSuperAdmin: permissionSet(selfService, reviewer, administration),
	RoleAdmin:      permissionSet(selfService, reviewer, administration),
	RoleHR: permissionSet(selfService, reviewer, []Permission{
		perm(ResourceHoliday, ActionManage),
		perm(ResourcePayroll, ActionView),
	}),
	RoleManager:  permissionSet(selfService, reviewer),
	RoleEmployee: permissionSet(selfService),
}

func permissionSet(groups ...[]Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{})
	for _, g := range groups {
		for _, p := range g {
			set[p] = struct{}{}
		}
	}
	return set
}

// Authorize is the single allow/deny decision for every protected operation.
func Authorize(actor Actor, resource Resource, action Action) bool {
	perms, ok := rolePolicy[actor.Role]
	if !ok {
		return false
	}
	_, allowed := perms[perm(resource, action)]
	return allowed
}

// Require returns ErrInsufficientPermissions wrapped with the missing permission.
func Require(actor Actor, resource Resource, action Action) error {
	if Authorize(actor, resource, action) {
		return nil
	}
	return fmt.Errorf("%w: required '%s', but user role is '%s'", ErrInsufficientPermissions, perm(resource, action), actor.Role)
}

// AuthorizeEmployeeScope decides access to data belonging to employeeID:
// owners need the view_own action, anyone else needs view_all.
func AuthorizeEmployeeScope(actor Actor, resource Resource, employeeID string) error {
	if actor.Owns(employeeID) {
		return Require(actor, resource, ActionViewOwn)
	}
	return Require(actor, resource, ActionViewAll)
}
