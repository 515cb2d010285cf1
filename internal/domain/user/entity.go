package user

type Role string

const (
	RoleSuperAdmin Role = "super_admin" // Institution-wide administrator
	RoleAdmin      Role = "admin"       // Centre administrator
	RoleHR         Role = "hr"          // Payroll and attendance officer
	RoleManager    Role = "manager"     // Reviews team requests
	RoleEmployee   Role = "employee"    // Regular staff
)

// Actor is the authenticated caller as carried by the access token.
type Actor struct {
	UserID     string
	EmployeeID string
	Role       Role
}

// HasEmployeeProfile reports whether the caller is linked to an employee record.
func (a Actor) HasEmployeeProfile() bool {
	return a.EmployeeID != ""
}

// Owns reports whether employeeID identifies the caller.
func (a Actor) Owns(employeeID string) bool {
	return a.EmployeeID != "" && a.EmployeeID == employeeID
}

func (r Role) IsValid() bool {
	_, ok := rolePolicy[r]
	return ok
}
