package user

import "errors"

var (
	ErrUnauthenticated         = errors.New("authentication required")
	ErrInvalidClaims           = errors.New("access token claims are missing or invalid")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrEmployeeProfileRequired = errors.New("an employee profile is required for this action")
)
