package regularization

import "time"

type Type string

const (
	TypeOnDuty       Type = "OnDuty"
	TypeMissedPunch  Type = "MissedPunch"
	TypeWorkFromHome Type = "WorkFromHome"
	TypeOther        Type = "Other"
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Regularization is an employee's request to correct a day's attendance.
type Regularization struct {
	ID           string
	EmployeeID   string
	Date         time.Time
	Reason       string
	Type         Type
	FromTime     *string // HH:mm
	ToTime       *string // HH:mm
	Status       Status
	PhotoURL     *string
	Latitude     *float64
	Longitude    *float64
	ReviewedBy   *string
	ReviewedAt   *time.Time
	ReviewRemark *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Join
	EmployeeName *string
}

// IsPending reports whether the request can still be reviewed.
func (r Regularization) IsPending() bool {
	return r.Status == StatusPending
}

// Review is the terminal decision recorded on a pending request.
type Review struct {
	ID         string
	Status     Status
	ReviewedBy string
	ReviewedAt time.Time
	Remark     *string
	FromTime   *string
	ToTime     *string
}
