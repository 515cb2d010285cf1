package employee

type EmployeeResponse struct {
	ID              string          `json:"id"`
	UserID          *string         `json:"user_id,omitempty"`
	EmployeeCode    string          `json:"employee_code"`
	FullName        string          `json:"full_name"`
	Department      string          `json:"department"`
	Designation     string          `json:"designation"`
	PrimaryCentreID *string         `json:"primary_centre_id,omitempty"`
	JoiningDate     *string         `json:"joining_date,omitempty"`
	WorkingDays     map[string]bool `json:"working_days"`
	ScheduleSource  ScheduleSource  `json:"schedule_source"`
}

func ToResponse(e Employee) EmployeeResponse {
	var joining *string
	if e.JoiningDate != nil {
		s := e.JoiningDate.Format("2006-01-02")
		joining = &s
	}
	return EmployeeResponse{
		ID:              e.ID,
		UserID:          e.UserID,
		EmployeeCode:    e.EmployeeCode,
		FullName:        e.FullName,
		Department:      e.Department,
		Designation:     e.Designation,
		PrimaryCentreID: e.PrimaryCentreID,
		JoiningDate:     joining,
		WorkingDays:     e.WorkingDays.Resolved(),
		ScheduleSource:  e.WorkingDays.Source(),
	}
}
