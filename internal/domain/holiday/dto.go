package holiday

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type HolidayResponse struct {
	ID   string      `json:"id"`
	Date string      `json:"date"`
	Name string      `json:"name"`
	Type HolidayType `json:"type"`
}

func ToResponse(h Holiday) HolidayResponse {
	return HolidayResponse{
		ID:   h.ID,
		Date: h.Date.Format("2006-01-02"),
		Name: h.Name,
		Type: h.Type,
	}
}

func ToResponses(holidays []Holiday) []HolidayResponse {
	out := make([]HolidayResponse, 0, len(holidays))
	for _, h := range holidays {
		out = append(out, ToResponse(h))
	}
	return out
}

type CreateHolidayRequest struct {
	Date string      `json:"date" validate:"required,datetime=2006-01-02"`
	Name string      `json:"name" validate:"required,max=150"`
	Type HolidayType `json:"type" validate:"required,oneof=Public Office Optional"`
}

func (r *CreateHolidayRequest) Validate() error {
	return validator.Struct(r)
}

// ParsedDate returns the holiday date at UTC midnight. Call after Validate.
func (r *CreateHolidayRequest) ParsedDate() time.Time {
	d, _ := validator.IsValidDate(r.Date)
	return d
}

type ListHolidayRequest struct {
	Year int `json:"year"`
}

func (r *ListHolidayRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidYear(r.Year) {
		errs.Add("year", "year must be between 1970 and 9999")
	}
	return errs.OrNil()
}
