package regularization

import (
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

const maxPhotoSize = 10 << 20 // 10MB

type CreateRegularizationRequest struct {
	Date       string                `json:"date" validate:"required,datetime=2006-01-02"`
	Reason     string                `json:"reason" validate:"required,max=1000"`
	Type       Type                  `json:"type" validate:"required,oneof=OnDuty MissedPunch WorkFromHome Other"`
	FromTime   *string               `json:"from_time,omitempty" validate:"omitempty,datetime=15:04"`
	ToTime     *string               `json:"to_time,omitempty" validate:"omitempty,datetime=15:04"`
	Latitude   *float64              `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude  *float64              `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	PhotoURL   *string               `json:"-"`
	File       multipart.File        `json:"-"`
	FileHeader *multipart.FileHeader `json:"-"`
}

func (r *CreateRegularizationRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, fieldErrs...)
	}

	if validator.IsEmpty(r.Reason) && len(r.Reason) > 0 {
		errs.Add("reason", "reason is required")
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs.Add("latitude", "latitude and longitude must be provided together")
	}

	if r.FileHeader != nil {
		ext := strings.ToLower(filepath.Ext(r.FileHeader.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			errs.Add("photo", "invalid file type: only jpg, jpeg, png allowed")
		} else if r.FileHeader.Size > maxPhotoSize {
			errs.Add("photo", "photo size must not exceed 10MB")
		}
	}

	return errs.OrNil()
}

// ParsedDate returns the request date at UTC midnight. Call after Validate.
func (r *CreateRegularizationRequest) ParsedDate() time.Time {
	d, _ := validator.IsValidDate(r.Date)
	return d
}

type UpdateStatusRequest struct {
	ID       string  `json:"-"`
	Status   Status  `json:"status" validate:"required,oneof=Approved Rejected"`
	FromTime *string `json:"from_time,omitempty" validate:"omitempty,datetime=15:04"`
	ToTime   *string `json:"to_time,omitempty" validate:"omitempty,datetime=15:04"`
	Remark   *string `json:"remark,omitempty" validate:"omitempty,max=500"`
}

func (r *UpdateStatusRequest) Validate() error {
	return validator.Struct(r)
}

type ListRegularizationRequest struct {
	Status     *Status `json:"status,omitempty"`
	EmployeeID *string `json:"employee_id,omitempty"`
	// All lists every employee's requests; requires view_all.
	All bool `json:"all"`
}

func (r *ListRegularizationRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Status != nil {
		valid := []string{string(StatusPending), string(StatusApproved), string(StatusRejected)}
		if !validator.IsInSlice(string(*r.Status), valid) {
			errs.Add("status", "status must be one of: Pending, Approved, Rejected")
		}
	}
	return errs.OrNil()
}

// RegularizationFilter is the repository-level query.
type RegularizationFilter struct {
	EmployeeID *string
	Status     *Status
}

type RegularizationResponse struct {
	ID           string   `json:"id"`
	EmployeeID   string   `json:"employee_id"`
	EmployeeName *string  `json:"employee_name,omitempty"`
	Date         string   `json:"date"`
	Reason       string   `json:"reason"`
	Type         Type     `json:"type"`
	FromTime     *string  `json:"from_time,omitempty"`
	ToTime       *string  `json:"to_time,omitempty"`
	Status       Status   `json:"status"`
	PhotoURL     *string  `json:"photo_url,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	ReviewedBy   *string  `json:"reviewed_by,omitempty"`
	ReviewedAt   *string  `json:"reviewed_at,omitempty"`
	ReviewRemark *string  `json:"review_remark,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

func ToResponse(r Regularization) RegularizationResponse {
	var reviewedAt *string
	if r.ReviewedAt != nil {
		s := r.ReviewedAt.UTC().Format(time.RFC3339)
		reviewedAt = &s
	}
	return RegularizationResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		Date:         r.Date.Format("2006-01-02"),
		Reason:       r.Reason,
		Type:         r.Type,
		FromTime:     r.FromTime,
		ToTime:       r.ToTime,
		Status:       r.Status,
		PhotoURL:     r.PhotoURL,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		ReviewedBy:   r.ReviewedBy,
		ReviewedAt:   reviewedAt,
		ReviewRemark: r.ReviewRemark,
		CreatedAt:    r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
