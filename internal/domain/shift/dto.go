package shift

import (
	"github.com/tanahub/timeclock/internal/pkg/validator"
)

type CreateShiftRequest struct {
	Name               string   `json:"name"`
	StartTime          string   `json:"start_time"`
	EndTime            string   `json:"end_time"`
	GracePeriodMinutes int      `json:"grace_period_minutes"`
	FullDayHours       *float64 `json:"full_day_hours"`
}

func (r *CreateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	}
	if !validator.IsValidTimeOfDay(r.StartTime) {
		errs = append(errs, validator.ValidationError{Field: "start_time", Message: "must be a time of day in HH:MM:SS format"})
	}
	if !validator.IsValidTimeOfDay(r.EndTime) {
		errs = append(errs, validator.ValidationError{Field: "end_time", Message: "must be a time of day in HH:MM:SS format"})
	}
	if r.GracePeriodMinutes < 0 {
		errs = append(errs, validator.ValidationError{Field: "grace_period_minutes", Message: "must not be negative"})
	}
	if r.FullDayHours != nil && (*r.FullDayHours <= 0 || *r.FullDayHours > 24) {
		errs = append(errs, validator.ValidationError{Field: "full_day_hours", Message: "must be between 0 and 24"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateShiftRequest struct {
	ID                 string   `json:"-"`
	Name               *string  `json:"name"`
	StartTime          *string  `json:"start_time"`
	EndTime            *string  `json:"end_time"`
	GracePeriodMinutes *int     `json:"grace_period_minutes"`
	FullDayHours       *float64 `json:"full_day_hours"`
}

func (r *UpdateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name must not be empty"})
	}
	if r.StartTime != nil && !validator.IsValidTimeOfDay(*r.StartTime) {
		errs = append(errs, validator.ValidationError{Field: "start_time", Message: "must be a time of day in HH:MM:SS format"})
	}
	if r.EndTime != nil && !validator.IsValidTimeOfDay(*r.EndTime) {
		errs = append(errs, validator.ValidationError{Field: "end_time", Message: "must be a time of day in HH:MM:SS format"})
	}
	if r.GracePeriodMinutes != nil && *r.GracePeriodMinutes < 0 {
		errs = append(errs, validator.ValidationError{Field: "grace_period_minutes", Message: "must not be negative"})
	}
	if r.FullDayHours != nil && (*r.FullDayHours <= 0 || *r.FullDayHours > 24) {
		errs = append(errs, validator.ValidationError{Field: "full_day_hours", Message: "must be between 0 and 24"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AssignShiftRequest struct {
	EmployeeID string `json:"employee_id"`
	ShiftID    string `json:"shift_id"`
}

func (r *AssignShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if validator.IsEmpty(r.ShiftID) {
		errs = append(errs, validator.ValidationError{Field: "shift_id", Message: "shift_id is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ShiftResponse struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	StartTime          string   `json:"start_time"`
	EndTime            string   `json:"end_time"`
	GracePeriodMinutes int      `json:"grace_period_minutes"`
	FullDayHours       *float64 `json:"full_day_hours,omitempty"`
	IsOvernight        bool     `json:"is_overnight"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}
