package attendance

import (
	"github.com/tanahub/timeclock/internal/pkg/validator"
)

var statusValues = []string{StatusOpen, StatusClosed, StatusAutoClosed, StatusCorrected}

var sortableColumns = []string{"date", "clock_in", "clock_out", "late_minutes", "work_minutes", "created_at"}

// CorrectionRequest carries a manager's override of raw clock data.
// Only raw inputs are accepted; every derived field (late, work, break,
// overtime minutes) is recomputed by the engine, never taken from the
// client.
type CorrectionRequest struct {
	ID       string  `json:"-"`
	Date     *string `json:"date"`      // "2006-01-02"
	ClockIn  *string `json:"clock_in"`  // "2006-01-02 15:04:05" or "15:04:05"
	ClockOut *string `json:"clock_out"` // same formats
	Reason   string  `json:"reason"`

	// Break overrides replace the whole session list when present.
	BreakSessions []BreakCorrection `json:"break_sessions"`
}

type BreakCorrection struct {
	BreakIn  string  `json:"break_in"`  // "2006-01-02 15:04:05"
	BreakOut *string `json:"break_out"` // nil keeps the break open
}

func (r *CorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "id is required"})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "a correction reason is required"})
	}
	if r.Date != nil && *r.Date != "" {
		if _, ok := validator.IsValidDate(*r.Date); !ok {
			errs = append(errs, validator.ValidationError{Field: "date", Message: "must be a date in YYYY-MM-DD format"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// AttendanceFilter filters the company-wide listing (manager view).
type AttendanceFilter struct {
	EmployeeID *string
	Date       *string
	StartDate  *string
	EndDate    *string
	Status     *string
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validateDateFilters(f.Date, f.StartDate, f.EndDate)...)

	if f.Status != nil && !validator.IsInSlice(*f.Status, statusValues) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "unknown status"})
	}
	if f.SortBy != "" && !validator.IsInSlice(f.SortBy, sortableColumns) {
		errs = append(errs, validator.ValidationError{Field: "sort_by", Message: "not a sortable column"})
	}
	if f.SortOrder != "" && f.SortOrder != "asc" && f.SortOrder != "desc" {
		errs = append(errs, validator.ValidationError{Field: "sort_order", Message: "must be asc or desc"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// MyAttendanceFilter filters the authenticated employee's own records.
type MyAttendanceFilter struct {
	Date      *string
	StartDate *string
	EndDate   *string
	Status    *string
	Page      int
	Limit     int
}

func (f *MyAttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validateDateFilters(f.Date, f.StartDate, f.EndDate)...)

	if f.Status != nil && !validator.IsInSlice(*f.Status, statusValues) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "unknown status"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateDateFilters(date, startDate, endDate *string) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if date != nil && *date != "" {
		if _, ok := validator.IsValidDate(*date); !ok {
			errs = append(errs, validator.ValidationError{Field: "date", Message: "must be a date in YYYY-MM-DD format"})
		}
	}
	if startDate != nil && *startDate != "" {
		if _, ok := validator.IsValidDate(*startDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "start_date", Message: "must be a date in YYYY-MM-DD format"})
		}
	}
	if endDate != nil && *endDate != "" {
		if _, ok := validator.IsValidDate(*endDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must be a date in YYYY-MM-DD format"})
		}
	}

	return errs
}

type BreakSessionResponse struct {
	BreakIn         string  `json:"break_in"`
	BreakOut        *string `json:"break_out"`
	DurationMinutes int     `json:"duration_minutes"`
}

type AttendanceResponse struct {
	ID               string                 `json:"id"`
	EmployeeID       string                 `json:"employee_id"`
	EmployeeName     *string                `json:"employee_name,omitempty"`
	Date             string                 `json:"date"`
	ShiftID          *string                `json:"shift_id,omitempty"`
	ClockIn          *string                `json:"clock_in"`
	ClockOut         *string                `json:"clock_out"`
	BreakSessions    []BreakSessionResponse `json:"break_sessions"`
	IsLate           bool                   `json:"is_late"`
	LateMinutes      int                    `json:"late_minutes"`
	WorkMinutes      int                    `json:"work_minutes"`
	WorkHours        float64                `json:"work_hours"`
	BreakMinutes     int                    `json:"break_minutes"`
	OvertimeMinutes  int                    `json:"overtime_minutes"`
	Status           string                 `json:"status"`
	State            string                 `json:"state"`
	CorrectionReason *string                `json:"correction_reason,omitempty"`
	CreatedAt        string                 `json:"created_at,omitempty"`
	UpdatedAt        string                 `json:"updated_at,omitempty"`
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Attendances []AttendanceResponse `json:"attendances"`
}
