package employee

import "time"

type Employee struct {
	ID               string
	CompanyID        string
	UserID           *string
	FullName         string
	ShiftID          *string
	Timezone         string // IANA name, e.g. "Asia/Jakarta"
	EmploymentStatus string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Location resolves the employee's timezone, falling back to UTC when
// the stored name is missing or bogus. Attendance dates are always
// anchored in the employee's local day, so this is the one place the
// fallback decision lives.
func (e *Employee) Location() *time.Location {
	if e.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
