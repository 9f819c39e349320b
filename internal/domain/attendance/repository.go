package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access for attendance days. All
// methods take companyID to keep tenants isolated. Mutating callers are
// expected to run inside WithTransaction and use GetForUpdate so that
// concurrent clock events on the same day are serialized by the row
// lock rather than by the engine, which is pure and has no opinion.
type AttendanceRepository interface {
	// Create inserts a new attendance day at first clock-in
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetByID retrieves an attendance day with company isolation
	GetByID(ctx context.Context, id string, companyID string) (Attendance, error)

	// GetByIDForUpdate retrieves an attendance day by id under a row lock
	GetByIDForUpdate(ctx context.Context, id string, companyID string) (Attendance, error)

	// GetForUpdate retrieves an employee's day under a row lock
	GetForUpdate(ctx context.Context, employeeID string, date time.Time, companyID string) (Attendance, error)

	// GetByEmployeeAndDate retrieves an employee's day, nil when absent
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*Attendance, error)

	// Update writes raw and derived fields back
	Update(ctx context.Context, attendance Attendance) error

	// CloseOpenSession writes an auto-close result only while the day is
	// still open; false means a clock-out committed first and won
	CloseOpenSession(ctx context.Context, attendance Attendance) (bool, error)

	// List retrieves days for a company with filters and pagination
	List(ctx context.Context, filter AttendanceFilter, companyID string) ([]Attendance, int64, error)

	// ListByEmployee retrieves one employee's days
	ListByEmployee(ctx context.Context, employeeID string, filter MyAttendanceFilter, companyID string) ([]Attendance, int64, error)

	// GetOpenSessions returns days clocked in but never out, older than
	// the cutoff; consumed by the auto-close finalizer
	GetOpenSessions(ctx context.Context, olderThan time.Time) ([]Attendance, error)
}
