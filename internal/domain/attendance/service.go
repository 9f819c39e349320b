package attendance

import (
	"context"
)

// AttendanceService defines business logic for the attendance day
// lifecycle: clock-in -> [break-start -> break-end]* -> clock-out, plus
// manager corrections that re-derive every computed field.
type AttendanceService interface {
	// ClockIn opens today's attendance day for the authenticated employee
	ClockIn(ctx context.Context) (AttendanceResponse, error)

	// ClockOut closes the day and writes derived work/overtime fields
	ClockOut(ctx context.Context) (AttendanceResponse, error)

	// StartBreak appends an open break session to today's day
	StartBreak(ctx context.Context) (AttendanceResponse, error)

	// EndBreak closes the open break session
	EndBreak(ctx context.Context) (AttendanceResponse, error)

	// GetToday returns today's day with its classified state
	GetToday(ctx context.Context) (AttendanceResponse, error)

	// Get retrieves a single attendance day by ID
	Get(ctx context.Context, id string) (AttendanceResponse, error)

	// List retrieves company attendance days (manager)
	List(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	// GetMyAttendance retrieves the authenticated employee's days
	GetMyAttendance(ctx context.Context, filter MyAttendanceFilter) (ListAttendanceResponse, error)

	// Correct overrides raw clock data and recomputes derived fields (manager)
	Correct(ctx context.Context, req CorrectionRequest) (AttendanceResponse, error)
}
