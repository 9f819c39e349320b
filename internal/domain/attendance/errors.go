package attendance

import "errors"

// Attendance domain errors
var (
	// Clock event errors
	ErrAlreadyClockedIn  = errors.New("you have already clocked in today")
	ErrNotClockedIn      = errors.New("you have not clocked in yet")
	ErrAlreadyClockedOut = errors.New("you have already clocked out")
	ErrNoShiftAssigned   = errors.New("no shift assigned for this employee")

	// Break errors
	ErrBreakAlreadyOpen = errors.New("a break is already in progress")
	ErrNoOpenBreak      = errors.New("no break is currently in progress")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
)
