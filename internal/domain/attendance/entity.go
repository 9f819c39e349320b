package attendance

import (
	"time"

	"github.com/tanahub/timeclock/internal/timeclock"
)

// Day statuses. A day opens at first clock-in and closes at clock-out;
// the finalizer closes abandoned days as auto_closed. Corrected marks
// days whose raw times were overridden by a manager.
const (
	StatusOpen       = "open"
	StatusClosed     = "closed"
	StatusAutoClosed = "auto_closed"
	StatusCorrected  = "corrected"
)

// Attendance is one employee's attendance day. Date is the shift anchor
// date: the local calendar date the shift nominally starts on, which for
// an overnight shift can differ from the clock-out's (or even the
// clock-in's) own calendar date. Clock instants are stored UTC.
type Attendance struct {
	ID            string
	EmployeeID    string
	CompanyID     string
	Date          time.Time
	ShiftID       *string
	ClockIn       *time.Time
	ClockOut      *time.Time
	BreakSessions []timeclock.BreakSession

	// Derived fields, written only from engine output.
	IsLate          bool
	LateMinutes     int
	WorkMinutes     int
	BreakMinutes    int
	OvertimeMinutes int

	Status           string
	CorrectionReason *string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// DTO / join
	EmployeeName *string
}

// State classifies the day from its stored events.
func (a *Attendance) State() timeclock.DayState {
	return timeclock.ClassifyDayState(
		a.ClockIn != nil,
		a.ClockOut != nil,
		timeclock.OpenBreakIndex(a.BreakSessions) >= 0,
	)
}
