package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tanahub/timeclock/internal/domain/attendance"
	"github.com/tanahub/timeclock/internal/domain/employee"
	"github.com/tanahub/timeclock/internal/domain/shift"
	"github.com/tanahub/timeclock/internal/timeclock"
)

const (
	// Sessions younger than this are never considered stale.
	minOpenAge = 12 * time.Hour
	// A session is closed once now is this far past the shift end.
	staleAfterShiftEnd = 2 * time.Hour
	// Shiftless sessions are closed once they are this old.
	maxShiftlessOpenAge = 24 * time.Hour
)

// AttendanceJobs closes attendance days that were opened but never
// clocked out. The clock-out is backfilled to the scheduled shift end so
// a forgotten clock-out does not inflate work minutes forever.
type AttendanceJobs struct {
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	shiftRepo      shift.ShiftRepository
}

func NewAttendanceJobs(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	shiftRepo shift.ShiftRepository,
) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		shiftRepo:      shiftRepo,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_close_stale_attendances", 1*time.Hour, j.AutoCloseStaleAttendances)
}

func (j *AttendanceJobs) AutoCloseStaleAttendances(ctx context.Context) error {
	now := time.Now()

	sessions, err := j.attendanceRepo.GetOpenSessions(ctx, now.Add(-minOpenAge))
	if err != nil {
		return fmt.Errorf("failed to get open sessions: %w", err)
	}

	if len(sessions) == 0 {
		return nil
	}

	closedCount := 0
	for _, session := range sessions {
		closeAt, ok := j.resolveCloseInstant(ctx, session, now)
		if !ok {
			continue
		}

		closeAtUTC := closeAt.UTC()
		session.ClockOut = &closeAtUTC
		session.Status = attendance.StatusAutoClosed

		var window *timeclock.ShiftWindow
		if session.ShiftID != nil {
			if sh, err := j.shiftRepo.GetByID(ctx, *session.ShiftID, session.CompanyID); err == nil {
				window = sh.Window()
			}
		}

		wt := timeclock.ComputeWorkTime(session.ClockIn, session.ClockOut, session.BreakSessions)
		session.WorkMinutes = wt.WorkMinutes
		session.BreakMinutes = wt.BreakMinutes
		session.OvertimeMinutes = timeclock.ComputeOvertime(wt.WorkMinutes, window)

		closed, err := j.attendanceRepo.CloseOpenSession(ctx, session)
		if err != nil {
			slog.Error("Cron: Failed to auto-close attendance",
				"attendance_id", session.ID,
				"employee_id", session.EmployeeID,
				"error", err)
			continue
		}
		if !closed {
			// The employee clocked out after the staleness scan.
			continue
		}

		closedCount++
	}

	if closedCount > 0 {
		slog.Info("Cron: Auto-closed stale attendances", "count", closedCount)
	}
	return nil
}

// resolveCloseInstant decides whether a session is stale yet and, if so,
// what clock-out instant to backfill. With a shift assigned the session
// closes at the scheduled end, anchored on the attendance date in the
// employee's timezone. Without one it closes at the clock-in instant,
// leaving zero work minutes for a manager to correct.
func (j *AttendanceJobs) resolveCloseInstant(ctx context.Context, session attendance.Attendance, now time.Time) (time.Time, bool) {
	if session.ClockIn == nil {
		return time.Time{}, false
	}

	if session.ShiftID != nil {
		sh, err := j.shiftRepo.GetByID(ctx, *session.ShiftID, session.CompanyID)
		if err == nil {
			loc := time.UTC
			if emp, err := j.employeeRepo.GetByID(ctx, session.EmployeeID, session.CompanyID); err == nil {
				loc = emp.Location()
			}
			anchor := time.Date(
				session.Date.Year(), session.Date.Month(), session.Date.Day(),
				0, 0, 0, 0, loc,
			)
			if end, ok := sh.EndInstant(anchor); ok {
				if now.Before(end.Add(staleAfterShiftEnd)) {
					return time.Time{}, false
				}
				if end.Before(*session.ClockIn) {
					// Clocked in after the scheduled end; close at clock-in.
					return *session.ClockIn, true
				}
				return end, true
			}
		}
	}

	if now.Sub(*session.ClockIn) < maxShiftlessOpenAge {
		return time.Time{}, false
	}
	return *session.ClockIn, true
}
