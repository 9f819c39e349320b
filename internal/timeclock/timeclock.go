// Package timeclock derives attendance facts (lateness, worked minutes,
// break minutes, overtime, day state) from raw clock events and a shift
// window. Every function is pure: no I/O, no clock reads, no stored state,
// so callers may invoke them concurrently and repeat them freely.
//
// The package never returns an error for malformed time data. A broken
// shift definition or timestamp degrades to the conservative zero result
// ("not late", "zero minutes") so that a bad row can never block clock-in
// or clock-out for an employee. Correction workflows re-run the same
// functions once the inputs are fixed.
package timeclock

import (
	"log/slog"
	"time"
)

// ShiftWindow is the slice of a shift definition the engine consumes:
// wall-clock start/end times of day, the grace period, and the optional
// full-day threshold that separates regular work from overtime. The
// times of day are not bound to any calendar date until they are
// combined with an anchor date.
type ShiftWindow struct {
	StartTime          string // "15:04:05" or "15:04"
	EndTime            string
	GracePeriodMinutes int
	FullDayHours       *float64
}

// LateResult is the outcome of a late-arrival computation.
// LateMinutes is strictly positive iff IsLate is true.
type LateResult struct {
	IsLate        bool
	LateMinutes   int
	ShiftStart    time.Time
	LateThreshold time.Time
}

// WorkTime holds the derived minute totals for a closed attendance day.
type WorkTime struct {
	WorkMinutes  int
	BreakMinutes int
}

// ComputeLateStatus decides whether a clock-in was late relative to the
// shift window anchored on attendanceDate.
//
// The shift start instant is built from attendanceDate plus the shift's
// wall-clock start time. It is never rebuilt from the clock-in's own
// calendar date: for an overnight shift the clock-in can land on the
// next local day, and re-deriving the anchor from it moves the whole
// window by 24 hours and fabricates hundreds of phantom late minutes.
//
// A nil shift, an unparseable start time, or a zero clock-in instant
// yields the zero ("not late") result rather than an error.
func ComputeLateStatus(clockIn time.Time, shift *ShiftWindow, attendanceDate time.Time) LateResult {
	if clockIn.IsZero() || shift == nil {
		return LateResult{}
	}

	startOfDay, ok := parseTimeOfDay(shift.StartTime)
	if !ok {
		slog.Debug("timeclock: unparseable shift start time, treating clock-in as on time",
			"start_time", shift.StartTime)
		return LateResult{}
	}

	grace := shift.GracePeriodMinutes
	if grace < 0 {
		grace = 0
	}

	shiftStart := time.Date(
		attendanceDate.Year(), attendanceDate.Month(), attendanceDate.Day(),
		startOfDay.Hour(), startOfDay.Minute(), startOfDay.Second(), 0,
		attendanceDate.Location(),
	)
	threshold := shiftStart.Add(time.Duration(grace) * time.Minute)

	result := LateResult{
		ShiftStart:    shiftStart,
		LateThreshold: threshold,
	}

	// Arrival at the threshold exactly is still on time. Early arrivals
	// never produce negative late minutes.
	if clockIn.After(threshold) {
		result.IsLate = true
		result.LateMinutes = int(clockIn.Sub(threshold) / time.Minute)
	}

	return result
}

// ComputeWorkTime derives worked and break minutes for a day. Both clock
// ends must be present; otherwise the day is still open and the zero
// result is returned. Break sessions without a recorded end contribute
// nothing. Worked time is clamped at zero so mis-recorded break data
// (break longer than the whole day) can never produce negative minutes.
func ComputeWorkTime(clockIn, clockOut *time.Time, breaks []BreakSession) WorkTime {
	if clockIn == nil || clockOut == nil {
		return WorkTime{}
	}

	elapsed := clockOut.Sub(*clockIn)

	var breakTotal time.Duration
	for _, b := range breaks {
		if b.BreakOut == nil {
			continue
		}
		breakTotal += b.BreakOut.Sub(b.BreakIn)
	}

	worked := elapsed - breakTotal
	if worked < 0 {
		worked = 0
	}

	return WorkTime{
		WorkMinutes:  int(worked / time.Minute),
		BreakMinutes: int(breakTotal / time.Minute),
	}
}

// ComputeOvertime returns worked minutes above the shift's full-day
// threshold, or zero when no threshold is configured.
func ComputeOvertime(workMinutes int, shift *ShiftWindow) int {
	if shift == nil || shift.FullDayHours == nil {
		return 0
	}
	overtime := workMinutes - int(*shift.FullDayHours*60)
	if overtime < 0 {
		return 0
	}
	return overtime
}

// parseTimeOfDay parses a wall-clock time of day. Seconds are optional.
func parseTimeOfDay(s string) (time.Time, bool) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
		if err != nil {
			return time.Time{}, false
		}
	}
	return t, true
}
