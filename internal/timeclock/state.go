package timeclock

// DayState is the coarse position of an attendance day in its lifecycle.
type DayState string

const (
	StateNotClockedIn DayState = "not_clocked_in"
	StateWorking      DayState = "working"
	StateOnBreak      DayState = "on_break"
	StateClockedOut   DayState = "clocked_out"
)

// ClassifyDayState maps the presence of clock events onto a day state.
// Clock-out is terminal and takes precedence over a dangling open break,
// so an auto-closed day with a forgotten break still reads as clocked
// out. The transitions themselves are driven by the lifecycle service;
// this is only the read-side classification.
func ClassifyDayState(hasClockIn, hasClockOut, hasOpenBreak bool) DayState {
	switch {
	case !hasClockIn:
		return StateNotClockedIn
	case hasClockOut:
		return StateClockedOut
	case hasOpenBreak:
		return StateOnBreak
	default:
		return StateWorking
	}
}
