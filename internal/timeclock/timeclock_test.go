package timeclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jakarta = mustLoadLocation("Asia/Jakarta")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func dayShift(grace int) *ShiftWindow {
	return &ShiftWindow{
		StartTime:          "09:00:00",
		EndTime:            "17:00:00",
		GracePeriodMinutes: grace,
	}
}

func TestComputeLateStatus_OnTimeAndEarly(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, jakarta)

	tests := []struct {
		name    string
		clockIn time.Time
	}{
		{"well before shift start", time.Date(2025, 3, 10, 7, 30, 0, 0, jakarta)},
		{"exactly at shift start", time.Date(2025, 3, 10, 9, 0, 0, 0, jakarta)},
		{"inside grace period", time.Date(2025, 3, 10, 9, 10, 0, 0, jakarta)},
		{"exactly at grace boundary", time.Date(2025, 3, 10, 9, 15, 0, 0, jakarta)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeLateStatus(tt.clockIn, dayShift(15), date)
			assert.False(t, result.IsLate)
			assert.Equal(t, 0, result.LateMinutes)
		})
	}
}

func TestComputeLateStatus_LateIsExact(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, jakarta)

	tests := []struct {
		name        string
		clockIn     time.Time
		wantMinutes int
	}{
		{"one minute past grace", time.Date(2025, 3, 10, 9, 16, 0, 0, jakarta), 1},
		{"forty-five minutes past grace", time.Date(2025, 3, 10, 10, 0, 0, 0, jakarta), 45},
		{"three hours past grace", time.Date(2025, 3, 10, 12, 15, 0, 0, jakarta), 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeLateStatus(tt.clockIn, dayShift(15), date)
			assert.True(t, result.IsLate)
			assert.Equal(t, tt.wantMinutes, result.LateMinutes)
		})
	}
}

func TestComputeLateStatus_SecondsTruncateTowardZero(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, jakarta)

	// One second past the threshold is late, but counts as zero whole minutes.
	clockIn := time.Date(2025, 3, 10, 9, 15, 1, 0, jakarta)
	result := ComputeLateStatus(clockIn, dayShift(15), date)
	assert.True(t, result.IsLate)
	assert.Equal(t, 0, result.LateMinutes)

	// 90 seconds past the threshold is one minute, not two.
	clockIn = time.Date(2025, 3, 10, 9, 16, 30, 0, jakarta)
	result = ComputeLateStatus(clockIn, dayShift(15), date)
	assert.True(t, result.IsLate)
	assert.Equal(t, 1, result.LateMinutes)
}

// Regression: an overnight shift's start must be anchored on the
// attendance date the day is assigned to, never on the clock-in's own
// calendar date. Re-deriving the anchor from the clock-in used to
// fabricate hundreds of late minutes for night-shift employees.
func TestComputeLateStatus_OvernightShiftAnchoring(t *testing.T) {
	t.Parallel()

	night := &ShiftWindow{
		StartTime:          "22:00:00",
		EndTime:            "06:00:00",
		GracePeriodMinutes: 15,
	}
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, jakarta)

	early := time.Date(2025, 3, 10, 21, 30, 0, 0, jakarta)
	result := ComputeLateStatus(early, night, date)
	assert.False(t, result.IsLate)
	assert.Equal(t, 0, result.LateMinutes)

	late := time.Date(2025, 3, 10, 22, 30, 0, 0, jakarta)
	result = ComputeLateStatus(late, night, date)
	assert.True(t, result.IsLate)
	assert.Equal(t, 15, result.LateMinutes)

	// The computed window itself sits on the attendance date.
	require.Equal(t, time.Date(2025, 3, 10, 22, 0, 0, 0, jakarta), result.ShiftStart)
	require.Equal(t, time.Date(2025, 3, 10, 22, 15, 0, 0, jakarta), result.LateThreshold)
}

// A clock-in after local midnight still measures against the shift start
// on the attendance date, one day earlier on the calendar.
func TestComputeLateStatus_OvernightClockInAfterMidnight(t *testing.T) {
	t.Parallel()

	night := &ShiftWindow{
		StartTime:          "22:00:00",
		EndTime:            "06:00:00",
		GracePeriodMinutes: 15,
	}
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, jakarta)

	clockIn := time.Date(2025, 3, 11, 0, 15, 0, 0, jakarta)
	result := ComputeLateStatus(clockIn, night, date)
	assert.True(t, result.IsLate)
	assert.Equal(t, 120, result.LateMinutes)
}

func TestComputeLateStatus_MissingOrMalformedShift(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, jakarta)
	clockIn := time.Date(2025, 3, 10, 14, 0, 0, 0, jakarta)

	tests := []struct {
		name  string
		shift *ShiftWindow
	}{
		{"nil shift", nil},
		{"empty start time", &ShiftWindow{StartTime: ""}},
		{"not a time", &ShiftWindow{StartTime: "not-a-time"}},
		{"out of range", &ShiftWindow{StartTime: "25:99:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeLateStatus(clockIn, tt.shift, date)
			assert.False(t, result.IsLate)
			assert.Equal(t, 0, result.LateMinutes)
		})
	}
}

func TestComputeLateStatus_NegativeGraceTreatedAsZero(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, jakarta)
	clockIn := time.Date(2025, 3, 10, 9, 5, 0, 0, jakarta)

	result := ComputeLateStatus(clockIn, dayShift(-30), date)
	assert.True(t, result.IsLate)
	assert.Equal(t, 5, result.LateMinutes)
}

func TestComputeLateStatus_ZeroClockIn(t *testing.T) {
	t.Parallel()

	result := ComputeLateStatus(time.Time{}, dayShift(0), time.Date(2025, 3, 10, 0, 0, 0, 0, jakarta))
	assert.False(t, result.IsLate)
	assert.Equal(t, 0, result.LateMinutes)
}

func TestComputeLateStatus_ShortTimeFormat(t *testing.T) {
	t.Parallel()

	shift := &ShiftWindow{StartTime: "09:00", GracePeriodMinutes: 0}
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, jakarta)
	clockIn := time.Date(2025, 3, 10, 9, 20, 0, 0, jakarta)

	result := ComputeLateStatus(clockIn, shift, date)
	assert.True(t, result.IsLate)
	assert.Equal(t, 20, result.LateMinutes)
}

func TestComputeLateStatus_Idempotent(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, jakarta)
	clockIn := time.Date(2025, 3, 10, 9, 42, 0, 0, jakarta)
	shift := dayShift(15)

	first := ComputeLateStatus(clockIn, shift, date)
	second := ComputeLateStatus(clockIn, shift, date)
	assert.Equal(t, first, second)
}

func TestComputeWorkTime_NoBreaks(t *testing.T) {
	t.Parallel()

	clockIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clockOut := clockIn.Add(8 * time.Hour)

	result := ComputeWorkTime(&clockIn, &clockOut, nil)
	assert.Equal(t, 480, result.WorkMinutes)
	assert.Equal(t, 0, result.BreakMinutes)
}

func TestComputeWorkTime_CompletedBreak(t *testing.T) {
	t.Parallel()

	clockIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clockOut := clockIn.Add(8 * time.Hour)
	breakIn := clockIn.Add(3 * time.Hour)
	breakOut := breakIn.Add(30 * time.Minute)

	breaks := []BreakSession{{BreakIn: breakIn, BreakOut: &breakOut, DurationMinutes: 30}}

	result := ComputeWorkTime(&clockIn, &clockOut, breaks)
	assert.Equal(t, 450, result.WorkMinutes)
	assert.Equal(t, 30, result.BreakMinutes)
}

func TestComputeWorkTime_OpenBreakContributesNothing(t *testing.T) {
	t.Parallel()

	clockIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clockOut := clockIn.Add(8 * time.Hour)
	breaks := []BreakSession{{BreakIn: clockIn.Add(4 * time.Hour)}}

	result := ComputeWorkTime(&clockIn, &clockOut, breaks)
	assert.Equal(t, 480, result.WorkMinutes)
	assert.Equal(t, 0, result.BreakMinutes)
}

func TestComputeWorkTime_MultipleBreaks(t *testing.T) {
	t.Parallel()

	clockIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clockOut := clockIn.Add(9 * time.Hour)

	firstOut := clockIn.Add(3*time.Hour + 20*time.Minute)
	secondOut := clockIn.Add(6*time.Hour + 45*time.Minute)
	breaks := []BreakSession{
		{BreakIn: clockIn.Add(3 * time.Hour), BreakOut: &firstOut, DurationMinutes: 20},
		{BreakIn: clockIn.Add(6 * time.Hour), BreakOut: &secondOut, DurationMinutes: 45},
	}

	result := ComputeWorkTime(&clockIn, &clockOut, breaks)
	assert.Equal(t, 475, result.WorkMinutes)
	assert.Equal(t, 65, result.BreakMinutes)
}

func TestComputeWorkTime_BreaksExceedElapsedClampsToZero(t *testing.T) {
	t.Parallel()

	clockIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clockOut := clockIn.Add(1 * time.Hour)
	breakOut := clockIn.Add(5 * time.Hour)
	breaks := []BreakSession{{BreakIn: clockIn, BreakOut: &breakOut, DurationMinutes: 300}}

	result := ComputeWorkTime(&clockIn, &clockOut, breaks)
	assert.Equal(t, 0, result.WorkMinutes)
	assert.Equal(t, 300, result.BreakMinutes)
}

func TestComputeWorkTime_OpenDayIsZero(t *testing.T) {
	t.Parallel()

	clockIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, WorkTime{}, ComputeWorkTime(&clockIn, nil, nil))
	assert.Equal(t, WorkTime{}, ComputeWorkTime(nil, &clockIn, nil))
	assert.Equal(t, WorkTime{}, ComputeWorkTime(nil, nil, nil))
}

func TestComputeOvertime(t *testing.T) {
	t.Parallel()

	eight := 8.0
	shift := &ShiftWindow{StartTime: "09:00:00", FullDayHours: &eight}

	tests := []struct {
		name        string
		workMinutes int
		shift       *ShiftWindow
		want        int
	}{
		{"under threshold", 450, shift, 0},
		{"at threshold", 480, shift, 0},
		{"over threshold", 510, shift, 30},
		{"no threshold configured", 600, dayShift(0), 0},
		{"nil shift", 600, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeOvertime(tt.workMinutes, tt.shift))
		})
	}
}
