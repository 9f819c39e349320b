package timeclock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDayState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		hasClockIn   bool
		hasClockOut  bool
		hasOpenBreak bool
		want         DayState
	}{
		{"no events", false, false, false, StateNotClockedIn},
		{"clocked in", true, false, false, StateWorking},
		{"on break", true, false, true, StateOnBreak},
		{"clocked out", true, true, false, StateClockedOut},
		{"clock-out beats open break", true, true, true, StateClockedOut},
		{"open break without clock-in is still not started", false, false, true, StateNotClockedIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDayState(tt.hasClockIn, tt.hasClockOut, tt.hasOpenBreak))
		})
	}
}
