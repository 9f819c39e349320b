package shift

import (
	"time"

	"github.com/tanahub/timeclock/internal/timeclock"
)

// Shift is a named recurring work window assigned to employees. Start
// and end are wall-clock times of day; they only become instants once
// combined with an attendance date. An overnight shift has an end time
// numerically earlier than its start.
type Shift struct {
	ID                 string
	CompanyID          string
	Name               string
	StartTime          string // "15:04:05"
	EndTime            string // "15:04:05"
	GracePeriodMinutes int
	FullDayHours       *float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsOvernight reports whether the shift crosses local midnight.
func (s *Shift) IsOvernight() bool {
	return s.EndTime < s.StartTime
}

// Window projects the shift onto the slice the calculation engine needs.
func (s *Shift) Window() *timeclock.ShiftWindow {
	if s == nil {
		return nil
	}
	return &timeclock.ShiftWindow{
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		GracePeriodMinutes: s.GracePeriodMinutes,
		FullDayHours:       s.FullDayHours,
	}
}

// EndInstant builds the absolute shift-end instant for the given
// attendance date, rolling overnight shifts onto the next day.
func (s *Shift) EndInstant(attendanceDate time.Time) (time.Time, bool) {
	t, err := time.Parse("15:04:05", s.EndTime)
	if err != nil {
		return time.Time{}, false
	}
	end := time.Date(
		attendanceDate.Year(), attendanceDate.Month(), attendanceDate.Day(),
		t.Hour(), t.Minute(), t.Second(), 0,
		attendanceDate.Location(),
	)
	if s.IsOvernight() {
		end = end.Add(24 * time.Hour)
	}
	return end, true
}
