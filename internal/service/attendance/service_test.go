package attendance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanahub/timeclock/internal/domain/attendance"
	"github.com/tanahub/timeclock/internal/domain/employee"
	"github.com/tanahub/timeclock/internal/domain/shift"
	"github.com/tanahub/timeclock/internal/timeclock"
)

type fakeAttendanceRepo struct {
	days   map[string]attendance.Attendance
	nextID int

	// beforeLockedRead, when set, runs before GetByIDForUpdate returns,
	// standing in for a competing transaction the row lock waited on.
	beforeLockedRead func()
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{days: make(map[string]attendance.Attendance)}
}

func dayKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

func (f *fakeAttendanceRepo) Create(_ context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	f.nextID++
	att.ID = fmt.Sprintf("att-%d", f.nextID)
	att.CreatedAt = time.Now().UTC()
	att.UpdatedAt = att.CreatedAt
	f.days[dayKey(att.EmployeeID, att.Date)] = att
	return att, nil
}

func (f *fakeAttendanceRepo) GetByID(_ context.Context, id string, companyID string) (attendance.Attendance, error) {
	for _, att := range f.days {
		if att.ID == id && att.CompanyID == companyID {
			return att, nil
		}
	}
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

func (f *fakeAttendanceRepo) GetByIDForUpdate(ctx context.Context, id string, companyID string) (attendance.Attendance, error) {
	if f.beforeLockedRead != nil {
		hook := f.beforeLockedRead
		f.beforeLockedRead = nil
		hook()
	}
	return f.GetByID(ctx, id, companyID)
}

func (f *fakeAttendanceRepo) GetForUpdate(_ context.Context, employeeID string, date time.Time, companyID string) (attendance.Attendance, error) {
	att, ok := f.days[dayKey(employeeID, date)]
	if !ok || att.CompanyID != companyID {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return att, nil
}

func (f *fakeAttendanceRepo) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time, companyID string) (*attendance.Attendance, error) {
	att, ok := f.days[dayKey(employeeID, date)]
	if !ok || att.CompanyID != companyID {
		return nil, nil
	}
	return &att, nil
}

func (f *fakeAttendanceRepo) Update(_ context.Context, updated attendance.Attendance) error {
	for key, att := range f.days {
		if att.ID == updated.ID {
			if dayKey(updated.EmployeeID, updated.Date) != key {
				delete(f.days, key)
			}
			updated.UpdatedAt = time.Now().UTC()
			f.days[dayKey(updated.EmployeeID, updated.Date)] = updated
			return nil
		}
	}
	return attendance.ErrAttendanceNotFound
}

func (f *fakeAttendanceRepo) CloseOpenSession(_ context.Context, updated attendance.Attendance) (bool, error) {
	for key, att := range f.days {
		if att.ID == updated.ID && att.CompanyID == updated.CompanyID {
			if att.ClockOut != nil || att.Status != attendance.StatusOpen {
				return false, nil
			}
			updated.UpdatedAt = time.Now().UTC()
			f.days[key] = updated
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAttendanceRepo) List(_ context.Context, _ attendance.AttendanceFilter, companyID string) ([]attendance.Attendance, int64, error) {
	var out []attendance.Attendance
	for _, att := range f.days {
		if att.CompanyID == companyID {
			out = append(out, att)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAttendanceRepo) ListByEmployee(_ context.Context, employeeID string, _ attendance.MyAttendanceFilter, companyID string) ([]attendance.Attendance, int64, error) {
	var out []attendance.Attendance
	for _, att := range f.days {
		if att.CompanyID == companyID && att.EmployeeID == employeeID {
			out = append(out, att)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAttendanceRepo) GetOpenSessions(_ context.Context, olderThan time.Time) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	for _, att := range f.days {
		if att.ClockOut == nil && att.ClockIn != nil && att.ClockIn.Before(olderThan) {
			out = append(out, att)
		}
	}
	return out, nil
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id string, companyID string) (employee.Employee, error) {
	emp, ok := f.employees[id]
	if !ok || emp.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (f *fakeEmployeeRepo) GetByUserID(_ context.Context, userID string) (employee.Employee, error) {
	for _, emp := range f.employees {
		if emp.UserID != nil && *emp.UserID == userID {
			return emp, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployeeRepo) GetActiveByCompanyID(_ context.Context, companyID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, emp := range f.employees {
		if emp.CompanyID == companyID {
			out = append(out, emp)
		}
	}
	return out, nil
}

func (f *fakeEmployeeRepo) AssignShift(_ context.Context, employeeID string, shiftID string, _ string) error {
	emp, ok := f.employees[employeeID]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	emp.ShiftID = &shiftID
	f.employees[employeeID] = emp
	return nil
}

func (f *fakeEmployeeRepo) CountByShiftID(_ context.Context, shiftID string, _ string) (int64, error) {
	var count int64
	for _, emp := range f.employees {
		if emp.ShiftID != nil && *emp.ShiftID == shiftID {
			count++
		}
	}
	return count, nil
}

type fakeShiftRepo struct {
	shifts map[string]shift.Shift
}

func (f *fakeShiftRepo) Create(_ context.Context, s shift.Shift) (shift.Shift, error) {
	f.shifts[s.ID] = s
	return s, nil
}

func (f *fakeShiftRepo) GetByID(_ context.Context, id string, companyID string) (shift.Shift, error) {
	s, ok := f.shifts[id]
	if !ok || s.CompanyID != companyID {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	return s, nil
}

func (f *fakeShiftRepo) List(_ context.Context, companyID string) ([]shift.Shift, error) {
	var out []shift.Shift
	for _, s := range f.shifts {
		if s.CompanyID == companyID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeShiftRepo) Update(_ context.Context, s shift.Shift) error {
	f.shifts[s.ID] = s
	return nil
}

func (f *fakeShiftRepo) Delete(_ context.Context, id string, _ string) error {
	delete(f.shifts, id)
	return nil
}

type fixture struct {
	svc      *AttendanceServiceImpl
	attRepo  *fakeAttendanceRepo
	now      *time.Time
	ctx      context.Context
	location *time.Location
}

const (
	testCompanyID  = "company-1"
	testEmployeeID = "emp-1"
)

func newFixture(t *testing.T, sh *shift.Shift) *fixture {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	emp := employee.Employee{
		ID:               testEmployeeID,
		CompanyID:        testCompanyID,
		FullName:         "Dewi Lestari",
		Timezone:         "Asia/Jakarta",
		EmploymentStatus: "active",
	}

	shiftRepo := &fakeShiftRepo{shifts: make(map[string]shift.Shift)}
	if sh != nil {
		emp.ShiftID = &sh.ID
		shiftRepo.shifts[sh.ID] = *sh
	}

	attRepo := newFakeAttendanceRepo()
	now := time.Now().UTC()

	svc := &AttendanceServiceImpl{
		AttendanceRepository: attRepo,
		EmployeeRepository:   &fakeEmployeeRepo{employees: map[string]employee.Employee{emp.ID: emp}},
		ShiftRepository:      shiftRepo,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
	}

	f := &fixture{svc: svc, attRepo: attRepo, now: &now, ctx: authedContext(t), location: loc}
	svc.now = func() time.Time { return *f.now }
	return f
}

func authedContext(t *testing.T) context.Context {
	t.Helper()

	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"company_id":  testCompanyID,
		"employee_id": testEmployeeID,
	})
	require.NoError(t, err)

	return jwtauth.NewContext(context.Background(), token, nil)
}

func (f *fixture) setLocalTime(t *testing.T, value string) {
	t.Helper()

	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", value, f.location)
	require.NoError(t, err)
	*f.now = parsed.UTC()
}

func nightShift() *shift.Shift {
	hours := 8.0
	return &shift.Shift{
		ID:                 "shift-night",
		CompanyID:          testCompanyID,
		Name:               "Night",
		StartTime:          "22:00:00",
		EndTime:            "06:00:00",
		GracePeriodMinutes: 15,
		FullDayHours:       &hours,
	}
}

func dayShift() *shift.Shift {
	hours := 8.0
	return &shift.Shift{
		ID:                 "shift-day",
		CompanyID:          testCompanyID,
		Name:               "Morning",
		StartTime:          "09:00:00",
		EndTime:            "17:00:00",
		GracePeriodMinutes: 15,
		FullDayHours:       &hours,
	}
}

func TestClockInOnTime(t *testing.T) {
	f := newFixture(t, dayShift())
	f.setLocalTime(t, "2025-03-10 09:05:00")

	resp, err := f.svc.ClockIn(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-10", resp.Date)
	assert.False(t, resp.IsLate)
	assert.Equal(t, 0, resp.LateMinutes)
	assert.Equal(t, attendance.StatusOpen, resp.Status)
	assert.Equal(t, string(timeclock.StateWorking), resp.State)
}

func TestClockInLateMeasuredFromGraceThreshold(t *testing.T) {
	f := newFixture(t, dayShift())
	f.setLocalTime(t, "2025-03-10 09:25:00")

	resp, err := f.svc.ClockIn(f.ctx)
	require.NoError(t, err)

	assert.True(t, resp.IsLate)
	assert.Equal(t, 10, resp.LateMinutes)
}

func TestClockInAfterMidnightAnchorsOnShiftStartDate(t *testing.T) {
	f := newFixture(t, nightShift())
	// 00:30 local on March 11th, for the shift that started 22:00 on
	// March 10th. The day must anchor on the 10th and the late minutes
	// must count from the grace threshold on the 10th, not from a
	// phantom start on the 11th.
	f.setLocalTime(t, "2025-03-11 00:30:00")

	resp, err := f.svc.ClockIn(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-10", resp.Date)
	assert.True(t, resp.IsLate)
	assert.Equal(t, 135, resp.LateMinutes)
}

func TestClockInTwiceSameDay(t *testing.T) {
	f := newFixture(t, dayShift())
	f.setLocalTime(t, "2025-03-10 09:00:00")

	_, err := f.svc.ClockIn(f.ctx)
	require.NoError(t, err)

	f.setLocalTime(t, "2025-03-10 10:00:00")
	_, err = f.svc.ClockIn(f.ctx)
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn)
}

func TestClockInWithoutShift(t *testing.T) {
	f := newFixture(t, nil)
	f.setLocalTime(t, "2025-03-10 09:00:00")

	_, err := f.svc.ClockIn(f.ctx)
	assert.ErrorIs(t, err, attendance.ErrNoShiftAssigned)
}

func TestClockOutComputesDerivedFields(t *testing.T) {
	f := newFixture(t, dayShift())

	f.setLocalTime(t, "2025-03-10 09:00:00")
	_, err := f.svc.ClockIn(f.ctx)
	require.NoError(t, err)

	f.setLocalTime(t, "2025-03-10 12:00:00")
	_, err = f.svc.StartBreak(f.ctx)
	require.NoError(t, err)

	f.setLocalTime(t, "2025-03-10 12:30:00")
	resp, err := f.svc.EndBreak(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, resp.BreakMinutes)

	f.setLocalTime(t, "2025-03-10 18:00:00")
	resp, err = f.svc.ClockOut(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, 510, resp.WorkMinutes)
	assert.Equal(t, 30, resp.BreakMinutes)
	assert.Equal(t, 30, resp.OvertimeMinutes)
	assert.Equal(t, attendance.StatusClosed, resp.Status)
	assert.Equal(t, string(timeclock.StateClockedOut), resp.State)
}

func TestClockOutAfterMidnightFindsOvernightDay(t *testing.T) {
	f := newFixture(t, nightShift())

	f.setLocalTime(t, "2025-03-10 22:00:00")
	_, err := f.svc.ClockIn(f.ctx)
	require.NoError(t, err)

	f.setLocalTime(t, "2025-03-11 06:00:00")
	resp, err := f.svc.ClockOut(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-10", resp.Date)
	assert.Equal(t, 480, resp.WorkMinutes)
	assert.Equal(t, 0, resp.OvertimeMinutes)
}

func TestClockOutWithoutClockIn(t *testing.T) {
	f := newFixture(t, dayShift())
	f.setLocalTime(t, "2025-03-10 17:00:00")

	_, err := f.svc.ClockOut(f.ctx)
	assert.ErrorIs(t, err, attendance.ErrNotClockedIn)
}

func TestClockOutTwice(t *testing.T) {
	f := newFixture(t, dayShift())

	f.setLocalTime(t, "2025-03-10 09:00:00")
	_, err := f.svc.ClockIn(f.ctx)
	require.NoError(t, err)

	f.setLocalTime(t, "2025-03-10 17:00:00")
	_, err = f.svc.ClockOut(f.ctx)
	require.NoError(t, err)

	_, err = f.svc.ClockOut(f.ctx)
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedOut)
}

func TestStartBreakTwice(t *testing.T) {
	f := newFixture(t, dayShift())

	f.setLocalTime(t, "2025-03-10 09:00:00")
	_, err := f.svc.ClockIn(f.ctx)
	require.NoError(t, err)

	f.setLocalTime(t, "2025-03-10 12:00:00")
	resp, err := f.svc.StartBreak(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, string(timeclock.StateOnBreak), resp.State)

	_, err = f.svc.StartBreak(f.ctx)
	assert.ErrorIs(t, err, attendance.ErrBreakAlreadyOpen)
}

func TestEndBreakWithoutOpenBreak(t *testing.T) {
	f := newFixture(t, dayShift())

	f.setLocalTime(t, "2025-03-10 09:00:00")
	_, err := f.svc.ClockIn(f.ctx)
	require.NoError(t, err)

	_, err = f.svc.EndBreak(f.ctx)
	assert.ErrorIs(t, err, attendance.ErrNoOpenBreak)
}

func TestOpenBreakContributesNothingAtClockOut(t *testing.T) {
	f := newFixture(t, dayShift())

	f.setLocalTime(t, "2025-03-10 09:00:00")
	_, err := f.svc.ClockIn(f.ctx)
	require.NoError(t, err)

	f.setLocalTime(t, "2025-03-10 16:00:00")
	_, err = f.svc.StartBreak(f.ctx)
	require.NoError(t, err)

	f.setLocalTime(t, "2025-03-10 17:00:00")
	resp, err := f.svc.ClockOut(f.ctx)
	require.NoError(t, err)

	// The never-ended break neither subtracts from work nor counts as
	// break time.
	assert.Equal(t, 480, resp.WorkMinutes)
	assert.Equal(t, 0, resp.BreakMinutes)
	assert.Equal(t, string(timeclock.StateClockedOut), resp.State)
}

func TestGetTodayBeforeClockIn(t *testing.T) {
	f := newFixture(t, dayShift())
	f.setLocalTime(t, "2025-03-10 08:00:00")

	resp, err := f.svc.GetToday(f.ctx)
	require.NoError(t, err)

	assert.Empty(t, resp.ID)
	assert.Equal(t, "2025-03-10", resp.Date)
	assert.Equal(t, string(timeclock.StateNotClockedIn), resp.State)
}

func TestGetTodayReturnsRunningOvernightDay(t *testing.T) {
	f := newFixture(t, nightShift())

	f.setLocalTime(t, "2025-03-10 22:00:00")
	_, err := f.svc.ClockIn(f.ctx)
	require.NoError(t, err)

	// 07:00 next morning is past the shift end, so the anchor flips to
	// the 11th; the still-open day from the 10th must be returned.
	f.setLocalTime(t, "2025-03-11 07:00:00")
	resp, err := f.svc.GetToday(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-10", resp.Date)
	assert.Equal(t, string(timeclock.StateWorking), resp.State)
}

func TestCorrectRecomputesDerivedFields(t *testing.T) {
	f := newFixture(t, dayShift())

	f.setLocalTime(t, "2025-03-10 09:40:00")
	created, err := f.svc.ClockIn(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, created.LateMinutes)

	f.setLocalTime(t, "2025-03-10 17:00:00")
	_, err = f.svc.ClockOut(f.ctx)
	require.NoError(t, err)

	// Badge reader was down; the employee actually arrived at 09:10.
	clockIn := "09:10:00"
	resp, err := f.svc.Correct(f.ctx, attendance.CorrectionRequest{
		ID:      created.ID,
		ClockIn: &clockIn,
		Reason:  "badge reader outage",
	})
	require.NoError(t, err)

	assert.False(t, resp.IsLate)
	assert.Equal(t, 0, resp.LateMinutes)
	assert.Equal(t, 470, resp.WorkMinutes)
	assert.Equal(t, attendance.StatusCorrected, resp.Status)
	require.NotNil(t, resp.CorrectionReason)
	assert.Equal(t, "badge reader outage", *resp.CorrectionReason)
}

func TestCorrectKeepsClockOutCommittedMeanwhile(t *testing.T) {
	f := newFixture(t, dayShift())

	f.setLocalTime(t, "2025-03-10 09:00:00")
	created, err := f.svc.ClockIn(f.ctx)
	require.NoError(t, err)

	// The employee clocks out while the correction waits on the row
	// lock; the correction must recompute over the committed clock-out
	// instead of overwriting it with its stale read.
	f.attRepo.beforeLockedRead = func() {
		f.setLocalTime(t, "2025-03-10 17:00:00")
		_, err := f.svc.ClockOut(f.ctx)
		require.NoError(t, err)
	}

	clockIn := "09:10:00"
	resp, err := f.svc.Correct(f.ctx, attendance.CorrectionRequest{
		ID:      created.ID,
		ClockIn: &clockIn,
		Reason:  "badge reader outage",
	})
	require.NoError(t, err)

	require.NotNil(t, resp.ClockOut)
	assert.Equal(t, 470, resp.WorkMinutes)
	assert.Equal(t, attendance.StatusCorrected, resp.Status)
}

func TestCorrectRequiresReason(t *testing.T) {
	f := newFixture(t, dayShift())

	_, err := f.svc.Correct(f.ctx, attendance.CorrectionRequest{ID: "att-1"})
	require.Error(t, err)
}

func TestCorrectReplacesBreakSessions(t *testing.T) {
	f := newFixture(t, dayShift())

	f.setLocalTime(t, "2025-03-10 09:00:00")
	created, err := f.svc.ClockIn(f.ctx)
	require.NoError(t, err)

	f.setLocalTime(t, "2025-03-10 17:00:00")
	_, err = f.svc.ClockOut(f.ctx)
	require.NoError(t, err)

	breakOut := "13:00:00"
	resp, err := f.svc.Correct(f.ctx, attendance.CorrectionRequest{
		ID:     created.ID,
		Reason: "forgot to log lunch",
		BreakSessions: []attendance.BreakCorrection{
			{BreakIn: "12:00:00", BreakOut: &breakOut},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 60, resp.BreakMinutes)
	assert.Equal(t, 420, resp.WorkMinutes)
}
