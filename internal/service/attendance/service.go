package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/tanahub/timeclock/internal/domain/attendance"
	"github.com/tanahub/timeclock/internal/domain/employee"
	"github.com/tanahub/timeclock/internal/domain/shift"
	"github.com/tanahub/timeclock/internal/pkg/database"
	"github.com/tanahub/timeclock/internal/pkg/validator"
	"github.com/tanahub/timeclock/internal/repository/postgresql"
	"github.com/tanahub/timeclock/internal/timeclock"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	employee.EmployeeRepository
	shift.ShiftRepository

	// runTx wraps mutating flows in a transaction so GetForUpdate row
	// locks hold until commit.
	runTx func(ctx context.Context, fn func(ctx context.Context) error) error

	// now is injected for tests.
	now func() time.Time
}

func NewAttendanceService(
	db *database.DB,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	shiftRepo shift.ShiftRepository,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		ShiftRepository:      shiftRepo,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return postgresql.WithTransaction(ctx, db, fn)
		},
		now: time.Now,
	}
}

func claimsFromContext(ctx context.Context) (companyID string, employeeID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", fmt.Errorf("company_id claim is missing or invalid")
	}

	employeeID, ok = claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", "", fmt.Errorf("employee_id claim is missing or invalid")
	}

	return companyID, employeeID, nil
}

// anchorDate resolves the attendance date a clock event belongs to: the
// local calendar date the shift nominally starts on. For an overnight
// shift, an event in the early-morning tail (before the shift's end
// time) belongs to the previous day's shift, not to the date the event
// itself lands on.
func anchorDate(nowLocal time.Time, sh *shift.Shift) time.Time {
	day := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, nowLocal.Location())

	if sh != nil && sh.IsOvernight() {
		if nowLocal.Format("15:04:05") < sh.EndTime {
			day = day.AddDate(0, 0, -1)
		}
	}

	return day
}

// lockCurrentDay locks the day a clock event should land on, falling
// back to the previous date so events after midnight still find the day
// opened before it.
func (s *AttendanceServiceImpl) lockCurrentDay(ctx context.Context, employeeID string, anchor time.Time, companyID string) (attendance.Attendance, error) {
	day, err := s.AttendanceRepository.GetForUpdate(ctx, employeeID, anchor, companyID)
	if errors.Is(err, attendance.ErrAttendanceNotFound) {
		day, err = s.AttendanceRepository.GetForUpdate(ctx, employeeID, anchor.AddDate(0, 0, -1), companyID)
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.Attendance{}, attendance.ErrNotClockedIn
		}
	}
	if err != nil {
		return attendance.Attendance{}, err
	}
	return day, nil
}

// resolveShift loads the employee's assigned shift, or nil when no
// shift can be resolved.
func (s *AttendanceServiceImpl) resolveShift(ctx context.Context, shiftID *string, companyID string) *shift.Shift {
	if shiftID == nil {
		return nil
	}
	sh, err := s.ShiftRepository.GetByID(ctx, *shiftID, companyID)
	if err != nil {
		return nil
	}
	return &sh
}

// ClockIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockIn(ctx context.Context) (attendance.AttendanceResponse, error) {
	companyID, employeeID, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	nowUTC := s.now().UTC()

	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if emp.ShiftID == nil {
		return attendance.AttendanceResponse{}, attendance.ErrNoShiftAssigned
	}

	sh, err := s.ShiftRepository.GetByID(ctx, *emp.ShiftID, companyID)
	if err != nil {
		if errors.Is(err, shift.ErrShiftNotFound) {
			return attendance.AttendanceResponse{}, attendance.ErrNoShiftAssigned
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get shift: %w", err)
	}

	nowLocal := nowUTC.In(emp.Location())
	anchor := anchorDate(nowLocal, &sh)

	var created attendance.Attendance
	err = s.runTx(ctx, func(txCtx context.Context) error {
		existing, err := s.AttendanceRepository.GetByEmployeeAndDate(txCtx, employeeID, anchor, companyID)
		if err != nil {
			return err
		}
		if existing != nil {
			return attendance.ErrAlreadyClockedIn
		}

		late := timeclock.ComputeLateStatus(nowUTC, sh.Window(), anchor)

		created, err = s.AttendanceRepository.Create(txCtx, attendance.Attendance{
			EmployeeID:    employeeID,
			CompanyID:     companyID,
			Date:          anchor,
			ShiftID:       emp.ShiftID,
			ClockIn:       &nowUTC,
			BreakSessions: []timeclock.BreakSession{},
			IsLate:        late.IsLate,
			LateMinutes:   late.LateMinutes,
			Status:        attendance.StatusOpen,
		})
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return toResponse(created), nil
}

// ClockOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockOut(ctx context.Context) (attendance.AttendanceResponse, error) {
	companyID, employeeID, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	nowUTC := s.now().UTC()

	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	nowLocal := nowUTC.In(emp.Location())
	anchor := anchorDate(nowLocal, s.resolveShift(ctx, emp.ShiftID, companyID))

	var day attendance.Attendance
	err = s.runTx(ctx, func(txCtx context.Context) error {
		day, err = s.lockCurrentDay(txCtx, employeeID, anchor, companyID)
		if err != nil {
			return err
		}
		if day.ClockOut != nil {
			return attendance.ErrAlreadyClockedOut
		}
		if day.ClockIn == nil {
			return attendance.ErrNotClockedIn
		}

		day.ClockOut = &nowUTC

		window := windowOf(s.resolveShift(txCtx, day.ShiftID, companyID))
		wt := timeclock.ComputeWorkTime(day.ClockIn, day.ClockOut, day.BreakSessions)
		day.WorkMinutes = wt.WorkMinutes
		day.BreakMinutes = wt.BreakMinutes
		day.OvertimeMinutes = timeclock.ComputeOvertime(wt.WorkMinutes, window)
		day.Status = attendance.StatusClosed

		return s.AttendanceRepository.Update(txCtx, day)
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return toResponse(day), nil
}

// StartBreak implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) StartBreak(ctx context.Context) (attendance.AttendanceResponse, error) {
	companyID, employeeID, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	nowUTC := s.now().UTC()

	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	nowLocal := nowUTC.In(emp.Location())
	anchor := anchorDate(nowLocal, s.resolveShift(ctx, emp.ShiftID, companyID))

	var day attendance.Attendance
	err = s.runTx(ctx, func(txCtx context.Context) error {
		day, err = s.lockCurrentDay(txCtx, employeeID, anchor, companyID)
		if err != nil {
			return err
		}
		if day.ClockOut != nil {
			return attendance.ErrAlreadyClockedOut
		}
		if day.ClockIn == nil {
			return attendance.ErrNotClockedIn
		}
		if timeclock.OpenBreakIndex(day.BreakSessions) >= 0 {
			return attendance.ErrBreakAlreadyOpen
		}

		day.BreakSessions = append(day.BreakSessions, timeclock.BreakSession{BreakIn: nowUTC})

		return s.AttendanceRepository.Update(txCtx, day)
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return toResponse(day), nil
}

// EndBreak implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) EndBreak(ctx context.Context) (attendance.AttendanceResponse, error) {
	companyID, employeeID, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	nowUTC := s.now().UTC()

	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	nowLocal := nowUTC.In(emp.Location())
	anchor := anchorDate(nowLocal, s.resolveShift(ctx, emp.ShiftID, companyID))

	var day attendance.Attendance
	err = s.runTx(ctx, func(txCtx context.Context) error {
		day, err = s.lockCurrentDay(txCtx, employeeID, anchor, companyID)
		if err != nil {
			return err
		}
		if day.ClockOut != nil {
			return attendance.ErrAlreadyClockedOut
		}

		idx := timeclock.OpenBreakIndex(day.BreakSessions)
		if idx < 0 {
			return attendance.ErrNoOpenBreak
		}

		session := &day.BreakSessions[idx]
		session.BreakOut = &nowUTC
		if d := nowUTC.Sub(session.BreakIn); d > 0 {
			session.DurationMinutes = int(d / time.Minute)
		}

		breakTotal := 0
		for _, b := range day.BreakSessions {
			if b.BreakOut != nil {
				breakTotal += b.DurationMinutes
			}
		}
		day.BreakMinutes = breakTotal

		return s.AttendanceRepository.Update(txCtx, day)
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return toResponse(day), nil
}

// GetToday implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetToday(ctx context.Context) (attendance.AttendanceResponse, error) {
	companyID, employeeID, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	nowUTC := s.now().UTC()

	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	nowLocal := nowUTC.In(emp.Location())
	anchor := anchorDate(nowLocal, s.resolveShift(ctx, emp.ShiftID, companyID))

	day, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, anchor, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if day == nil {
		// An overnight day opened yesterday may still be running.
		previous, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, anchor.AddDate(0, 0, -1), companyID)
		if err != nil {
			return attendance.AttendanceResponse{}, err
		}
		if previous != nil && previous.ClockOut == nil && previous.ClockIn != nil {
			day = previous
		}
	}

	if day == nil {
		return attendance.AttendanceResponse{
			EmployeeID:    employeeID,
			Date:          anchor.Format("2006-01-02"),
			BreakSessions: []attendance.BreakSessionResponse{},
			State:         string(timeclock.StateNotClockedIn),
		}, nil
	}

	return toResponse(*day), nil
}

// Get implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Get(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	companyID, _, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	day, err := s.AttendanceRepository.GetByID(ctx, id, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return toResponse(day), nil
}

// List implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) List(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	companyID, _, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	filter.Page, filter.Limit = normalizePaging(filter.Page, filter.Limit)

	days, total, err := s.AttendanceRepository.List(ctx, filter, companyID)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	return toListResponse(days, total, filter.Page, filter.Limit), nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.MyAttendanceFilter) (attendance.ListAttendanceResponse, error) {
	companyID, employeeID, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	filter.Page, filter.Limit = normalizePaging(filter.Page, filter.Limit)

	days, total, err := s.AttendanceRepository.ListByEmployee(ctx, employeeID, filter, companyID)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	return toListResponse(days, total, filter.Page, filter.Limit), nil
}

// Correct implements attendance.AttendanceService. Only raw clock data
// can be overridden; every derived field is recomputed from scratch so
// corrections can never leave derived values out of sync with raw ones.
func (s *AttendanceServiceImpl) Correct(ctx context.Context, req attendance.CorrectionRequest) (attendance.AttendanceResponse, error) {
	companyID, _, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var day attendance.Attendance
	err = s.runTx(ctx, func(txCtx context.Context) error {
		// Lock the row so a clock event committing mid-correction cannot
		// be overwritten by the recomputed write below.
		day, err = s.AttendanceRepository.GetByIDForUpdate(txCtx, req.ID, companyID)
		if err != nil {
			return err
		}

		emp, err := s.EmployeeRepository.GetByID(txCtx, day.EmployeeID, companyID)
		if err != nil {
			return fmt.Errorf("failed to get employee: %w", err)
		}
		day.EmployeeName = &emp.FullName
		loc := emp.Location()

		if req.Date != nil && *req.Date != "" {
			parsed, err := time.ParseInLocation("2006-01-02", *req.Date, loc)
			if err != nil {
				return validator.ValidationErrors{{Field: "date", Message: "must be a date in YYYY-MM-DD format"}}
			}
			day.Date = parsed
		}

		anchor := time.Date(day.Date.Year(), day.Date.Month(), day.Date.Day(), 0, 0, 0, 0, loc)

		if day.ClockIn, err = applyInstantOverride(day.ClockIn, req.ClockIn, "clock_in", anchor, loc); err != nil {
			return err
		}
		if day.ClockOut, err = applyInstantOverride(day.ClockOut, req.ClockOut, "clock_out", anchor, loc); err != nil {
			return err
		}

		if req.BreakSessions != nil {
			sessions, err := parseBreakOverrides(req.BreakSessions, anchor, loc)
			if err != nil {
				return err
			}
			day.BreakSessions = sessions
		}

		window := windowOf(s.resolveShift(txCtx, day.ShiftID, companyID))

		clockIn := time.Time{}
		if day.ClockIn != nil {
			clockIn = *day.ClockIn
		}
		late := timeclock.ComputeLateStatus(clockIn, window, anchor)
		day.IsLate = late.IsLate
		day.LateMinutes = late.LateMinutes

		wt := timeclock.ComputeWorkTime(day.ClockIn, day.ClockOut, day.BreakSessions)
		day.WorkMinutes = wt.WorkMinutes
		day.BreakMinutes = wt.BreakMinutes
		day.OvertimeMinutes = timeclock.ComputeOvertime(wt.WorkMinutes, window)

		day.Status = attendance.StatusCorrected
		if day.ClockOut == nil {
			day.Status = attendance.StatusOpen
		}
		day.CorrectionReason = &req.Reason

		return s.AttendanceRepository.Update(txCtx, day)
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return toResponse(day), nil
}

// applyInstantOverride parses a manager-supplied time override. A nil
// pointer leaves the stored value alone, an empty string clears it, a
// bare time of day is combined with the attendance date.
func applyInstantOverride(current *time.Time, override *string, field string, anchor time.Time, loc *time.Location) (*time.Time, error) {
	if override == nil {
		return current, nil
	}
	if *override == "" {
		return nil, nil
	}

	parsed, err := parseInstant(*override, anchor, loc)
	if err != nil {
		return nil, validator.ValidationErrors{{Field: field, Message: "must be a datetime or time of day"}}
	}
	return &parsed, nil
}

func parseInstant(value string, anchor time.Time, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			combined := time.Date(
				anchor.Year(), anchor.Month(), anchor.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, loc,
			)
			return combined.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time value %q", value)
}

func parseBreakOverrides(overrides []attendance.BreakCorrection, anchor time.Time, loc *time.Location) ([]timeclock.BreakSession, error) {
	sessions := make([]timeclock.BreakSession, 0, len(overrides))
	for _, o := range overrides {
		in, err := parseInstant(o.BreakIn, anchor, loc)
		if err != nil {
			return nil, validator.ValidationErrors{{Field: "break_sessions", Message: "break_in must be a datetime or time of day"}}
		}
		session := timeclock.BreakSession{BreakIn: in}
		if o.BreakOut != nil && *o.BreakOut != "" {
			out, err := parseInstant(*o.BreakOut, anchor, loc)
			if err != nil {
				return nil, validator.ValidationErrors{{Field: "break_sessions", Message: "break_out must be a datetime or time of day"}}
			}
			session.BreakOut = &out
			if d := out.Sub(in); d > 0 {
				session.DurationMinutes = int(d / time.Minute)
			}
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func windowOf(sh *shift.Shift) *timeclock.ShiftWindow {
	if sh == nil {
		return nil
	}
	return sh.Window()
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format("2006-01-02 15:04:05")
	return &format
}

func toResponse(day attendance.Attendance) attendance.AttendanceResponse {
	breaks := make([]attendance.BreakSessionResponse, 0, len(day.BreakSessions))
	for _, b := range day.BreakSessions {
		breaks = append(breaks, attendance.BreakSessionResponse{
			BreakIn:         b.BreakIn.UTC().Format("2006-01-02 15:04:05"),
			BreakOut:        timePtrToString(b.BreakOut),
			DurationMinutes: b.DurationMinutes,
		})
	}

	return attendance.AttendanceResponse{
		ID:               day.ID,
		EmployeeID:       day.EmployeeID,
		EmployeeName:     day.EmployeeName,
		Date:             day.Date.Format("2006-01-02"),
		ShiftID:          day.ShiftID,
		ClockIn:          timePtrToString(day.ClockIn),
		ClockOut:         timePtrToString(day.ClockOut),
		BreakSessions:    breaks,
		IsLate:           day.IsLate,
		LateMinutes:      day.LateMinutes,
		WorkMinutes:      day.WorkMinutes,
		WorkHours:        math.Round(float64(day.WorkMinutes)/60*100) / 100,
		BreakMinutes:     day.BreakMinutes,
		OvertimeMinutes:  day.OvertimeMinutes,
		Status:           day.Status,
		State:            string(day.State()),
		CorrectionReason: day.CorrectionReason,
		CreatedAt:        day.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        day.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toListResponse(days []attendance.Attendance, total int64, page, limit int) attendance.ListAttendanceResponse {
	responses := make([]attendance.AttendanceResponse, 0, len(days))
	for _, day := range days {
		responses = append(responses, toResponse(day))
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		Attendances: responses,
	}
}
