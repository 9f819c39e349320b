package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tanahub/timeclock/internal/domain/attendance"
	"github.com/tanahub/timeclock/internal/pkg/database"
	"github.com/tanahub/timeclock/internal/timeclock"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `id, employee_id, company_id, date, shift_id,
	clock_in, clock_out, break_sessions,
	is_late, late_minutes, work_minutes, break_minutes, overtime_minutes,
	status, correction_reason, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanAttendance decodes one attendance row. Break sessions are stored
// as JSONB and pass through the normalizer so malformed stored data
// degrades to an empty list instead of failing the read.
func scanAttendance(row rowScanner) (attendance.Attendance, error) {
	var att attendance.Attendance
	var rawBreaks []byte

	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.CompanyID, &att.Date, &att.ShiftID,
		&att.ClockIn, &att.ClockOut, &rawBreaks,
		&att.IsLate, &att.LateMinutes, &att.WorkMinutes, &att.BreakMinutes, &att.OvertimeMinutes,
		&att.Status, &att.CorrectionReason, &att.CreatedAt, &att.UpdatedAt,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}

	att.BreakSessions = timeclock.NormalizeBreakSessions(rawBreaks)
	return att, nil
}

func marshalBreaks(sessions []timeclock.BreakSession) ([]byte, error) {
	if sessions == nil {
		sessions = []timeclock.BreakSession{}
	}
	return json.Marshal(sessions)
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	breaks, err := marshalBreaks(newAttendance.BreakSessions)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to encode break sessions: %w", err)
	}

	if newAttendance.ID == "" {
		newAttendance.ID = uuid.NewString()
	}

	query := `
		INSERT INTO attendances (
			id, employee_id, company_id, date, shift_id,
			clock_in, clock_out, break_sessions,
			is_late, late_minutes, work_minutes, break_minutes, overtime_minutes,
			status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		) RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		newAttendance.ID,
		newAttendance.EmployeeID,
		newAttendance.CompanyID,
		newAttendance.Date,
		newAttendance.ShiftID,
		newAttendance.ClockIn,
		newAttendance.ClockOut,
		breaks,
		newAttendance.IsLate,
		newAttendance.LateMinutes,
		newAttendance.WorkMinutes,
		newAttendance.BreakMinutes,
		newAttendance.OvertimeMinutes,
		newAttendance.Status,
	).Scan(&newAttendance.CreatedAt, &newAttendance.UpdatedAt)

	if err != nil {
		// Two concurrent first clock-ins race past the existence check;
		// the loser lands on the employee+date unique constraint.
		if isUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrAlreadyClockedIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return newAttendance, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string, companyID string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT
			a.id, a.employee_id, a.company_id, a.date, a.shift_id,
			a.clock_in, a.clock_out, a.break_sessions,
			a.is_late, a.late_minutes, a.work_minutes, a.break_minutes, a.overtime_minutes,
			a.status, a.correction_reason, a.created_at, a.updated_at,
			e.full_name AS employee_name
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.id = $1 AND a.company_id = $2
	`

	var att attendance.Attendance
	var rawBreaks []byte
	err := q.QueryRow(ctx, query, id, companyID).Scan(
		&att.ID, &att.EmployeeID, &att.CompanyID, &att.Date, &att.ShiftID,
		&att.ClockIn, &att.ClockOut, &rawBreaks,
		&att.IsLate, &att.LateMinutes, &att.WorkMinutes, &att.BreakMinutes, &att.OvertimeMinutes,
		&att.Status, &att.CorrectionReason, &att.CreatedAt, &att.UpdatedAt,
		&att.EmployeeName,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	att.BreakSessions = timeclock.NormalizeBreakSessions(rawBreaks)
	return att, nil
}

// GetByIDForUpdate implements attendance.AttendanceRepository. Row-lock
// variant of GetByID used by the correction workflow so a correction
// cannot overwrite a clock event committed between its read and write.
func (a *attendanceRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE id = $1 AND company_id = $2
		FOR UPDATE
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to lock attendance: %w", err)
	}

	return att, nil
}

// GetForUpdate implements attendance.AttendanceRepository. The FOR
// UPDATE lock serializes concurrent clock events on the same day; it
// only has effect when the caller runs inside WithTransaction.
func (a *attendanceRepository) GetForUpdate(ctx context.Context, employeeID string, date time.Time, companyID string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1
		  AND date = $2
		  AND company_id = $3
		FOR UPDATE
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to lock attendance: %w", err)
	}

	return att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1
		  AND date = $2
		  AND company_id = $3
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // No existing attendance found
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}

	return &att, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, att attendance.Attendance) error {
	q := GetQuerier(ctx, a.db)

	breaks, err := marshalBreaks(att.BreakSessions)
	if err != nil {
		return fmt.Errorf("failed to encode break sessions: %w", err)
	}

	query := `
		UPDATE attendances SET
			date = $1,
			shift_id = $2,
			clock_in = $3,
			clock_out = $4,
			break_sessions = $5,
			is_late = $6,
			late_minutes = $7,
			work_minutes = $8,
			break_minutes = $9,
			overtime_minutes = $10,
			status = $11,
			correction_reason = $12,
			updated_at = NOW()
		WHERE id = $13 AND company_id = $14
	`

	tag, err := q.Exec(ctx, query,
		att.Date,
		att.ShiftID,
		att.ClockIn,
		att.ClockOut,
		breaks,
		att.IsLate,
		att.LateMinutes,
		att.WorkMinutes,
		att.BreakMinutes,
		att.OvertimeMinutes,
		att.Status,
		att.CorrectionReason,
		att.ID,
		att.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// CloseOpenSession implements attendance.AttendanceRepository. The
// status and clock_out guards make the write a no-op when the employee
// clocked out between the staleness scan and this update.
func (a *attendanceRepository) CloseOpenSession(ctx context.Context, att attendance.Attendance) (bool, error) {
	q := GetQuerier(ctx, a.db)

	breaks, err := marshalBreaks(att.BreakSessions)
	if err != nil {
		return false, fmt.Errorf("failed to encode break sessions: %w", err)
	}

	query := `
		UPDATE attendances SET
			clock_out = $1,
			break_sessions = $2,
			work_minutes = $3,
			break_minutes = $4,
			overtime_minutes = $5,
			status = $6,
			updated_at = NOW()
		WHERE id = $7
		  AND company_id = $8
		  AND clock_out IS NULL
		  AND status = $9
	`

	tag, err := q.Exec(ctx, query,
		att.ClockOut,
		breaks,
		att.WorkMinutes,
		att.BreakMinutes,
		att.OvertimeMinutes,
		att.Status,
		att.ID,
		att.CompanyID,
		attendance.StatusOpen,
	)
	if err != nil {
		return false, fmt.Errorf("failed to close open session: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter, companyID string) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	conditions := []string{"a.company_id = $1"}
	args := []interface{}{companyID}
	argPos := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("a.employee_id = $%d", argPos))
		args = append(args, *filter.EmployeeID)
		argPos++
	}
	if filter.Date != nil && *filter.Date != "" {
		conditions = append(conditions, fmt.Sprintf("a.date = $%d", argPos))
		args = append(args, *filter.Date)
		argPos++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", argPos))
		args = append(args, *filter.StartDate)
		argPos++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", argPos))
		args = append(args, *filter.EndDate)
		argPos++
	}
	if filter.Status != nil && *filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendances a WHERE %s", whereClause)
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	sortBy := "a.date"
	if filter.SortBy != "" {
		sortBy = "a." + filter.SortBy
	}
	sortOrder := "DESC"
	if filter.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	offset := (filter.Page - 1) * filter.Limit

	query := fmt.Sprintf(`
		SELECT
			a.id, a.employee_id, a.company_id, a.date, a.shift_id,
			a.clock_in, a.clock_out, a.break_sessions,
			a.is_late, a.late_minutes, a.work_minutes, a.break_minutes, a.overtime_minutes,
			a.status, a.correction_reason, a.created_at, a.updated_at,
			e.full_name AS employee_name
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, sortBy, sortOrder, argPos, argPos+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendances: %w", err)
	}
	defer rows.Close()

	var attendances []attendance.Attendance
	for rows.Next() {
		var att attendance.Attendance
		var rawBreaks []byte
		err := rows.Scan(
			&att.ID, &att.EmployeeID, &att.CompanyID, &att.Date, &att.ShiftID,
			&att.ClockIn, &att.ClockOut, &rawBreaks,
			&att.IsLate, &att.LateMinutes, &att.WorkMinutes, &att.BreakMinutes, &att.OvertimeMinutes,
			&att.Status, &att.CorrectionReason, &att.CreatedAt, &att.UpdatedAt,
			&att.EmployeeName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		att.BreakSessions = timeclock.NormalizeBreakSessions(rawBreaks)
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read attendances: %w", err)
	}

	return attendances, total, nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, filter attendance.MyAttendanceFilter, companyID string) ([]attendance.Attendance, int64, error) {
	companyFilter := attendance.AttendanceFilter{
		EmployeeID: &employeeID,
		Date:       filter.Date,
		StartDate:  filter.StartDate,
		EndDate:    filter.EndDate,
		Status:     filter.Status,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}
	return a.List(ctx, companyFilter, companyID)
}

// GetOpenSessions implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetOpenSessions(ctx context.Context, olderThan time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE clock_out IS NULL
		  AND clock_in IS NOT NULL
		  AND clock_in < $1
		  AND status = $2
		ORDER BY clock_in ASC
	`

	rows, err := q.Query(ctx, query, olderThan, attendance.StatusOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to get open sessions: %w", err)
	}
	defer rows.Close()

	var sessions []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan open session: %w", err)
		}
		sessions = append(sessions, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read open sessions: %w", err)
	}

	return sessions, nil
}
