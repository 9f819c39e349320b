package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tanahub/timeclock/internal/domain/shift"
	"github.com/tanahub/timeclock/internal/pkg/database"
)

type shiftRepository struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) shift.ShiftRepository {
	return &shiftRepository{db: db}
}

const shiftColumns = `id, company_id, name, start_time, end_time,
	grace_period_minutes, full_day_hours, created_at, updated_at`

func scanShift(row rowScanner) (shift.Shift, error) {
	var s shift.Shift
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.Name, &s.StartTime, &s.EndTime,
		&s.GracePeriodMinutes, &s.FullDayHours, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// Create implements shift.ShiftRepository.
func (r *shiftRepository) Create(ctx context.Context, newShift shift.Shift) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	if newShift.ID == "" {
		newShift.ID = uuid.NewString()
	}

	query := `
		INSERT INTO shifts (
			id, company_id, name, start_time, end_time,
			grace_period_minutes, full_day_hours
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		newShift.ID,
		newShift.CompanyID,
		newShift.Name,
		newShift.StartTime,
		newShift.EndTime,
		newShift.GracePeriodMinutes,
		newShift.FullDayHours,
	).Scan(&newShift.CreatedAt, &newShift.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return shift.Shift{}, shift.ErrShiftNameTaken
		}
		return shift.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}

	return newShift, nil
}

// GetByID implements shift.ShiftRepository.
func (r *shiftRepository) GetByID(ctx context.Context, id string, companyID string) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + shiftColumns + `
		FROM shifts
		WHERE id = $1 AND company_id = $2
	`

	s, err := scanShift(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return shift.Shift{}, shift.ErrShiftNotFound
		}
		return shift.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}

	return s, nil
}

// List implements shift.ShiftRepository.
func (r *shiftRepository) List(ctx context.Context, companyID string) ([]shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + shiftColumns + `
		FROM shifts
		WHERE company_id = $1
		ORDER BY name ASC
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []shift.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shifts: %w", err)
	}

	return shifts, nil
}

// Update implements shift.ShiftRepository.
func (r *shiftRepository) Update(ctx context.Context, s shift.Shift) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shifts SET
			name = $1,
			start_time = $2,
			end_time = $3,
			grace_period_minutes = $4,
			full_day_hours = $5,
			updated_at = NOW()
		WHERE id = $6 AND company_id = $7
	`

	tag, err := q.Exec(ctx, query,
		s.Name,
		s.StartTime,
		s.EndTime,
		s.GracePeriodMinutes,
		s.FullDayHours,
		s.ID,
		s.CompanyID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shift.ErrShiftNameTaken
		}
		return fmt.Errorf("failed to update shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}

	return nil
}

// Delete implements shift.ShiftRepository.
func (r *shiftRepository) Delete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM shifts WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
