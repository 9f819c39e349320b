package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tanahub/timeclock/internal/domain/employee"
	"github.com/tanahub/timeclock/internal/pkg/database"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeColumns = `id, company_id, user_id, full_name, shift_id,
	timezone, employment_status, created_at, updated_at`

func scanEmployee(row rowScanner) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.UserID, &e.FullName, &e.ShiftID,
		&e.Timezone, &e.EmploymentStatus, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepository) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE id = $1 AND company_id = $2
	`

	e, err := scanEmployee(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return e, nil
}

// GetByUserID implements employee.EmployeeRepository.
func (r *employeeRepository) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE user_id = $1
	`

	e, err := scanEmployee(q.QueryRow(ctx, query, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by user: %w", err)
	}

	return e, nil
}

// GetActiveByCompanyID implements employee.EmployeeRepository.
func (r *employeeRepository) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE company_id = $1 AND employment_status = 'active'
		ORDER BY full_name ASC
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read employees: %w", err)
	}

	return employees, nil
}

// AssignShift implements employee.EmployeeRepository.
func (r *employeeRepository) AssignShift(ctx context.Context, employeeID string, shiftID string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees SET
			shift_id = $1,
			updated_at = NOW()
		WHERE id = $2 AND company_id = $3
	`

	tag, err := q.Exec(ctx, query, shiftID, employeeID, companyID)
	if err != nil {
		return fmt.Errorf("failed to assign shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}

	return nil
}

// CountByShiftID implements employee.EmployeeRepository.
func (r *employeeRepository) CountByShiftID(ctx context.Context, shiftID string, companyID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var count int64
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM employees WHERE shift_id = $1 AND company_id = $2`,
		shiftID, companyID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count employees by shift: %w", err)
	}

	return count, nil
}
