package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	GetByUserID(ctx context.Context, userID string) (Employee, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
	AssignShift(ctx context.Context, employeeID string, shiftID string, companyID string) error
	CountByShiftID(ctx context.Context, shiftID string, companyID string) (int64, error)
}
