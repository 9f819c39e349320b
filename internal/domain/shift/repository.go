package shift

import "context"

// ShiftRepository defines data access for shift definitions. All methods
// take companyID so one tenant can never read another's shifts.
type ShiftRepository interface {
	Create(ctx context.Context, shift Shift) (Shift, error)
	GetByID(ctx context.Context, id string, companyID string) (Shift, error)
	List(ctx context.Context, companyID string) ([]Shift, error)
	Update(ctx context.Context, shift Shift) error
	Delete(ctx context.Context, id string, companyID string) error
}
