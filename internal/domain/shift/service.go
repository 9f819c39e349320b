package shift

import "context"

// ShiftService defines business logic for shift definition management.
type ShiftService interface {
	// Create registers a new shift definition for the caller's company
	Create(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error)

	// Get retrieves a single shift by ID
	Get(ctx context.Context, id string) (ShiftResponse, error)

	// List retrieves all shifts for the caller's company
	List(ctx context.Context) ([]ShiftResponse, error)

	// Update edits a shift definition
	Update(ctx context.Context, req UpdateShiftRequest) (ShiftResponse, error)

	// Delete removes a shift definition that is no longer assigned
	Delete(ctx context.Context, id string) error

	// Assign sets an employee's active shift
	Assign(ctx context.Context, req AssignShiftRequest) error
}
