package shift

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/tanahub/timeclock/internal/domain/employee"
	"github.com/tanahub/timeclock/internal/domain/shift"
)

type ShiftServiceImpl struct {
	shift.ShiftRepository
	employee.EmployeeRepository
}

func NewShiftService(shiftRepo shift.ShiftRepository, employeeRepo employee.EmployeeRepository) shift.ShiftService {
	return &ShiftServiceImpl{
		ShiftRepository:    shiftRepo,
		EmployeeRepository: employeeRepo,
	}
}

func companyFromContext(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", fmt.Errorf("company_id claim is missing or invalid")
	}

	return companyID, nil
}

// normalizeTimeOfDay widens "HH:MM" inputs to the stored "HH:MM:SS"
// form so string comparisons between start and end stay meaningful.
func normalizeTimeOfDay(value string) string {
	if t, err := time.Parse("15:04", value); err == nil {
		return t.Format("15:04:05")
	}
	return value
}

// Create implements shift.ShiftService.
func (s *ShiftServiceImpl) Create(ctx context.Context, req shift.CreateShiftRequest) (shift.ShiftResponse, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}

	created, err := s.ShiftRepository.Create(ctx, shift.Shift{
		CompanyID:          companyID,
		Name:               req.Name,
		StartTime:          normalizeTimeOfDay(req.StartTime),
		EndTime:            normalizeTimeOfDay(req.EndTime),
		GracePeriodMinutes: req.GracePeriodMinutes,
		FullDayHours:       req.FullDayHours,
	})
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	return toResponse(created), nil
}

// Get implements shift.ShiftService.
func (s *ShiftServiceImpl) Get(ctx context.Context, id string) (shift.ShiftResponse, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	found, err := s.ShiftRepository.GetByID(ctx, id, companyID)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	return toResponse(found), nil
}

// List implements shift.ShiftService.
func (s *ShiftServiceImpl) List(ctx context.Context) ([]shift.ShiftResponse, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return nil, err
	}

	shifts, err := s.ShiftRepository.List(ctx, companyID)
	if err != nil {
		return nil, err
	}

	responses := make([]shift.ShiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		responses = append(responses, toResponse(sh))
	}
	return responses, nil
}

// Update implements shift.ShiftService. Updates take effect for future
// clock events only; already-stored attendance days keep the derived
// values computed when they happened.
func (s *ShiftServiceImpl) Update(ctx context.Context, req shift.UpdateShiftRequest) (shift.ShiftResponse, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}

	existing, err := s.ShiftRepository.GetByID(ctx, req.ID, companyID)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.StartTime != nil {
		existing.StartTime = normalizeTimeOfDay(*req.StartTime)
	}
	if req.EndTime != nil {
		existing.EndTime = normalizeTimeOfDay(*req.EndTime)
	}
	if req.GracePeriodMinutes != nil {
		existing.GracePeriodMinutes = *req.GracePeriodMinutes
	}
	if req.FullDayHours != nil {
		existing.FullDayHours = req.FullDayHours
	}

	if err := s.ShiftRepository.Update(ctx, existing); err != nil {
		return shift.ShiftResponse{}, err
	}

	return toResponse(existing), nil
}

// Delete implements shift.ShiftService.
func (s *ShiftServiceImpl) Delete(ctx context.Context, id string) error {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return err
	}

	count, err := s.EmployeeRepository.CountByShiftID(ctx, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to count shift assignments: %w", err)
	}
	if count > 0 {
		return shift.ErrShiftInUse
	}

	return s.ShiftRepository.Delete(ctx, id, companyID)
}

// Assign implements shift.ShiftService.
func (s *ShiftServiceImpl) Assign(ctx context.Context, req shift.AssignShiftRequest) error {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if _, err := s.ShiftRepository.GetByID(ctx, req.ShiftID, companyID); err != nil {
		return err
	}

	return s.EmployeeRepository.AssignShift(ctx, req.EmployeeID, req.ShiftID, companyID)
}

func toResponse(sh shift.Shift) shift.ShiftResponse {
	return shift.ShiftResponse{
		ID:                 sh.ID,
		Name:               sh.Name,
		StartTime:          sh.StartTime,
		EndTime:            sh.EndTime,
		GracePeriodMinutes: sh.GracePeriodMinutes,
		FullDayHours:       sh.FullDayHours,
		IsOvernight:        sh.IsOvernight(),
		CreatedAt:          sh.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          sh.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
