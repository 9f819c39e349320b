package response

import (
	"errors"
	"net/http"

	"github.com/tanahub/timeclock/internal/domain/attendance"
	"github.com/tanahub/timeclock/internal/domain/auth"
	"github.com/tanahub/timeclock/internal/domain/employee"
	"github.com/tanahub/timeclock/internal/domain/shift"
	"github.com/tanahub/timeclock/internal/domain/user"
	"github.com/tanahub/timeclock/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrRefreshTokenRevoked):
		Unauthorized(w, "Refresh token revoked")
	case errors.Is(err, auth.ErrOAuthEmailUnknown):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrManagerPrivilegeRequired):
		Forbidden(w, "Manager privilege required")

	// Attendance day lifecycle errors
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrAlreadyClockedOut):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrNotClockedIn):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrBreakAlreadyOpen):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrNoOpenBreak):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrNoShiftAssigned):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")

	// Shift domain errors
	case errors.Is(err, shift.ErrShiftNotFound):
		NotFound(w, "Shift not found")
	case errors.Is(err, shift.ErrShiftNameTaken):
		Conflict(w, err.Error())
	case errors.Is(err, shift.ErrShiftInUse):
		Conflict(w, err.Error())

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
