package shift

import "errors"

var (
	ErrShiftNotFound  = errors.New("shift not found")
	ErrShiftNameTaken = errors.New("a shift with this name already exists")
	ErrShiftInUse     = errors.New("shift is still assigned to employees")
)
