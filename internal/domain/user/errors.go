package user

import "errors"

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrManagerPrivilegeRequired = errors.New("manager privilege required")
)
