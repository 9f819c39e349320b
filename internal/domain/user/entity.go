package user

import "time"

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can correct attendance and manage shifts
	RoleEmployee Role = "employee" // Regular employee
)

type User struct {
	ID           string
	CompanyID    *string
	Email        string
	PasswordHash *string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// DTO / Join
	EmployeeID *string
}

// IsManager checks if user can manage shifts and correct attendance
func (u *User) IsManager() bool {
	return u.Role == RoleManager || u.Role == RoleOwner
}
