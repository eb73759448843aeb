package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleSecretary  UserRole = "SECRETARY"
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleStudent    UserRole = "STUDENT"
)

// IsStaff reports whether the role administers other people's records.
func (r UserRole) IsStaff() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleSecretary:
		return true
	default:
		return false
	}
}

// User represents an application user stored in the users table.
type User struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	FullName    string    `db:"full_name" json:"full_name"`
	Role        UserRole  `db:"role" json:"role"`
	StudyPlanID *string   `db:"study_plan_id" json:"study_plan_id,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
