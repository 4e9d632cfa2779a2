package model

import "time"

// User roles as issued by the assessment platform.
const (
	RoleAdmin         = "admin"
	RoleStaff         = "staff"
	RolePlatformAdmin = "platform_admin"
)

// User is the read-only identity projection of the upstream /users/me read.
type User struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name"`
	Role          string     `json:"role"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
