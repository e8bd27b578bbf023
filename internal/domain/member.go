package domain

import "time"

type MemberRole string

const (
	RoleMember MemberRole = "member"
	RoleStaff  MemberRole = "staff"
	RoleAdmin  MemberRole = "admin"
)

type Member struct {
	ID           int64      `json:"id"`
	TenantID     int64      `json:"tenant_id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone,omitempty"`
	Role         MemberRole `json:"role"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
