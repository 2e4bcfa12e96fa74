package models

import (
	"time"
)

// User represents a support-chat participant mirrored from SSO
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SSOID     string    `gorm:"column:sso_id;uniqueIndex;not null" json:"ssoId"` // external SSO identity, also the user's room key
	Username  string    `gorm:"not null" json:"username"`
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	AvatarURL *string   `gorm:"column:avatar_url" json:"avatarUrl"`
	Role      UserRole  `gorm:"type:varchar(16);not null;default:USER" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserRole defines the role of a user
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// AdminSummary is the reduced user projection sent in admin_list.
type AdminSummary struct {
	ID        uint    `json:"id"`
	Username  string  `json:"username"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}
