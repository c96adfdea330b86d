package models

import "github.com/google/uuid"

// User is a platform account (an admin of workspaces and bots).
type User struct {
	Base
	FirstName   string     `gorm:"size:100;not null" json:"first_name"`
	LastName    string     `gorm:"size:100" json:"last_name"`
	Email       string     `gorm:"size:255;not null;uniqueIndex:idx_users_email,where:is_deleted = false" json:"email"`
	Username    string     `gorm:"size:100;not null;uniqueIndex:idx_users_username,where:is_deleted = false" json:"username"`
	PhoneNumber string     `gorm:"size:32" json:"phone_number,omitempty"`
	Password    string     `gorm:"size:255;not null" json:"-"`
	Role        UserRole   `gorm:"size:16;not null" json:"role"`
	WorkspaceID *uuid.UUID `gorm:"type:uuid;index" json:"workspace_id,omitempty"`
	IsSuperuser bool       `gorm:"not null" json:"is_superuser"`
	IsVerified  bool       `gorm:"not null" json:"is_verified"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
}

// OwnsWorkspace reports whether u is the platform owner of workspaceID.
func (u *User) OwnsWorkspace(workspaceID uuid.UUID) bool {
	return u.Role == UserRoleOwner && u.WorkspaceID != nil && *u.WorkspaceID == workspaceID
}
