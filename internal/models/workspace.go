package models

import "github.com/google/uuid"

type Workspace struct {
	Base
	Name string `gorm:"size:100;not null" json:"name"`
}

type WorkspaceMember struct {
	Base
	UserID      uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_member_user_workspace" json:"user_id"`
	WorkspaceID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_member_user_workspace;index" json:"workspace_id"`
	Role        WorkspaceRole `gorm:"size:16;not null" json:"role"`
}
