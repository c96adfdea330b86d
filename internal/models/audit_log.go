package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog is append-only.
type AuditLog struct {
	Base
	AdminID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"admin_id"`
	BotID        *uuid.UUID        `gorm:"type:uuid;index" json:"bot_id,omitempty"`
	ActionType   string            `gorm:"size:64;not null;index" json:"action_type"`
	TargetEntity string            `gorm:"size:64;not null" json:"target_entity"`
	TargetID     string            `gorm:"size:64" json:"target_id"`
	Details      datatypes.JSONMap `json:"details,omitempty"`
}
