package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Bot is a registered Telegram bot. The plaintext token is never stored:
// TokenHash routes webhooks, TokenEncrypted is decrypted for outbound calls.
type Bot struct {
	Base
	WorkspaceID    uuid.UUID `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	Username       string    `gorm:"size:64;not null;uniqueIndex:idx_bots_username,where:is_deleted = false" json:"username"`
	TokenHash      string    `gorm:"size:64;not null;uniqueIndex:idx_bots_token_hash,where:is_deleted = false" json:"-"`
	TokenEncrypted string    `gorm:"type:text;not null" json:"-"`
	Status         BotStatus `gorm:"size:16;not null;index" json:"status"`
}

func (b *Bot) IsActive() bool {
	return b.Status == BotStatusActive
}

type AdminBotRole struct {
	Base
	AdminID     uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_admin_bot" json:"admin_id"`
	BotID       uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_admin_bot;index" json:"bot_id"`
	Role        BotRole                     `gorm:"size:16;not null" json:"role"`
	Permissions datatypes.JSONSlice[string] `json:"permissions"`
}
