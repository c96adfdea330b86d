package models

import "github.com/google/uuid"

// TelegramUser is an end user of one bot. The same Telegram account talking
// to two bots has two independent rows.
type TelegramUser struct {
	Base
	TgUserID     int64     `gorm:"not null;uniqueIndex:idx_tg_user_bot" json:"tg_user_id"`
	BotID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tg_user_bot;index" json:"bot_id"`
	FirstName    string    `gorm:"size:255" json:"first_name"`
	LastName     string    `gorm:"size:255" json:"last_name,omitempty"`
	Username     string    `gorm:"size:255" json:"username,omitempty"`
	LanguageCode string    `gorm:"size:16" json:"language_code,omitempty"`
}

// TelegramProfile is the mutable part of a TelegramUser taken from an update.
type TelegramProfile struct {
	TgUserID     int64
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
}
