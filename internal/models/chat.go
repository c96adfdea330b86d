package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MetadataTelegramDate is the Message.Metadata key holding the Telegram
// message date as unix seconds.
const MetadataTelegramDate = "tg_date"

type Chat struct {
	Base
	BotID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_chat_bot_user,where:is_deleted = false" json:"bot_id"`
	TelegramUserID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_chat_bot_user,where:is_deleted = false" json:"telegram_user_id"`
	Status         ChatStatus `gorm:"size:16;not null" json:"status"`
}

// Message is immutable once written.
type Message struct {
	Base
	ChatID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"chat_id"`
	SenderType  SenderType        `gorm:"size:16;not null" json:"sender_type"`
	AuthorID    *uuid.UUID        `gorm:"type:uuid" json:"author_id,omitempty"`
	MessageType MessageType       `gorm:"size:16;not null" json:"message_type"`
	TgMessageID *int64            `json:"tg_message_id,omitempty"`
	Content     string            `gorm:"type:text" json:"content"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
}

// TelegramDate returns the stored Telegram date. JSON columns decode numbers
// as json.Number, so every numeric shape is accepted.
func (m *Message) TelegramDate() (int64, bool) {
	switch v := m.Metadata[MetadataTelegramDate].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}
