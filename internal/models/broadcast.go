package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Broadcast struct {
	Base
	BotID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"bot_id"`
	CreatedBy      uuid.UUID         `gorm:"type:uuid;not null" json:"created_by"`
	MessageContent string            `gorm:"type:text;not null" json:"message_content"`
	Filters        datatypes.JSONMap `json:"filters,omitempty"`
	Status         BroadcastStatus   `gorm:"size:16;not null;index" json:"status"`
	ScheduledAt    *time.Time        `json:"scheduled_at,omitempty"`
}

// Cancellable reports whether the broadcast can still move to CANCELLED.
func (b *Broadcast) Cancellable() bool {
	switch b.Status {
	case BroadcastDraft, BroadcastScheduled, BroadcastProcessing, BroadcastFailed:
		return true
	}
	return false
}

// BroadcastDelivery is the per-recipient outcome of a broadcast.
type BroadcastDelivery struct {
	Base
	BroadcastID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_delivery_recipient" json:"broadcast_id"`
	TelegramUserID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_delivery_recipient" json:"telegram_user_id"`
	Status         DeliveryStatus `gorm:"size:16;not null" json:"status"`
	Error          string         `gorm:"type:text" json:"error,omitempty"`
}
