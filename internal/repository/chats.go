package repository

import (
	"context"
	"fmt"

	"botdesk/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepository struct {
	*Repository[models.Chat]
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{Repository: NewRepository[models.Chat](db)}
}

// GetByTelegramUser finds the chat between botID and the internal TelegramUser id.
func (r *ChatRepository) GetByTelegramUser(ctx context.Context, botID, telegramUserID uuid.UUID) (*models.Chat, error) {
	return r.GetSingle(ctx, Filter{"bot_id": botID, "telegram_user_id": telegramUserID})
}

// GetOrCreate returns the live chat between botID and telegramUserID,
// opening one when none exists. A concurrent insert for the same pair loses
// on the unique index and reads the winner's row.
func (r *ChatRepository) GetOrCreate(ctx context.Context, botID, telegramUserID uuid.UUID) (*models.Chat, error) {
	chat, err := r.GetByTelegramUser(ctx, botID, telegramUserID)
	if err != nil || chat != nil {
		return chat, err
	}

	row := &models.Chat{BotID: botID, TelegramUserID: telegramUserID, Status: models.ChatStatusOpen}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "bot_id"}, {Name: "telegram_user_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "is_deleted = false"}}},
		DoNothing:   true,
	}).Create(row)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to create chat: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return row, nil
	}

	chat, err = r.GetByTelegramUser(ctx, botID, telegramUserID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, fmt.Errorf("failed to create chat: row %s/%s vanished", botID, telegramUserID)
	}
	return chat, nil
}

func (r *ChatRepository) ListByBot(ctx context.Context, botID uuid.UUID, page Page) ([]models.Chat, error) {
	return r.List(ctx, Filter{"bot_id": botID}, page)
}

type MessageRepository struct {
	*Repository[models.Message]
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{Repository: NewRepository[models.Message](db)}
}

// ListByChat returns messages oldest first.
func (r *MessageRepository) ListByChat(ctx context.Context, chatID uuid.UUID, page Page) ([]models.Message, error) {
	page = page.normalize()
	var out []models.Message
	err := r.live(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").Order("id ASC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return out, nil
}
