package repository

import (
	"context"
	"fmt"
	"time"

	"botdesk/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TelegramUserRepository struct {
	*Repository[models.TelegramUser]
}

func NewTelegramUserRepository(db *gorm.DB) *TelegramUserRepository {
	return &TelegramUserRepository{Repository: NewRepository[models.TelegramUser](db)}
}

// Upsert inserts the profile for botID or, on (tg_user_id, bot_id) conflict,
// refreshes the profile fields and clears the soft-delete flags.
// Concurrent upserts are resolved by the unique index.
func (r *TelegramUserRepository) Upsert(ctx context.Context, botID uuid.UUID, p models.TelegramProfile) (*models.TelegramUser, error) {
	now := time.Now().UTC()
	row := &models.TelegramUser{
		TgUserID:     p.TgUserID,
		BotID:        botID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Username:     p.Username,
		LanguageCode: p.LanguageCode,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tg_user_id"}, {Name: "bot_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"first_name":    p.FirstName,
			"last_name":     p.LastName,
			"username":      p.Username,
			"language_code": p.LanguageCode,
			"is_deleted":    false,
			"deleted_at":    nil,
			"updated_at":    now,
		}),
	}).Create(row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert telegram user: %w", err)
	}

	// The id assigned before the insert is discarded on conflict; re-read.
	stored, err := r.GetSingle(ctx, Filter{"tg_user_id": p.TgUserID, "bot_id": botID})
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("failed to upsert telegram user: row %d/%s vanished", p.TgUserID, botID)
	}
	return stored, nil
}

func (r *TelegramUserRepository) ListByBot(ctx context.Context, botID uuid.UUID, page Page) ([]models.TelegramUser, error) {
	return r.List(ctx, Filter{"bot_id": botID}, page)
}
