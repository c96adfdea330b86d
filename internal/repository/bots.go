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

type BotRepository struct {
	*Repository[models.Bot]
}

func NewBotRepository(db *gorm.DB) *BotRepository {
	return &BotRepository{Repository: NewRepository[models.Bot](db)}
}

// GetByTokenHash returns nil when no live bot has the hash.
func (r *BotRepository) GetByTokenHash(ctx context.Context, hash string) (*models.Bot, error) {
	return r.GetSingle(ctx, Filter{"token_hash": hash})
}

func (r *BotRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, page Page) ([]models.Bot, error) {
	return r.List(ctx, Filter{"workspace_id": workspaceID}, page)
}

type AdminBotRoleRepository struct {
	*Repository[models.AdminBotRole]
}

func NewAdminBotRoleRepository(db *gorm.DB) *AdminBotRoleRepository {
	return &AdminBotRoleRepository{Repository: NewRepository[models.AdminBotRole](db)}
}

// GetRole returns the explicit role of adminID on botID, or nil.
func (r *AdminBotRoleRepository) GetRole(ctx context.Context, adminID, botID uuid.UUID) (*models.BotRole, error) {
	row, err := r.GetSingle(ctx, Filter{"admin_id": adminID, "bot_id": botID})
	if err != nil || row == nil {
		return nil, err
	}
	return &row.Role, nil
}

// Assign inserts or replaces the (admin, bot) row and revives it if it was deleted.
func (r *AdminBotRoleRepository) Assign(ctx context.Context, row *models.AdminBotRole) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "admin_id"}, {Name: "bot_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"role":        row.Role,
			"permissions": row.Permissions,
			"is_deleted":  false,
			"deleted_at":  nil,
			"updated_at":  time.Now().UTC(),
		}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to assign bot role: %w", err)
	}
	return nil
}
