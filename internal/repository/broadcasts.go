package repository

import (
	"context"

	"botdesk/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BroadcastRepository struct {
	*Repository[models.Broadcast]
}

func NewBroadcastRepository(db *gorm.DB) *BroadcastRepository {
	return &BroadcastRepository{Repository: NewRepository[models.Broadcast](db)}
}

func (r *BroadcastRepository) ListByBot(ctx context.Context, botID uuid.UUID, page Page) ([]models.Broadcast, error) {
	return r.List(ctx, Filter{"bot_id": botID}, page)
}

type BroadcastDeliveryRepository struct {
	*Repository[models.BroadcastDelivery]
}

func NewBroadcastDeliveryRepository(db *gorm.DB) *BroadcastDeliveryRepository {
	return &BroadcastDeliveryRepository{Repository: NewRepository[models.BroadcastDelivery](db)}
}

// CountByStatus groups the deliveries of a broadcast by status.
func (r *BroadcastDeliveryRepository) CountByStatus(ctx context.Context, broadcastID uuid.UUID) (map[models.DeliveryStatus]int64, error) {
	var rows []struct {
		Status models.DeliveryStatus
		N      int64
	}
	err := r.live(ctx).
		Select("status, COUNT(*) AS n").
		Where("broadcast_id = ?", broadcastID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.DeliveryStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
