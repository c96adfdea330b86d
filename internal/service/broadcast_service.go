package service

import (
	"context"
	"time"

	"botdesk/internal/database"
	"botdesk/internal/domain"
	"botdesk/internal/events"
	"botdesk/internal/logging"
	"botdesk/internal/models"
	"botdesk/internal/permissions"
	"botdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type CreateBroadcastInput struct {
	MessageContent string         `json:"message_content" validate:"required,max=4096"`
	Filters        map[string]any `json:"filters"`
	ScheduledAt    *time.Time     `json:"scheduled_at"`
}

// BroadcastView is a broadcast with its delivery counters.
type BroadcastView struct {
	models.Broadcast
	Deliveries map[models.DeliveryStatus]int64 `json:"deliveries"`
}

type BroadcastService struct {
	db     *database.DB
	access *Access
	events domain.EventPublisher
	now    func() time.Time
	logger zerolog.Logger
}

func NewBroadcastService(db *database.DB, access *Access, publisher domain.EventPublisher, logger *zerolog.Logger) *BroadcastService {
	return &BroadcastService{
		db:     db,
		access: access,
		events: publisher,
		now:    time.Now,
		logger: logging.Component(logger, "broadcast_service"),
	}
}

// Create stores a DRAFT broadcast, or a SCHEDULED one when ScheduledAt is set.
// Delivery is not started here.
func (s *BroadcastService) Create(ctx context.Context, actor *models.User, botID uuid.UUID, in CreateBroadcastInput) (*models.Broadcast, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	status := models.BroadcastDraft
	if in.ScheduledAt != nil {
		if !in.ScheduledAt.After(s.now()) {
			return nil, domain.Validation("scheduled_at: must be in the future")
		}
		status = models.BroadcastScheduled
	}

	var broadcast *models.Broadcast
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		if _, _, err := s.access.Bot(ctx, uow, actor, botID, permissions.BotCreateBroadcast); err != nil {
			return err
		}
		broadcast = &models.Broadcast{
			BotID:          botID,
			CreatedBy:      actor.ID,
			MessageContent: in.MessageContent,
			Filters:        in.Filters,
			Status:         status,
			ScheduledAt:    in.ScheduledAt,
		}
		if err := uow.Broadcasts().Create(ctx, broadcast); err != nil {
			return err
		}
		return uow.Commit()
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, &s.logger, events.EventBroadcastCreated, events.AdminActionPayload{
		AdminID:      actor.ID,
		BotID:        &botID,
		TargetEntity: "broadcast",
		TargetID:     broadcast.ID.String(),
		Details:      map[string]any{"status": string(status)},
	})
	return broadcast, nil
}

func (s *BroadcastService) List(ctx context.Context, actor *models.User, botID uuid.UUID, page repository.Page) ([]BroadcastView, error) {
	var views []BroadcastView
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		if _, _, err := s.access.Bot(ctx, uow, actor, botID, permissions.BotViewBroadcasts); err != nil {
			return err
		}
		broadcasts, err := uow.Broadcasts().ListByBot(ctx, botID, page)
		if err != nil {
			return err
		}
		views = make([]BroadcastView, 0, len(broadcasts))
		for _, b := range broadcasts {
			counts, err := uow.Deliveries().CountByStatus(ctx, b.ID)
			if err != nil {
				return err
			}
			views = append(views, BroadcastView{Broadcast: b, Deliveries: counts})
		}
		return nil
	})
	return views, err
}

// Cancel moves a broadcast to CANCELLED. Sent broadcasts cannot be cancelled
// and cancelling twice is a conflict.
func (s *BroadcastService) Cancel(ctx context.Context, actor *models.User, botID, broadcastID uuid.UUID) (*models.Broadcast, error) {
	var broadcast *models.Broadcast
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		if _, _, err := s.access.Bot(ctx, uow, actor, botID, permissions.BotDeleteBroadcast); err != nil {
			return err
		}
		var err error
		if broadcast, err = uow.Broadcasts().GetByID(ctx, broadcastID); err != nil {
			return err
		}
		if broadcast == nil || broadcast.BotID != botID {
			return domain.NotFound("broadcast not found")
		}
		switch {
		case broadcast.Status == models.BroadcastCancelled:
			return domain.Conflict("broadcast is already cancelled")
		case !broadcast.Cancellable():
			return domain.Validation("broadcast in status %s cannot be cancelled", broadcast.Status)
		}
		if err := uow.Broadcasts().Update(ctx, broadcastID, map[string]any{"status": models.BroadcastCancelled}); err != nil {
			return err
		}
		broadcast.Status = models.BroadcastCancelled
		return uow.Commit()
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, &s.logger, events.EventBroadcastCancelled, events.AdminActionPayload{
		AdminID:      actor.ID,
		BotID:        &botID,
		TargetEntity: "broadcast",
		TargetID:     broadcastID.String(),
	})
	return broadcast, nil
}
