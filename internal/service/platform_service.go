package service

import (
	"context"
	"errors"

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

// AuditLogFilter narrows the audit log listing. Zero values match everything.
type AuditLogFilter struct {
	AdminID    uuid.UUID
	BotID      uuid.UUID
	ActionType string
}

func (f AuditLogFilter) toFilter() repository.Filter {
	out := repository.Filter{}
	if f.AdminID != uuid.Nil {
		out["admin_id"] = f.AdminID
	}
	if f.BotID != uuid.Nil {
		out["bot_id"] = f.BotID
	}
	if f.ActionType != "" {
		out["action_type"] = f.ActionType
	}
	return out
}

// PlatformService holds superuser operations.
type PlatformService struct {
	db     *database.DB
	access *Access
	events domain.EventPublisher
	logger zerolog.Logger
}

func NewPlatformService(db *database.DB, access *Access, publisher domain.EventPublisher, logger *zerolog.Logger) *PlatformService {
	return &PlatformService{
		db:     db,
		access: access,
		events: publisher,
		logger: logging.Component(logger, "platform_service"),
	}
}

func (s *PlatformService) ListAuditLogs(ctx context.Context, actor *models.User, filter AuditLogFilter, page repository.Page) ([]models.AuditLog, error) {
	if err := s.access.Platform(actor, permissions.PlatformViewLogs); err != nil {
		return nil, err
	}
	var logs []models.AuditLog
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		var err error
		logs, err = uow.AuditLogs().List(ctx, filter.toFilter(), page)
		return err
	})
	return logs, err
}

func (s *PlatformService) ListWorkspaces(ctx context.Context, actor *models.User, page repository.Page) ([]models.Workspace, error) {
	if err := s.access.Platform(actor, permissions.PlatformViewAllWorkspaces); err != nil {
		return nil, err
	}
	var workspaces []models.Workspace
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		var err error
		workspaces, err = uow.Workspaces().List(ctx, nil, page)
		return err
	})
	return workspaces, err
}

func (s *PlatformService) BlockUser(ctx context.Context, actor *models.User, userID uuid.UUID) error {
	return s.setActive(ctx, actor, userID, false)
}

func (s *PlatformService) UnblockUser(ctx context.Context, actor *models.User, userID uuid.UUID) error {
	return s.setActive(ctx, actor, userID, true)
}

func (s *PlatformService) setActive(ctx context.Context, actor *models.User, userID uuid.UUID, active bool) error {
	if err := s.access.Platform(actor, permissions.PlatformBlockUser); err != nil {
		return err
	}
	if !active && actor.ID == userID {
		return domain.Validation("cannot block yourself")
	}
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		err := uow.Users().Update(ctx, userID, map[string]any{"is_active": active})
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFound("user not found")
		}
		if err != nil {
			return err
		}
		return uow.Commit()
	})
	if err != nil {
		return err
	}

	eventType := events.EventUserUnblocked
	if !active {
		eventType = events.EventUserBlocked
	}
	publish(s.events, &s.logger, eventType, events.AdminActionPayload{
		AdminID:      actor.ID,
		TargetEntity: "user",
		TargetID:     userID.String(),
	})
	return nil
}
