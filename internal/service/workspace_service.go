package service

import (
	"context"
	"strings"

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

type CreateWorkspaceInput struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type WorkspaceService struct {
	db     *database.DB
	access *Access
	events domain.EventPublisher
	logger zerolog.Logger
}

func NewWorkspaceService(db *database.DB, access *Access, publisher domain.EventPublisher, logger *zerolog.Logger) *WorkspaceService {
	return &WorkspaceService{
		db:     db,
		access: access,
		events: publisher,
		logger: logging.Component(logger, "workspace_service"),
	}
}

// Create makes a workspace owned by actor. The workspace and the owner
// membership are written in one commit. An actor without a primary workspace
// adopts the new one and becomes its platform owner.
func (s *WorkspaceService) Create(ctx context.Context, actor *models.User, in CreateWorkspaceInput) (*models.Workspace, error) {
	if actor == nil {
		return nil, domain.Unauthorized("authentication required")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	workspace := &models.Workspace{Name: in.Name}
	adopt := actor.WorkspaceID == nil

	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		if err := uow.Workspaces().Create(ctx, workspace); err != nil {
			return err
		}
		member := &models.WorkspaceMember{
			UserID:      actor.ID,
			WorkspaceID: workspace.ID,
			Role:        models.WorkspaceRoleOwner,
		}
		if err := uow.Members().Create(ctx, member); err != nil {
			return err
		}
		if adopt {
			if err := uow.Users().Update(ctx, actor.ID, map[string]any{
				"role":         models.UserRoleOwner,
				"workspace_id": workspace.ID,
			}); err != nil {
				return err
			}
		}
		return uow.Commit()
	})
	if err != nil {
		return nil, err
	}

	if adopt {
		actor.Role = models.UserRoleOwner
		actor.WorkspaceID = &workspace.ID
	}

	s.logger.Info().Str("workspace_id", workspace.ID.String()).Str("owner_id", actor.ID.String()).Msg("workspace created")
	publish(s.events, &s.logger, events.EventWorkspaceCreated, events.AdminActionPayload{
		AdminID:      actor.ID,
		TargetEntity: "workspace",
		TargetID:     workspace.ID.String(),
		Details:      map[string]any{"name": workspace.Name},
	})
	return workspace, nil
}

func (s *WorkspaceService) ListBots(ctx context.Context, actor *models.User, workspaceID uuid.UUID, page repository.Page) ([]models.Bot, error) {
	var bots []models.Bot
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		if _, err := s.access.Workspace(ctx, uow, actor, workspaceID, permissions.WorkspaceViewDashboard); err != nil {
			return err
		}
		var err error
		bots, err = uow.Bots().ListByWorkspace(ctx, workspaceID, page)
		return err
	})
	return bots, err
}

func (s *WorkspaceService) ListMembers(ctx context.Context, actor *models.User, workspaceID uuid.UUID, page repository.Page) ([]models.WorkspaceMember, error) {
	var members []models.WorkspaceMember
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		if _, err := s.access.Workspace(ctx, uow, actor, workspaceID, permissions.WorkspaceViewMembers); err != nil {
			return err
		}
		var err error
		members, err = uow.Members().List(ctx, repository.Filter{"workspace_id": workspaceID}, page)
		return err
	})
	return members, err
}
