package service

import (
	"context"

	"botdesk/internal/database"
	"botdesk/internal/domain"
	"botdesk/internal/models"
	"botdesk/internal/permissions"

	"github.com/google/uuid"
)

// Access loads the facts each authorization tier needs and hands them to the
// permission checker. It runs inside the caller's unit of work so the check
// and the guarded operation see the same snapshot.
type Access struct {
	checker *permissions.Checker
}

func NewAccess(checker *permissions.Checker) *Access {
	if checker == nil {
		checker = permissions.NewChecker(nil)
	}
	return &Access{checker: checker}
}

func (a *Access) Platform(actor *models.User, p permissions.PlatformPermission) error {
	return a.checker.Platform(actor, p)
}

// Workspace requires actor to be a member of workspaceID holding p.
func (a *Access) Workspace(ctx context.Context, uow *database.UnitOfWork, actor *models.User, workspaceID uuid.UUID, p permissions.WorkspacePermission) (*models.WorkspaceMember, error) {
	if actor == nil {
		return nil, domain.Unauthorized("authentication required")
	}
	if workspaceID == uuid.Nil {
		return nil, domain.AccessForbidden("workspace context is required")
	}
	member, err := uow.Members().GetMembership(ctx, actor.ID, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := a.checker.Workspace(member, p); err != nil {
		return nil, err
	}
	return member, nil
}

// Bot loads the bot, resolves actor's effective role on it and checks p.
func (a *Access) Bot(ctx context.Context, uow *database.UnitOfWork, actor *models.User, botID uuid.UUID, p permissions.BotPermission) (*models.Bot, models.BotRole, error) {
	if actor == nil {
		return nil, "", domain.Unauthorized("authentication required")
	}
	bot, err := uow.Bots().GetByID(ctx, botID)
	if err != nil {
		return nil, "", err
	}
	if bot == nil {
		return nil, "", domain.NotFound("bot not found")
	}

	var explicit *models.BotRole
	if !actor.OwnsWorkspace(bot.WorkspaceID) {
		explicit, err = uow.BotRoles().GetRole(ctx, actor.ID, botID)
		if err != nil {
			return nil, "", err
		}
	}

	role, err := a.checker.AuthorizeBot(actor, bot, explicit, p)
	if err != nil {
		return nil, "", err
	}
	return bot, role, nil
}
