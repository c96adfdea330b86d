package permissions

import (
	"botdesk/internal/domain"
	"botdesk/internal/models"
)

// Checker evaluates the three authorization tiers against injected matrices.
// It does no I/O: callers load the user, membership and bot role first.
//
// Every denial is either domain.ErrAccessForbidden (no relationship to the
// resource) or domain.ErrPermissionDenied (role present, permission absent).
type Checker struct {
	m *Matrices
}

func NewChecker(m *Matrices) *Checker {
	if m == nil {
		m = Default()
	}
	return &Checker{m: m}
}

func (c *Checker) Matrices() *Matrices {
	return c.m
}

// Platform gates platform-wide administration. Only active, verified
// superusers pass; workspace and bot roles play no part.
func (c *Checker) Platform(user *models.User, p PlatformPermission) error {
	if user == nil {
		return domain.AccessForbidden("authentication required")
	}
	if !user.IsActive {
		return domain.AccessForbidden("user is blocked")
	}
	if !user.IsVerified {
		return domain.AccessForbidden("verified users only")
	}
	if user.IsSuperuser {
		return nil
	}
	return domain.PermissionDenied("platform permission denied: %s", p)
}

// Workspace checks p against the caller's membership. A nil member means the
// caller does not belong to the workspace.
func (c *Checker) Workspace(member *models.WorkspaceMember, p WorkspacePermission) error {
	if member == nil {
		return domain.AccessForbidden("not a member of this workspace")
	}
	if !c.m.Workspace.Allows(member.Role, p) {
		return domain.PermissionDenied("workspace permission denied: %s", p)
	}
	return nil
}

// ResolveBotRole applies the precedence: the platform owner of the bot's
// workspace is always admin, otherwise the explicit role row decides.
func (c *Checker) ResolveBotRole(user *models.User, bot *models.Bot, explicit *models.BotRole) (models.BotRole, error) {
	if user == nil || bot == nil {
		return "", domain.AccessForbidden("no access to this bot")
	}
	if user.OwnsWorkspace(bot.WorkspaceID) {
		return models.BotRoleAdmin, nil
	}
	if explicit == nil {
		return "", domain.AccessForbidden("no access to this bot")
	}
	return *explicit, nil
}

func (c *Checker) Bot(role models.BotRole, p BotPermission) error {
	if !c.m.Bot.Allows(role, p) {
		return domain.PermissionDenied("missing bot permission: %s", p)
	}
	return nil
}

// AuthorizeBot resolves the effective role and checks p in one step.
func (c *Checker) AuthorizeBot(user *models.User, bot *models.Bot, explicit *models.BotRole, p BotPermission) (models.BotRole, error) {
	role, err := c.ResolveBotRole(user, bot, explicit)
	if err != nil {
		return "", err
	}
	if err := c.Bot(role, p); err != nil {
		return "", err
	}
	return role, nil
}
