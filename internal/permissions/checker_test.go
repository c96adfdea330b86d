package permissions

import (
	"testing"

	"botdesk/internal/domain"
	"botdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformChecker(t *testing.T) {
	c := NewChecker(Default())

	tests := []struct {
		name    string
		user    *models.User
		wantErr error
	}{
		{name: "anonymous", user: nil, wantErr: domain.ErrAccessForbidden},
		{name: "blocked superuser", user: &models.User{IsActive: false, IsVerified: true, IsSuperuser: true}, wantErr: domain.ErrAccessForbidden},
		{name: "unverified superuser", user: &models.User{IsActive: true, IsVerified: false, IsSuperuser: true}, wantErr: domain.ErrAccessForbidden},
		{name: "superuser", user: &models.User{IsActive: true, IsVerified: true, IsSuperuser: true}},
		{name: "workspace owner is not staff", user: &models.User{IsActive: true, IsVerified: true, Role: models.UserRoleOwner}, wantErr: domain.ErrPermissionDenied},
		{name: "plain member", user: &models.User{IsActive: true, IsVerified: true}, wantErr: domain.ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range AllPlatformPermissions() {
				err := c.Platform(tt.user, p)
				if tt.wantErr == nil {
					assert.NoError(t, err, p)
				} else {
					assert.ErrorIs(t, err, tt.wantErr, p)
				}
			}
		})
	}
}

func TestWorkspaceMatrix(t *testing.T) {
	c := NewChecker(Default())

	expected := map[models.WorkspaceRole][]WorkspacePermission{
		models.WorkspaceRoleOwner:  AllWorkspacePermissions(),
		models.WorkspaceRoleMember: {WorkspaceViewDashboard, WorkspaceViewMembers},
	}
	assert.Len(t, AllWorkspacePermissions(), 12)

	for role, granted := range expected {
		member := &models.WorkspaceMember{Role: role}
		for _, p := range AllWorkspacePermissions() {
			err := c.Workspace(member, p)
			if contains(granted, p) {
				assert.NoError(t, err, "%s should have %s", role, p)
			} else {
				assert.ErrorIs(t, err, domain.ErrPermissionDenied, "%s should not have %s", role, p)
				assert.NotErrorIs(t, err, domain.ErrAccessForbidden)
			}
		}
	}

	t.Run("NonMember", func(t *testing.T) {
		err := c.Workspace(nil, WorkspaceViewDashboard)
		assert.ErrorIs(t, err, domain.ErrAccessForbidden)
		assert.NotErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		err := c.Workspace(&models.WorkspaceMember{Role: "guest"}, WorkspaceViewDashboard)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})
}

func TestBotMatrix(t *testing.T) {
	c := NewChecker(Default())

	expected := map[models.BotRole][]BotPermission{
		models.BotRoleAdmin: AllBotPermissions(),
		models.BotRoleEditor: {
			BotViewDashboard, BotViewAnalytics, BotViewChats, BotSendMessages, BotManageTags,
			BotViewBroadcasts, BotCreateBroadcast, BotEditBroadcast, BotViewAudience,
			BotEditAudience, BotViewSettings,
		},
		models.BotRoleSupport: {
			BotViewDashboard, BotViewChats, BotSendMessages, BotManageTags, BotViewAudience,
		},
		models.BotRoleViewer: {
			BotViewDashboard, BotViewAnalytics, BotViewChats, BotViewBroadcasts, BotViewAudience,
			BotViewSettings,
		},
	}
	assert.Len(t, AllBotPermissions(), 17)

	for role, granted := range expected {
		assert.Len(t, c.Matrices().Bot.Permissions(role), len(granted), role)
		for _, p := range AllBotPermissions() {
			err := c.Bot(role, p)
			if contains(granted, p) {
				assert.NoError(t, err, "%s should have %s", role, p)
			} else {
				assert.ErrorIs(t, err, domain.ErrPermissionDenied, "%s should not have %s", role, p)
			}
		}
	}
}

func TestResolveBotRole(t *testing.T) {
	c := NewChecker(nil)
	workspaceID := uuid.New()
	bot := &models.Bot{WorkspaceID: workspaceID}
	viewer := models.BotRoleViewer

	t.Run("OwnerOverride", func(t *testing.T) {
		owner := &models.User{Role: models.UserRoleOwner, WorkspaceID: &workspaceID}
		role, err := c.ResolveBotRole(owner, bot, nil)
		require.NoError(t, err)
		assert.Equal(t, models.BotRoleAdmin, role)

		// The override wins over a weaker explicit row.
		role, err = c.ResolveBotRole(owner, bot, &viewer)
		require.NoError(t, err)
		assert.Equal(t, models.BotRoleAdmin, role)
	})

	t.Run("OwnerOfAnotherWorkspace", func(t *testing.T) {
		other := uuid.New()
		owner := &models.User{Role: models.UserRoleOwner, WorkspaceID: &other}
		_, err := c.ResolveBotRole(owner, bot, nil)
		assert.ErrorIs(t, err, domain.ErrAccessForbidden)
	})

	t.Run("MemberWithSameWorkspaceNeedsRow", func(t *testing.T) {
		member := &models.User{Role: models.UserRoleMember, WorkspaceID: &workspaceID}
		_, err := c.ResolveBotRole(member, bot, nil)
		assert.ErrorIs(t, err, domain.ErrAccessForbidden)
	})

	t.Run("ExplicitRow", func(t *testing.T) {
		member := &models.User{Role: models.UserRoleMember}
		role, err := c.ResolveBotRole(member, bot, &viewer)
		require.NoError(t, err)
		assert.Equal(t, models.BotRoleViewer, role)
	})

	t.Run("AuthorizeDistinguishesKinds", func(t *testing.T) {
		member := &models.User{Role: models.UserRoleMember}

		_, err := c.AuthorizeBot(member, bot, nil, BotViewChats)
		assert.ErrorIs(t, err, domain.ErrAccessForbidden)
		assert.NotErrorIs(t, err, domain.ErrPermissionDenied)

		_, err = c.AuthorizeBot(member, bot, &viewer, BotSendMessages)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
		assert.NotErrorIs(t, err, domain.ErrAccessForbidden)

		role, err := c.AuthorizeBot(member, bot, &viewer, BotViewChats)
		require.NoError(t, err)
		assert.Equal(t, models.BotRoleViewer, role)
	})
}

func TestMatrixIsolation(t *testing.T) {
	table := map[models.BotRole][]BotPermission{models.BotRoleSupport: {BotViewChats}}
	m := NewMatrix(table)
	table[models.BotRoleSupport][0] = BotManageRoles

	assert.True(t, m.Allows(models.BotRoleSupport, BotViewChats))
	assert.False(t, m.Allows(models.BotRoleSupport, BotManageRoles))

	perms := m.Permissions(models.BotRoleSupport)
	perms[0] = BotManageRoles
	assert.True(t, m.Allows(models.BotRoleSupport, BotViewChats))
}

func contains[P comparable](list []P, p P) bool {
	for _, x := range list {
		if x == p {
			return true
		}
	}
	return false
}
