package permissions

import (
	"sort"

	"botdesk/internal/models"
)

// Matrix maps a role to the set of permissions it grants. A Matrix is
// read-only after construction and safe for concurrent use.
type Matrix[R ~string, P ~string] struct {
	grants map[R]map[P]struct{}
}

func NewMatrix[R ~string, P ~string](table map[R][]P) Matrix[R, P] {
	grants := make(map[R]map[P]struct{}, len(table))
	for role, perms := range table {
		set := make(map[P]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		grants[role] = set
	}
	return Matrix[R, P]{grants: grants}
}

// Allows reports whether role grants p. Unknown roles grant nothing.
func (m Matrix[R, P]) Allows(role R, p P) bool {
	_, ok := m.grants[role][p]
	return ok
}

// Permissions returns the sorted permission list of role.
func (m Matrix[R, P]) Permissions(role R) []P {
	out := make([]P, 0, len(m.grants[role]))
	for p := range m.grants[role] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Matrices bundles the workspace and bot tables. The platform tier has no
// roles: every platform permission belongs to superusers only.
type Matrices struct {
	Workspace Matrix[models.WorkspaceRole, WorkspacePermission]
	Bot       Matrix[models.BotRole, BotPermission]
}

// Default builds the production role tables.
func Default() *Matrices {
	return &Matrices{
		Workspace: NewMatrix(map[models.WorkspaceRole][]WorkspacePermission{
			models.WorkspaceRoleOwner: AllWorkspacePermissions(),
			models.WorkspaceRoleMember: {
				WorkspaceViewDashboard,
				WorkspaceViewMembers,
			},
		}),
		Bot: NewMatrix(map[models.BotRole][]BotPermission{
			models.BotRoleAdmin: AllBotPermissions(),
			// Editors run content and marketing but cannot touch critical settings or roles.
			models.BotRoleEditor: {
				BotViewDashboard,
				BotViewAnalytics,
				BotViewChats,
				BotSendMessages,
				BotManageTags,
				BotViewBroadcasts,
				BotCreateBroadcast,
				BotEditBroadcast,
				BotViewAudience,
				BotEditAudience,
				BotViewSettings,
			},
			models.BotRoleSupport: {
				BotViewDashboard,
				BotViewChats,
				BotSendMessages,
				BotManageTags,
				BotViewAudience,
			},
			models.BotRoleViewer: {
				BotViewDashboard,
				BotViewAnalytics,
				BotViewChats,
				BotViewBroadcasts,
				BotViewAudience,
				BotViewSettings,
			},
		}),
	}
}
