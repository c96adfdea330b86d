package permissions

type PlatformPermission string

const (
	PlatformViewLogs          PlatformPermission = "system:view_logs"
	PlatformManageSettings    PlatformPermission = "system:manage_platform_settings"
	PlatformBlockUser         PlatformPermission = "system:block_user"
	PlatformViewAllWorkspaces PlatformPermission = "system:view_all_workspaces"
)

type WorkspacePermission string

const (
	WorkspaceViewDashboard      WorkspacePermission = "workspace:view_dashboard"
	WorkspaceViewMembers        WorkspacePermission = "workspace:view_members"
	WorkspaceInviteMember       WorkspacePermission = "workspace:invite_member"
	WorkspaceEditMemberRole     WorkspacePermission = "workspace:edit_member_role"
	WorkspaceRemoveMember       WorkspacePermission = "workspace:remove_member"
	WorkspaceViewBilling        WorkspacePermission = "workspace:view_billing"
	WorkspaceManageSubscription WorkspacePermission = "workspace:manage_subscription"
	WorkspaceDownloadInvoices   WorkspacePermission = "workspace:download_invoices"
	WorkspaceCreateBot          WorkspacePermission = "workspace:create_bot"
	WorkspaceDeleteBot          WorkspacePermission = "workspace:delete_bot"
	WorkspaceEditSettings       WorkspacePermission = "workspace:edit_settings"
	WorkspaceDelete             WorkspacePermission = "workspace:delete_workspace"
)

type BotPermission string

const (
	BotViewDashboard    BotPermission = "bot:view_dashboard"
	BotViewAnalytics    BotPermission = "bot:view_analytics"
	BotExportData       BotPermission = "bot:export_data"
	BotViewChats        BotPermission = "bot:view_chats"
	BotSendMessages     BotPermission = "bot:send_messages"
	BotDeleteMessages   BotPermission = "bot:delete_messages"
	BotManageTags       BotPermission = "bot:manage_tags"
	BotViewBroadcasts   BotPermission = "bot:view_broadcasts"
	BotCreateBroadcast  BotPermission = "bot:create_broadcast"
	BotEditBroadcast    BotPermission = "bot:edit_broadcast"
	BotApproveBroadcast BotPermission = "bot:approve_broadcast"
	BotDeleteBroadcast  BotPermission = "bot:delete_broadcast"
	BotViewAudience     BotPermission = "bot:view_audience"
	BotEditAudience     BotPermission = "bot:edit_audience"
	BotViewSettings     BotPermission = "bot:view_settings"
	BotEditSettings     BotPermission = "bot:edit_settings"
	BotManageRoles      BotPermission = "bot:manage_roles"
)

func AllPlatformPermissions() []PlatformPermission {
	return []PlatformPermission{
		PlatformViewLogs,
		PlatformManageSettings,
		PlatformBlockUser,
		PlatformViewAllWorkspaces,
	}
}

func AllWorkspacePermissions() []WorkspacePermission {
	return []WorkspacePermission{
		WorkspaceViewDashboard,
		WorkspaceViewMembers,
		WorkspaceInviteMember,
		WorkspaceEditMemberRole,
		WorkspaceRemoveMember,
		WorkspaceViewBilling,
		WorkspaceManageSubscription,
		WorkspaceDownloadInvoices,
		WorkspaceCreateBot,
		WorkspaceDeleteBot,
		WorkspaceEditSettings,
		WorkspaceDelete,
	}
}

func AllBotPermissions() []BotPermission {
	return []BotPermission{
		BotViewDashboard,
		BotViewAnalytics,
		BotExportData,
		BotViewChats,
		BotSendMessages,
		BotDeleteMessages,
		BotManageTags,
		BotViewBroadcasts,
		BotCreateBroadcast,
		BotEditBroadcast,
		BotApproveBroadcast,
		BotDeleteBroadcast,
		BotViewAudience,
		BotEditAudience,
		BotViewSettings,
		BotEditSettings,
		BotManageRoles,
	}
}
