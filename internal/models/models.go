package models

// All lists every persisted entity, in dependency order, for auto-migration.
func All() []any {
	return []any{
		&User{},
		&Workspace{},
		&WorkspaceMember{},
		&Bot{},
		&AdminBotRole{},
		&TelegramUser{},
		&Chat{},
		&Message{},
		&Broadcast{},
		&BroadcastDelivery{},
		&AuditLog{},
	}
}
