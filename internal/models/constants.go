package models

// UserRole is the platform-level role stored on User.
type UserRole string

const (
	UserRoleOwner  UserRole = "owner"
	UserRoleMember UserRole = "member"
)

type WorkspaceRole string

const (
	WorkspaceRoleOwner  WorkspaceRole = "owner"
	WorkspaceRoleMember WorkspaceRole = "member"
)

func (r WorkspaceRole) Valid() bool {
	return r == WorkspaceRoleOwner || r == WorkspaceRoleMember
}

type BotRole string

const (
	BotRoleAdmin   BotRole = "admin"
	BotRoleEditor  BotRole = "editor"
	BotRoleSupport BotRole = "support"
	BotRoleViewer  BotRole = "viewer"
)

func (r BotRole) Valid() bool {
	switch r {
	case BotRoleAdmin, BotRoleEditor, BotRoleSupport, BotRoleViewer:
		return true
	}
	return false
}

type BotStatus string

const (
	BotStatusActive      BotStatus = "active"
	BotStatusDisabled    BotStatus = "disabled"
	BotStatusMaintenance BotStatus = "maintenance"
)

type ChatStatus string

const (
	ChatStatusOpen    ChatStatus = "open"
	ChatStatusClosed  ChatStatus = "closed"
	ChatStatusBlocked ChatStatus = "blocked"
)

type SenderType string

const (
	SenderUser   SenderType = "user"
	SenderBot    SenderType = "bot"
	SenderAdmin  SenderType = "admin"
	SenderSystem SenderType = "system"
)

type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeMedia    MessageType = "media"
	MessageTypeImage    MessageType = "image"
	MessageTypeVideo    MessageType = "video"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeDocument MessageType = "document"
	MessageTypeSystem   MessageType = "system"
)

type BroadcastStatus string

const (
	BroadcastDraft      BroadcastStatus = "draft"
	BroadcastScheduled  BroadcastStatus = "scheduled"
	BroadcastProcessing BroadcastStatus = "processing"
	BroadcastSent       BroadcastStatus = "sent"
	BroadcastFailed     BroadcastStatus = "failed"
	BroadcastCancelled  BroadcastStatus = "cancelled"
)

type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliverySkipped DeliveryStatus = "skipped"
)

const (
	// DefaultPageSize is used by list endpoints when no limit is given.
	DefaultPageSize = 50
	MaxPageSize     = 500
)
