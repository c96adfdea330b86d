package domain

import (
	"context"
	"time"

	"botdesk/internal/telegram"
)

// TokenStore keeps short-lived one-time tokens and attempt counters.
type TokenStore interface {
	SaveToken(ctx context.Context, purpose, token, subject string, ttl time.Duration) error
	ConsumeToken(ctx context.Context, purpose, token string) (string, error)
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// TelegramAPI is the set of Bot API operations the use cases invoke.
// Only GetMe reports a typed error; the rest log failures and return a
// negative result.
type TelegramAPI interface {
	GetMe(ctx context.Context, token string) (*telegram.BotIdentity, error)
	SetWebhook(ctx context.Context, token string, opts telegram.WebhookOptions) bool
	DeleteWebhook(ctx context.Context, token string, dropPendingUpdates bool) bool
	SendMessage(ctx context.Context, token string, msg telegram.OutgoingMessage) *telegram.SentMessage
	SetMyCommands(ctx context.Context, token string, commands []telegram.Command) bool
}

// TokenCipher derives the stored forms of a bot token.
type TokenCipher interface {
	Hash(token string) string
	Encrypt(token string) (string, error)
	Decrypt(encrypted string) (string, error)
}
