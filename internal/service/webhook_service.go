package service

import (
	"context"
	"errors"

	"botdesk/internal/database"
	"botdesk/internal/domain"
	"botdesk/internal/logging"
	"botdesk/internal/metrics"
	"botdesk/internal/models"
	"botdesk/internal/telegram"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// WebhookOutcome says what happened to an accepted update.
type WebhookOutcome string

const (
	OutcomeStored  WebhookOutcome = "stored"
	OutcomeIgnored WebhookOutcome = "ignored"
	OutcomeDropped WebhookOutcome = "dropped"
)

// BotMessageInput is a message the bot itself sent, reported by a trusted
// internal caller.
type BotMessageInput struct {
	ChatID    int64  `json:"chat_id" validate:"required"`
	Text      string `json:"text"`
	MessageID int64  `json:"message_id" validate:"required"`
	Date      int64  `json:"date"`
}

type WebhookService struct {
	db     *database.DB
	logger zerolog.Logger
}

func NewWebhookService(db *database.DB, logger *zerolog.Logger) *WebhookService {
	return &WebhookService{db: db, logger: logging.Component(logger, "webhook")}
}

// HandleWebhook stores an inbound Telegram update. Updates without a message
// or a sender are ignored and updates for inactive bots are dropped; both
// count as success. The user, the chat and the message are committed
// together or not at all.
func (s *WebhookService) HandleWebhook(ctx context.Context, tokenHash string, update *telegram.Update) (outcome WebhookOutcome, err error) {
	ctx, span := tracer.Start(ctx, "WebhookService.HandleWebhook")
	defer func() {
		span.SetAttributes(attribute.String("webhook.outcome", string(outcome)))
		span.End()
		recordWebhook(outcome, err)
	}()

	msg := update.EffectiveMessage()
	if msg == nil {
		s.logger.Debug().Int64("update_id", updateID(update)).Msg("non-message update ignored")
		return OutcomeIgnored, nil
	}
	if msg.From == nil {
		s.logger.Debug().Int64("message_id", msg.MessageID).Msg("message without sender ignored")
		return OutcomeIgnored, nil
	}

	err = s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		bot, err := uow.Bots().GetByTokenHash(ctx, tokenHash)
		if err != nil {
			return err
		}
		if bot == nil {
			s.logger.Warn().Str("token_hash", tokenHash).Msg("webhook for unknown token hash")
			return domain.NotFound("bot not found")
		}
		if !bot.IsActive() {
			s.logger.Info().Str("bot_id", bot.ID.String()).Str("status", string(bot.Status)).Msg("webhook skipped for inactive bot")
			outcome = OutcomeDropped
			return nil
		}

		tgUser, err := uow.TelegramUsers().Upsert(ctx, bot.ID, models.TelegramProfile{
			TgUserID:     msg.From.ID,
			FirstName:    msg.From.FirstName,
			LastName:     msg.From.LastName,
			Username:     msg.From.Username,
			LanguageCode: msg.From.LanguageCode,
		})
		if err != nil {
			return err
		}

		chat, err := getOrCreateChat(ctx, uow, bot.ID, tgUser)
		if err != nil {
			return err
		}

		tgMessageID := msg.MessageID
		if err := uow.Messages().Create(ctx, &models.Message{
			ChatID:      chat.ID,
			SenderType:  models.SenderUser,
			MessageType: classifyMessage(msg),
			TgMessageID: &tgMessageID,
			Content:     messageContent(msg),
			Metadata:    map[string]any{models.MetadataTelegramDate: msg.Date},
		}); err != nil {
			return err
		}
		if err := uow.Commit(); err != nil {
			return err
		}

		outcome = OutcomeStored
		s.logger.Info().
			Str("bot_id", bot.ID.String()).
			Int64("tg_user_id", tgUser.TgUserID).
			Int64("message_id", msg.MessageID).
			Msg("webhook processed")
		return nil
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// LogBotMessage records an outbound message the bot sent on its own. The
// recipient must have written to the bot before.
func (s *WebhookService) LogBotMessage(ctx context.Context, tokenHash string, in BotMessageInput) (outcome WebhookOutcome, err error) {
	if err := validateInput(in); err != nil {
		return "", err
	}

	err = s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		bot, err := uow.Bots().GetByTokenHash(ctx, tokenHash)
		if err != nil {
			return err
		}
		if bot == nil {
			s.logger.Warn().Str("token_hash", tokenHash).Msg("bot message for unknown token hash")
			return domain.NotFound("bot not found")
		}
		if !bot.IsActive() {
			outcome = OutcomeDropped
			return nil
		}

		tgUser, err := uow.TelegramUsers().GetSingle(ctx, map[string]any{"tg_user_id": in.ChatID, "bot_id": bot.ID})
		if err != nil {
			return err
		}
		if tgUser == nil {
			return domain.NotFound("telegram user %d not found for this bot", in.ChatID)
		}

		chat, err := getOrCreateChat(ctx, uow, bot.ID, tgUser)
		if err != nil {
			return err
		}

		tgMessageID := in.MessageID
		if err := uow.Messages().Create(ctx, &models.Message{
			ChatID:      chat.ID,
			SenderType:  models.SenderBot,
			MessageType: models.MessageTypeText,
			TgMessageID: &tgMessageID,
			Content:     in.Text,
			Metadata:    map[string]any{models.MetadataTelegramDate: in.Date},
		}); err != nil {
			return err
		}
		outcome = OutcomeStored
		return uow.Commit()
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// getOrCreateChat returns the chat of (bot, user) whatever its status, or
// opens a new one.
func getOrCreateChat(ctx context.Context, uow *database.UnitOfWork, botID uuid.UUID, tgUser *models.TelegramUser) (*models.Chat, error) {
	return uow.Chats().GetOrCreate(ctx, botID, tgUser.ID)
}

func messageContent(msg *telegram.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// classifyMessage does not distinguish attachment kinds: a message without
// text is media when it carries a caption or any attachment.
func classifyMessage(msg *telegram.Message) models.MessageType {
	if msg.Text == "" && (msg.Caption != "" || msg.HasMedia()) {
		return models.MessageTypeMedia
	}
	return models.MessageTypeText
}

func updateID(u *telegram.Update) int64 {
	if u == nil {
		return 0
	}
	return u.UpdateID
}

func recordWebhook(outcome WebhookOutcome, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		metrics.IncWebhook("not_found")
	case err != nil:
		metrics.IncWebhook("error")
	default:
		metrics.IncWebhook(string(outcome))
	}
}
