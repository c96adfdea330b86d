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
	"botdesk/internal/telegram"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type SendMessageInput struct {
	Text                  string `json:"text" validate:"required,max=4096"`
	ReplyToMessageID      int    `json:"reply_to_message_id" validate:"gte=0"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type ChatService struct {
	db       *database.DB
	access   *Access
	telegram domain.TelegramAPI
	cipher   domain.TokenCipher
	events   domain.EventPublisher
	logger   zerolog.Logger
}

func NewChatService(db *database.DB, access *Access, tg domain.TelegramAPI, cipher domain.TokenCipher, publisher domain.EventPublisher, logger *zerolog.Logger) *ChatService {
	return &ChatService{
		db:       db,
		access:   access,
		telegram: tg,
		cipher:   cipher,
		events:   publisher,
		logger:   logging.Component(logger, "chat_service"),
	}
}

func (s *ChatService) ListChats(ctx context.Context, actor *models.User, botID uuid.UUID, page repository.Page) ([]models.Chat, error) {
	var chats []models.Chat
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		if _, _, err := s.access.Bot(ctx, uow, actor, botID, permissions.BotViewChats); err != nil {
			return err
		}
		var err error
		chats, err = uow.Chats().ListByBot(ctx, botID, page)
		return err
	})
	return chats, err
}

func (s *ChatService) ListMessages(ctx context.Context, actor *models.User, botID, chatID uuid.UUID, page repository.Page) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		if _, _, err := s.access.Bot(ctx, uow, actor, botID, permissions.BotViewChats); err != nil {
			return err
		}
		if _, err := loadChat(ctx, uow, botID, chatID); err != nil {
			return err
		}
		var err error
		messages, err = uow.Messages().ListByChat(ctx, chatID, page)
		return err
	})
	return messages, err
}

// SendMessage delivers text to the chat's Telegram user and records it as an
// admin message. Nothing is recorded when Telegram does not accept it.
func (s *ChatService) SendMessage(ctx context.Context, actor *models.User, botID, chatID uuid.UUID, in SendMessageInput) (*models.Message, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, domain.Validation("text: must not be blank")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var (
		bot    *models.Bot
		chat   *models.Chat
		tgUser *models.TelegramUser
	)
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		var err error
		if bot, _, err = s.access.Bot(ctx, uow, actor, botID, permissions.BotSendMessages); err != nil {
			return err
		}
		if chat, err = loadChat(ctx, uow, botID, chatID); err != nil {
			return err
		}
		if chat.Status == models.ChatStatusBlocked {
			return domain.Validation("chat is blocked")
		}
		tgUser, err = uow.TelegramUsers().GetByID(ctx, chat.TelegramUserID)
		if err != nil {
			return err
		}
		if tgUser == nil {
			return domain.NotFound("telegram user not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !bot.IsActive() {
		return nil, domain.Validation("bot is not active")
	}

	token, err := s.cipher.Decrypt(bot.TokenEncrypted)
	if err != nil {
		return nil, err
	}

	sent := s.telegram.SendMessage(ctx, token, telegram.OutgoingMessage{
		ChatID:                tgUser.TgUserID,
		Text:                  in.Text,
		ReplyToMessageID:      in.ReplyToMessageID,
		DisableWebPagePreview: in.DisableWebPagePreview,
	})
	if sent == nil {
		return nil, domain.Upstream(nil, "telegram did not accept the message")
	}

	tgMessageID := int64(sent.MessageID)
	authorID := actor.ID
	message := &models.Message{
		ChatID:      chat.ID,
		SenderType:  models.SenderAdmin,
		AuthorID:    &authorID,
		MessageType: models.MessageTypeText,
		TgMessageID: &tgMessageID,
		Content:     in.Text,
		Metadata:    map[string]any{models.MetadataTelegramDate: sent.Date},
	}
	err = s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		if err := uow.Messages().Create(ctx, message); err != nil {
			return err
		}
		return uow.Commit()
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, &s.logger, events.EventMessageSent, events.AdminActionPayload{
		AdminID:      actor.ID,
		BotID:        &botID,
		TargetEntity: "chat",
		TargetID:     chat.ID.String(),
		Details:      map[string]any{"message_id": message.ID.String()},
	})
	return message, nil
}

func loadChat(ctx context.Context, uow *database.UnitOfWork, botID, chatID uuid.UUID) (*models.Chat, error) {
	chat, err := uow.Chats().GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil || chat.BotID != botID {
		return nil, domain.NotFound("chat not found")
	}
	return chat, nil
}
