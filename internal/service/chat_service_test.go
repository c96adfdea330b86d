package service

import (
	"context"
	"testing"

	"botdesk/internal/domain"
	"botdesk/internal/events"
	"botdesk/internal/models"
	"botdesk/internal/repository"
	"botdesk/internal/telegram"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// seedChat runs Ann's inbound message through the webhook and returns the chat.
func seedChat(t *testing.T, f *fixture, bot *models.Bot) *models.Chat {
	t.Helper()
	_, err := NewWebhookService(f.db, f.logger).HandleWebhook(context.Background(), bot.TokenHash, decodeUpdate(t, annUpdate))
	require.NoError(t, err)
	var chat models.Chat
	require.NoError(t, f.db.Gorm().Where("bot_id = ?", bot.ID).First(&chat).Error)
	return &chat
}

func TestChatListing(t *testing.T) {
	f := newFixture(t)
	svc := NewChatService(f.db, f.access, f.tg, f.cipher, f.bus, f.logger)
	ctx := context.Background()

	owner, ws := f.owner(t, "owner@example.com")
	bot := f.bot(t, ws.ID, validToken, models.BotStatusActive)
	chat := seedChat(t, f, bot)

	chats, err := svc.ListChats(ctx, owner, bot.ID, repository.Page{})
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, chat.ID, chats[0].ID)

	messages, err := svc.ListMessages(ctx, owner, bot.ID, chat.ID, repository.Page{})
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hi", messages[0].Content)

	// A chat of another bot is not reachable through this one.
	other := f.bot(t, ws.ID, "2:other", models.BotStatusActive)
	_, err = svc.ListMessages(ctx, owner, other.ID, chat.ID, repository.Page{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.ListMessages(ctx, owner, bot.ID, uuid.New(), repository.Page{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChatSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("Delivered", func(t *testing.T) {
		f := newFixture(t)
		svc := NewChatService(f.db, f.access, f.tg, f.cipher, f.bus, f.logger)
		_, ws := f.owner(t, "owner@example.com")
		bot := f.bot(t, ws.ID, validToken, models.BotStatusActive)
		chat := seedChat(t, f, bot)

		support := f.user(t, "support@example.com")
		f.member(t, support, ws.ID)
		f.grant(t, support, bot.ID, models.BotRoleSupport)

		f.tg.On("SendMessage", mock.Anything, validToken, telegram.OutgoingMessage{ChatID: 555, Text: "hello Ann", ReplyToMessageID: 42}).
			Return(&telegram.SentMessage{MessageID: 77, ChatID: 555, Date: 2000}).Once()

		msg, err := svc.SendMessage(ctx, support, bot.ID, chat.ID, SendMessageInput{Text: "hello Ann", ReplyToMessageID: 42})
		require.NoError(t, err)
		assert.Equal(t, models.SenderAdmin, msg.SenderType)
		require.NotNil(t, msg.AuthorID)
		assert.Equal(t, support.ID, *msg.AuthorID)
		require.NotNil(t, msg.TgMessageID)
		assert.Equal(t, int64(77), *msg.TgMessageID)

		assert.EqualValues(t, 2, f.count(t, &models.Message{}))
		assert.Contains(t, f.events.types(), events.EventMessageSent)
		f.tg.AssertExpectations(t)
	})

	t.Run("TelegramFailureRecordsNothing", func(t *testing.T) {
		f := newFixture(t)
		svc := NewChatService(f.db, f.access, f.tg, f.cipher, f.bus, f.logger)
		owner, ws := f.owner(t, "owner@example.com")
		bot := f.bot(t, ws.ID, validToken, models.BotStatusActive)
		chat := seedChat(t, f, bot)

		f.tg.On("SendMessage", mock.Anything, validToken, mock.Anything).Return(nil).Once()

		_, err := svc.SendMessage(ctx, owner, bot.ID, chat.ID, SendMessageInput{Text: "hello"})
		assert.ErrorIs(t, err, domain.ErrUpstream)
		assert.EqualValues(t, 1, f.count(t, &models.Message{}))
		assert.NotContains(t, f.events.types(), events.EventMessageSent)
	})

	t.Run("ViewerCannotSend", func(t *testing.T) {
		f := newFixture(t)
		svc := NewChatService(f.db, f.access, f.tg, f.cipher, f.bus, f.logger)
		_, ws := f.owner(t, "owner@example.com")
		bot := f.bot(t, ws.ID, validToken, models.BotStatusActive)
		chat := seedChat(t, f, bot)

		viewer := f.user(t, "viewer@example.com")
		f.member(t, viewer, ws.ID)
		f.grant(t, viewer, bot.ID, models.BotRoleViewer)

		_, err := svc.SendMessage(ctx, viewer, bot.ID, chat.ID, SendMessageInput{Text: "hello"})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
		f.tg.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BlankText", func(t *testing.T) {
		f := newFixture(t)
		svc := NewChatService(f.db, f.access, f.tg, f.cipher, f.bus, f.logger)
		owner, ws := f.owner(t, "owner@example.com")
		bot := f.bot(t, ws.ID, validToken, models.BotStatusActive)

		_, err := svc.SendMessage(ctx, owner, bot.ID, uuid.New(), SendMessageInput{Text: "  "})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}
