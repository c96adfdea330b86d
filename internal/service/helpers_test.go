package service

import (
	"context"
	"sync"
	"testing"

	"botdesk/internal/config"
	"botdesk/internal/database"
	"botdesk/internal/events"
	"botdesk/internal/models"
	"botdesk/internal/permissions"
	"botdesk/internal/security"
	"botdesk/internal/telegram"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTelegram struct {
	mock.Mock
}

func (m *mockTelegram) GetMe(ctx context.Context, token string) (*telegram.BotIdentity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*telegram.BotIdentity), args.Error(1)
}

func (m *mockTelegram) SetWebhook(ctx context.Context, token string, opts telegram.WebhookOptions) bool {
	return m.Called(ctx, token, opts).Bool(0)
}

func (m *mockTelegram) DeleteWebhook(ctx context.Context, token string, dropPendingUpdates bool) bool {
	return m.Called(ctx, token, dropPendingUpdates).Bool(0)
}

func (m *mockTelegram) SendMessage(ctx context.Context, token string, msg telegram.OutgoingMessage) *telegram.SentMessage {
	args := m.Called(ctx, token, msg)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*telegram.SentMessage)
}

func (m *mockTelegram) SetMyCommands(ctx context.Context, token string, commands []telegram.Command) bool {
	return m.Called(ctx, token, commands).Bool(0)
}

// eventLog records every audited event type published on the bus.
type eventLog struct {
	mu       sync.Mutex
	received []*events.Event
}

func (l *eventLog) handle(e *events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.received = append(l.received, e)
	return nil
}

func (l *eventLog) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.received))
	for _, e := range l.received {
		out = append(out, e.Type)
	}
	return out
}

func (l *eventLog) last(t *testing.T) events.AdminActionPayload {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	require.NotEmpty(t, l.received)
	var payload events.AdminActionPayload
	require.NoError(t, l.received[len(l.received)-1].Decode(&payload))
	return payload
}

type fixture struct {
	db     *database.DB
	tg     *mockTelegram
	cipher *security.TokenCipher
	bus    *events.EventBus
	events *eventLog
	access *Access
	logger *zerolog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(config.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         "file::memory:",
		AutoMigrate: true,
	}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cipher, err := security.NewTokenCipher(config.SecurityConfig{
		ProjectSecretKey:     "project-secret",
		EncryptionSalt:       "static-salt",
		EncryptionIterations: 1000,
		EncryptionLength:     32,
	})
	require.NoError(t, err)

	bus := events.NewEventBus()
	log := &eventLog{}
	bus.Subscribe(log.handle, events.AuditedEvents()...)

	return &fixture{
		db:     db,
		tg:     &mockTelegram{},
		cipher: cipher,
		bus:    bus,
		events: log,
		access: NewAccess(permissions.NewChecker(nil)),
		logger: &logger,
	}
}

func (f *fixture) do(t *testing.T, fn func(uow *database.UnitOfWork) error) {
	t.Helper()
	require.NoError(t, f.db.Do(context.Background(), func(uow *database.UnitOfWork) error {
		if err := fn(uow); err != nil {
			return err
		}
		return uow.Commit()
	}))
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{
		FirstName:  "Test",
		Email:      email,
		Username:   uuid.NewString()[:8],
		Password:   "x",
		Role:       models.UserRoleMember,
		IsActive:   true,
		IsVerified: true,
	}
	f.do(t, func(uow *database.UnitOfWork) error { return uow.Users().Create(context.Background(), u) })
	return u
}

// owner creates a user owning a fresh workspace.
func (f *fixture) owner(t *testing.T, email string) (*models.User, *models.Workspace) {
	t.Helper()
	u := f.user(t, email)
	ws, err := NewWorkspaceService(f.db, f.access, nil, f.logger).Create(context.Background(), u, CreateWorkspaceInput{Name: "ws " + email})
	require.NoError(t, err)
	return u, ws
}

func (f *fixture) member(t *testing.T, user *models.User, workspaceID uuid.UUID) {
	t.Helper()
	f.do(t, func(uow *database.UnitOfWork) error {
		return uow.Members().Create(context.Background(), &models.WorkspaceMember{
			UserID:      user.ID,
			WorkspaceID: workspaceID,
			Role:        models.WorkspaceRoleMember,
		})
	})
}

func (f *fixture) grant(t *testing.T, user *models.User, botID uuid.UUID, role models.BotRole) {
	t.Helper()
	f.do(t, func(uow *database.UnitOfWork) error {
		return uow.BotRoles().Assign(context.Background(), &models.AdminBotRole{AdminID: user.ID, BotID: botID, Role: role})
	})
}

// bot stores a bot whose token hash is the cipher's hash of token.
func (f *fixture) bot(t *testing.T, workspaceID uuid.UUID, token string, status models.BotStatus) *models.Bot {
	t.Helper()
	return f.botWithHash(t, workspaceID, token, f.cipher.Hash(token), status)
}

func (f *fixture) botWithHash(t *testing.T, workspaceID uuid.UUID, token, hash string, status models.BotStatus) *models.Bot {
	t.Helper()
	encrypted, err := f.cipher.Encrypt(token)
	require.NoError(t, err)
	b := &models.Bot{
		WorkspaceID:    workspaceID,
		Name:           "Support",
		Username:       "bot_" + uuid.NewString()[:8],
		TokenHash:      hash,
		TokenEncrypted: encrypted,
		Status:         status,
	}
	f.do(t, func(uow *database.UnitOfWork) error { return uow.Bots().Create(context.Background(), b) })
	return b
}
