package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"botdesk/internal/config"
	"botdesk/internal/database"
	"botdesk/internal/domain"
	"botdesk/internal/events"
	"botdesk/internal/logging"
	"botdesk/internal/models"
	"botdesk/internal/permissions"
	"botdesk/internal/telegram"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("botdesk/internal/service")

type CreateBotInput struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Token string `json:"token" validate:"required,min=10,contains=:"`
}

type AssignBotRoleInput struct {
	AdminID     uuid.UUID      `json:"admin_id" validate:"required"`
	Role        models.BotRole `json:"role" validate:"required,oneof=admin editor support viewer"`
	Permissions []string       `json:"permissions"`
}

type RegisterWebhookInput struct {
	// Commands maps a menu command to its description. Empty means the default menu.
	Commands map[string]string `json:"commands" validate:"omitempty,dive,keys,required,max=32,endkeys,required,max=256"`
}

// DefaultCommands is the menu installed when a webhook is registered without one.
var DefaultCommands = map[string]string{
	"start": "Start the conversation",
	"help":  "Contact support",
}

type BotService struct {
	db       *database.DB
	access   *Access
	telegram domain.TelegramAPI
	cipher   domain.TokenCipher
	events   domain.EventPublisher
	cfg      config.TelegramConfig
	logger   zerolog.Logger
}

func NewBotService(
	db *database.DB,
	access *Access,
	tg domain.TelegramAPI,
	cipher domain.TokenCipher,
	publisher domain.EventPublisher,
	cfg config.TelegramConfig,
	logger *zerolog.Logger,
) *BotService {
	return &BotService{
		db:       db,
		access:   access,
		telegram: tg,
		cipher:   cipher,
		events:   publisher,
		cfg:      cfg,
		logger:   logging.Component(logger, "bot_service"),
	}
}

// Create registers a bot in workspaceID. The token is checked against
// Telegram before anything is written; a rejected token and an unreachable
// Telegram are reported as different error kinds and leave no state.
func (s *BotService) Create(ctx context.Context, actor *models.User, workspaceID uuid.UUID, in CreateBotInput) (*models.Bot, error) {
	ctx, span := tracer.Start(ctx, "BotService.Create")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.Token = strings.TrimSpace(in.Token)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if workspaceID == uuid.Nil {
		return nil, domain.AccessForbidden("cannot create a bot without an active workspace context")
	}

	// Permission first, so callers without rights never trigger an outbound call.
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		_, err := s.access.Workspace(ctx, uow, actor, workspaceID, permissions.WorkspaceCreateBot)
		return err
	})
	if err != nil {
		return nil, err
	}

	identity, err := s.telegram.GetMe(ctx, in.Token)
	if err != nil {
		if errors.Is(err, telegram.ErrInvalidToken) {
			return nil, domain.Validation("invalid telegram bot token")
		}
		return nil, domain.Upstream(err, "telegram is unavailable, try again later")
	}

	tokenHash := s.cipher.Hash(in.Token)
	tokenEncrypted, err := s.cipher.Encrypt(in.Token)
	if err != nil {
		return nil, err
	}

	bot := &models.Bot{
		WorkspaceID:    workspaceID,
		Name:           in.Name,
		Username:       identity.Username,
		TokenHash:      tokenHash,
		TokenEncrypted: tokenEncrypted,
		Status:         models.BotStatusActive,
	}

	err = s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		existing, err := uow.Bots().GetByTokenHash(ctx, tokenHash)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.Conflict("bot is already registered")
		}
		if err := uow.Bots().Create(ctx, bot); err != nil {
			return conflictOnDuplicate(err, "bot @%s is already registered", identity.Username)
		}
		return uow.Commit()
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("bot.id", bot.ID.String()))
	s.logger.Info().Str("bot_id", bot.ID.String()).Str("admin_id", actor.ID.String()).Msg("bot created")
	publish(s.events, &s.logger, events.EventBotCreated, events.AdminActionPayload{
		AdminID:      actor.ID,
		BotID:        &bot.ID,
		TargetEntity: "bot",
		TargetID:     bot.ID.String(),
		Details:      map[string]any{"username": bot.Username, "workspace_id": workspaceID.String()},
	})
	return bot, nil
}

func (s *BotService) Get(ctx context.Context, actor *models.User, botID uuid.UUID) (*models.Bot, models.BotRole, error) {
	var (
		bot  *models.Bot
		role models.BotRole
	)
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		var err error
		bot, role, err = s.access.Bot(ctx, uow, actor, botID, permissions.BotViewSettings)
		return err
	})
	return bot, role, err
}

// AssignRole grants adminID a role on botID. The target must already be a
// member of the bot's workspace.
func (s *BotService) AssignRole(ctx context.Context, actor *models.User, botID uuid.UUID, in AssignBotRoleInput) (*models.AdminBotRole, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var assigned *models.AdminBotRole
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		bot, _, err := s.access.Bot(ctx, uow, actor, botID, permissions.BotManageRoles)
		if err != nil {
			return err
		}
		member, err := uow.Members().GetMembership(ctx, in.AdminID, bot.WorkspaceID)
		if err != nil {
			return err
		}
		if member == nil {
			return domain.Validation("user is not a member of the bot's workspace")
		}

		row := &models.AdminBotRole{
			AdminID:     in.AdminID,
			BotID:       botID,
			Role:        in.Role,
			Permissions: in.Permissions,
		}
		if err := uow.BotRoles().Assign(ctx, row); err != nil {
			return err
		}
		assigned, err = uow.BotRoles().GetSingle(ctx, map[string]any{"admin_id": in.AdminID, "bot_id": botID})
		if err != nil {
			return err
		}
		return uow.Commit()
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, &s.logger, events.EventBotRoleAssigned, events.AdminActionPayload{
		AdminID:      actor.ID,
		BotID:        &botID,
		TargetEntity: "admin_bot_role",
		TargetID:     in.AdminID.String(),
		Details:      map[string]any{"role": string(in.Role)},
	})
	return assigned, nil
}

// RegisterWebhook points the bot's Telegram webhook at this service and
// installs its command menu.
func (s *BotService) RegisterWebhook(ctx context.Context, actor *models.User, botID uuid.UUID, in RegisterWebhookInput) (string, error) {
	if err := validateInput(in); err != nil {
		return "", err
	}
	if s.cfg.WebhookBaseURL == "" {
		return "", domain.Validation("webhook base url is not configured")
	}

	var bot *models.Bot
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		var err error
		bot, _, err = s.access.Bot(ctx, uow, actor, botID, permissions.BotEditSettings)
		return err
	})
	if err != nil {
		return "", err
	}

	token, err := s.cipher.Decrypt(bot.TokenEncrypted)
	if err != nil {
		return "", err
	}

	url := WebhookURL(s.cfg.WebhookBaseURL, bot.TokenHash)
	ok := s.telegram.SetWebhook(ctx, token, telegram.WebhookOptions{
		URL:                url,
		SecretToken:        s.cfg.WebhookSecret,
		DropPendingUpdates: true,
		AllowedUpdates:     telegram.DefaultAllowedUpdates,
	})
	if !ok {
		return "", domain.Upstream(nil, "telegram refused the webhook")
	}

	commands := in.Commands
	if len(commands) == 0 {
		commands = DefaultCommands
	}
	if !s.telegram.SetMyCommands(ctx, token, toCommands(commands)) {
		// The webhook is live; a missing menu is cosmetic.
		s.logger.Warn().Str("bot_id", bot.ID.String()).Msg("failed to install command menu")
	}

	publish(s.events, &s.logger, events.EventBotWebhookRegistered, events.AdminActionPayload{
		AdminID:      actor.ID,
		BotID:        &bot.ID,
		TargetEntity: "bot",
		TargetID:     bot.ID.String(),
	})
	return url, nil
}

// Delete removes the webhook and soft-deletes the bot.
func (s *BotService) Delete(ctx context.Context, actor *models.User, workspaceID, botID uuid.UUID) error {
	var bot *models.Bot
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		if _, err := s.access.Workspace(ctx, uow, actor, workspaceID, permissions.WorkspaceDeleteBot); err != nil {
			return err
		}
		var err error
		bot, err = uow.Bots().GetByID(ctx, botID)
		if err != nil {
			return err
		}
		if bot == nil || bot.WorkspaceID != workspaceID {
			return domain.NotFound("bot not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if token, err := s.cipher.Decrypt(bot.TokenEncrypted); err != nil {
		s.logger.Warn().Err(err).Str("bot_id", botID.String()).Msg("cannot decrypt token, skipping deleteWebhook")
	} else if !s.telegram.DeleteWebhook(ctx, token, true) {
		s.logger.Warn().Str("bot_id", botID.String()).Msg("deleteWebhook failed, deleting anyway")
	}

	err = s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		if err := uow.Bots().SoftDelete(ctx, botID); err != nil {
			return err
		}
		return uow.Commit()
	})
	if err != nil {
		return err
	}

	publish(s.events, &s.logger, events.EventBotDeleted, events.AdminActionPayload{
		AdminID:      actor.ID,
		BotID:        &botID,
		TargetEntity: "bot",
		TargetID:     botID.String(),
	})
	return nil
}

// WebhookURL builds the public webhook address for a token hash.
func WebhookURL(base, tokenHash string) string {
	return strings.TrimRight(base, "/") + "/webhook/" + tokenHash
}

func toCommands(m map[string]string) []telegram.Command {
	out := make([]telegram.Command, 0, len(m))
	for cmd, desc := range m {
		out = append(out, telegram.Command{Command: strings.TrimPrefix(cmd, "/"), Description: desc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out
}
