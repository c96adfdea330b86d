package service

import (
	"bytes"
	"context"
	"fmt"

	"botdesk/internal/database"
	"botdesk/internal/domain"
	"botdesk/internal/events"
	"botdesk/internal/logging"
	"botdesk/internal/models"
	"botdesk/internal/permissions"
	"botdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const audienceSheet = "Audience"

var audienceHeader = []any{"Telegram ID", "First name", "Last name", "Username", "Language", "First seen", "Last seen"}

type AudienceService struct {
	db     *database.DB
	access *Access
	events domain.EventPublisher
	logger zerolog.Logger
}

func NewAudienceService(db *database.DB, access *Access, publisher domain.EventPublisher, logger *zerolog.Logger) *AudienceService {
	return &AudienceService{
		db:     db,
		access: access,
		events: publisher,
		logger: logging.Component(logger, "audience_service"),
	}
}

func (s *AudienceService) List(ctx context.Context, actor *models.User, botID uuid.UUID, page repository.Page) ([]models.TelegramUser, int64, error) {
	var (
		users []models.TelegramUser
		total int64
	)
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		if _, _, err := s.access.Bot(ctx, uow, actor, botID, permissions.BotViewAudience); err != nil {
			return err
		}
		var err error
		if users, err = uow.TelegramUsers().ListByBot(ctx, botID, page); err != nil {
			return err
		}
		total, err = uow.TelegramUsers().Count(ctx, repository.Filter{"bot_id": botID})
		return err
	})
	return users, total, err
}

// Export renders the whole audience of a bot as an xlsx workbook.
func (s *AudienceService) Export(ctx context.Context, actor *models.User, botID uuid.UUID) ([]byte, string, error) {
	var (
		bot   *models.Bot
		users []models.TelegramUser
	)
	err := s.db.Do(ctx, func(uow *database.UnitOfWork) error {
		var err error
		if bot, _, err = s.access.Bot(ctx, uow, actor, botID, permissions.BotExportData); err != nil {
			return err
		}
		page := repository.Page{Limit: models.MaxPageSize}
		for {
			batch, err := uow.TelegramUsers().ListByBot(ctx, botID, page)
			if err != nil {
				return err
			}
			users = append(users, batch...)
			if len(batch) < page.Limit {
				return nil
			}
			page.Offset += page.Limit
		}
	})
	if err != nil {
		return nil, "", err
	}

	data, err := renderAudience(users)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render audience export: %w", err)
	}

	fileName := fmt.Sprintf("audience_%s.xlsx", bot.Username)
	s.logger.Info().Str("bot_id", botID.String()).Int("rows", len(users)).Msg("audience exported")
	publish(s.events, &s.logger, events.EventAudienceExported, events.AdminActionPayload{
		AdminID:      actor.ID,
		BotID:        &botID,
		TargetEntity: "bot",
		TargetID:     botID.String(),
		Details:      map[string]any{"rows": len(users)},
	})
	return data, fileName, nil
}

func renderAudience(users []models.TelegramUser) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", audienceSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(audienceSheet, "A1", &audienceHeader); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(audienceSheet, "A1", "G1", style)
	_ = f.SetColWidth(audienceSheet, "A", "G", 20)

	for i, u := range users {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			u.TgUserID,
			u.FirstName,
			u.LastName,
			u.Username,
			u.LanguageCode,
			u.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			u.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(audienceSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
