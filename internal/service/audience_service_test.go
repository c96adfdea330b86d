package service

import (
	"bytes"
	"context"
	"testing"

	"botdesk/internal/domain"
	"botdesk/internal/events"
	"botdesk/internal/models"
	"botdesk/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestAudience(t *testing.T) {
	f := newFixture(t)
	svc := NewAudienceService(f.db, f.access, f.bus, f.logger)
	ctx := context.Background()

	owner, ws := f.owner(t, "owner@example.com")
	bot := f.bot(t, ws.ID, validToken, models.BotStatusActive)
	seedChat(t, f, bot)

	users, total, err := svc.List(ctx, owner, bot.ID, repository.Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, int64(555), users[0].TgUserID)

	data, name, err := svc.Export(ctx, owner, bot.ID)
	require.NoError(t, err)
	assert.Equal(t, "audience_"+bot.Username+".xlsx", name)
	assert.Contains(t, f.events.types(), events.EventAudienceExported)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(audienceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Telegram ID", rows[0][0])
	assert.Equal(t, "555", rows[1][0])
	assert.Equal(t, "Ann", rows[1][1])

	viewer := f.user(t, "viewer@example.com")
	f.member(t, viewer, ws.ID)
	f.grant(t, viewer, bot.ID, models.BotRoleViewer)

	_, _, err = svc.List(ctx, viewer, bot.ID, repository.Page{})
	assert.NoError(t, err)
	_, _, err = svc.Export(ctx, viewer, bot.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}
