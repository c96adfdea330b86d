package repository

import (
	"testing"

	"botdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func createBot(t *testing.T, db *gorm.DB, hash string) *models.Bot {
	t.Helper()
	bot := &models.Bot{
		WorkspaceID:    uuid.New(),
		Name:           "bot " + hash,
		Username:       "bot_" + hash,
		TokenHash:      hash,
		TokenEncrypted: "enc",
		Status:         models.BotStatusActive,
	}
	require.NoError(t, db.Create(bot).Error)
	return bot
}
