package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"botdesk/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(config.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         "file::memory:",
		AutoMigrate: true,
	}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDB(t *testing.T) {
	t.Run("CreatesSQLiteDirectory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "dir", "botdesk.db")
		db, err := NewDB(config.DatabaseConfig{Driver: "sqlite", DSN: dbPath, AutoMigrate: true}, nil)
		require.NoError(t, err)
		defer db.Close()

		_, err = os.Stat(dbPath)
		assert.NoError(t, err)
		assert.NoError(t, db.Ping(context.Background()))
		assert.True(t, db.Gorm().Migrator().HasTable("bots"))
	})

	t.Run("UnsupportedDriver", func(t *testing.T) {
		_, err := NewDB(config.DatabaseConfig{Driver: "oracle", DSN: "x"}, nil)
		assert.Error(t, err)
	})
}

func TestEnsureSQLiteDir(t *testing.T) {
	assert.NoError(t, ensureSQLiteDir("file::memory:"))
	assert.NoError(t, ensureSQLiteDir(":memory:"))

	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, ensureSQLiteDir("file:"+filepath.Join(dir, "x.db")+"?_busy_timeout=5000"))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
