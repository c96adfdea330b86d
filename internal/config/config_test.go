package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("BOTDESK_TEST_SECRET", "from-env")

	yamlContent := `
app:
  name: botdesk-test
database:
  driver: sqlite
  dsn: "file::memory:"
security:
  project_secret_key: "${BOTDESK_TEST_SECRET}"
  encryption_salt: "salt"
  jwt_secret: "jwt"
  login_window: 10m
redis:
  address: "localhost:6379"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "botdesk-test", cfg.App.Name)
	assert.Equal(t, "from-env", cfg.Security.ProjectSecretKey)
	assert.Equal(t, 10*time.Minute, cfg.Security.LoginWindow)
	assert.Equal(t, 32, cfg.Security.EncryptionLength)
	assert.Equal(t, 100_000, cfg.Security.EncryptionIterations)
	assert.Equal(t, "https://api.telegram.org/bot%s/%s", cfg.Telegram.APIEndpoint)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		c := Config{
			Database: DatabaseConfig{Driver: "postgres", DSN: "postgres://localhost/botdesk"},
			Security: SecurityConfig{ProjectSecretKey: "k", EncryptionSalt: "s", JWTSecret: "j"},
		}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "missing dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{name: "missing secret key", mutate: func(c *Config) { c.Security.ProjectSecretKey = "" }, wantErr: true},
		{name: "missing salt", mutate: func(c *Config) { c.Security.EncryptionSalt = "" }, wantErr: true},
		{name: "wrong key length", mutate: func(c *Config) { c.Security.EncryptionLength = 16 }, wantErr: true},
		{name: "missing jwt secret", mutate: func(c *Config) { c.Security.JWTSecret = "" }, wantErr: true},
		{name: "bad endpoint", mutate: func(c *Config) { c.Telegram.APIEndpoint = "http://x" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
