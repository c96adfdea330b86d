package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Logging    LoggingConfig    `yaml:"logging"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Security   SecurityConfig   `yaml:"security"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	API        APIConfig        `yaml:"api"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Audit      AuditConfig      `yaml:"audit"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type DatabaseConfig struct {
	// Driver is either "sqlite" or "postgres".
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
	LogQueries      bool          `yaml:"log_queries"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type SecurityConfig struct {
	ProjectSecretKey     string        `yaml:"project_secret_key"`
	EncryptionSalt       string        `yaml:"encryption_salt"`
	EncryptionIterations int           `yaml:"encryption_iterations"`
	EncryptionLength     int           `yaml:"encryption_length"`
	JWTSecret            string        `yaml:"jwt_secret"`
	JWTTTL               time.Duration `yaml:"jwt_ttl"`
	VerificationTTL      time.Duration `yaml:"verification_ttl"`
	PasswordResetTTL     time.Duration `yaml:"password_reset_ttl"`
	LoginAttempts        int           `yaml:"login_attempts"`
	LoginWindow          time.Duration `yaml:"login_window"`
}

type TelegramConfig struct {
	// APIEndpoint follows the tgbotapi format: "https://api.telegram.org/bot%s/%s".
	APIEndpoint    string        `yaml:"api_endpoint"`
	WebhookBaseURL string        `yaml:"webhook_base_url"`
	WebhookSecret  string        `yaml:"webhook_secret"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type APIConfig struct {
	HTTP        APIHTTPConfig      `yaml:"http"`
	RateLimit   APIRateLimitConfig `yaml:"rate_limit"`
	InternalKey string             `yaml:"internal_key"`
	CORSOrigins []string           `yaml:"cors_origins"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	Insecure     bool    `yaml:"insecure"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

type AuditConfig struct {
	QueueSize     int           `yaml:"queue_size"`
	MaxRetries    int           `yaml:"max_retries"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.Security.ProjectSecretKey == "" {
		return errors.New("security.project_secret_key is required")
	}
	if c.Security.EncryptionSalt == "" {
		return errors.New("security.encryption_salt is required")
	}
	if c.Security.EncryptionLength != 32 {
		return fmt.Errorf("security.encryption_length must be 32, got %d", c.Security.EncryptionLength)
	}
	if c.Security.JWTSecret == "" {
		return errors.New("security.jwt_secret is required")
	}
	if !strings.Contains(c.Telegram.APIEndpoint, "%s") {
		return errors.New("telegram.api_endpoint must contain %s placeholders")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "botdesk"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}

	if c.Security.EncryptionIterations == 0 {
		c.Security.EncryptionIterations = 100_000
	}
	if c.Security.EncryptionLength == 0 {
		c.Security.EncryptionLength = 32
	}
	if c.Security.JWTTTL == 0 {
		c.Security.JWTTTL = 24 * time.Hour
	}
	if c.Security.VerificationTTL == 0 {
		c.Security.VerificationTTL = 24 * time.Hour
	}
	if c.Security.PasswordResetTTL == 0 {
		c.Security.PasswordResetTTL = time.Hour
	}
	if c.Security.LoginAttempts == 0 {
		c.Security.LoginAttempts = 5
	}
	if c.Security.LoginWindow == 0 {
		c.Security.LoginWindow = 15 * time.Minute
	}

	if c.Telegram.APIEndpoint == "" {
		c.Telegram.APIEndpoint = "https://api.telegram.org/bot%s/%s"
	}
	if c.Telegram.RequestTimeout == 0 {
		c.Telegram.RequestTimeout = 10 * time.Second
	}

	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 5
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Tracing.Enabled && c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}

	if c.Audit.QueueSize == 0 {
		c.Audit.QueueSize = 256
	}
	if c.Audit.MaxRetries == 0 {
		c.Audit.MaxRetries = 3
	}
	if c.Audit.InitialDelay == 0 {
		c.Audit.InitialDelay = 200 * time.Millisecond
	}
	if c.Audit.MaxDelay == 0 {
		c.Audit.MaxDelay = 5 * time.Second
	}
	if c.Audit.BackoffFactor == 0 {
		c.Audit.BackoffFactor = 2
	}
}
