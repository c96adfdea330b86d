package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botdesk/internal/api"
	"botdesk/internal/config"
	"botdesk/internal/database"
	"botdesk/internal/domain"
	"botdesk/internal/events"
	"botdesk/internal/logging"
	"botdesk/internal/metrics"
	"botdesk/internal/permissions"
	"botdesk/internal/repository"
	"botdesk/internal/security"
	"botdesk/internal/service"
	"botdesk/internal/telegram"
	"botdesk/internal/tracing"
	"botdesk/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const passwordCost = 12

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.App, &logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	db, err := database.NewDB(cfg.Database, &logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	cipher, err := security.NewTokenCipher(cfg.Security)
	if err != nil {
		return fmt.Errorf("init token cipher: %w", err)
	}

	bus := events.NewEventBus()
	auditWriter := worker.NewAuditWriter(db, redisClient, worker.RetryPolicy{
		MaxRetries:    cfg.Audit.MaxRetries,
		InitialDelay:  cfg.Audit.InitialDelay,
		MaxDelay:      cfg.Audit.MaxDelay,
		BackoffFactor: cfg.Audit.BackoffFactor,
	}, cfg.Audit.QueueSize, &logger)
	auditWriter.Subscribe(bus)
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	auditWriter.Run(workerCtx)

	svc := buildServices(cfg, db, tokenStore(redisClient, &logger), cipher, bus, &logger)

	checks := map[string]api.HealthCheck{"database": db.Ping}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return repository.Ping(ctx, redisClient) }
	}
	httpServer := api.NewServer(cfg.API, cfg.Telegram, svc, checks, &logger)

	startMetrics(ctx, cfg, &logger)

	err = serve(ctx, httpServer, &logger)
	stopWorker()
	auditWriter.Wait()
	return err
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// tokenStore keeps one-time tokens in Redis when it is reachable and in
// process memory otherwise.
func tokenStore(client *redis.Client, logger *zerolog.Logger) domain.TokenStore {
	memory := repository.NewMemoryTokenStore()
	if client == nil {
		return memory
	}
	return repository.NewFailoverTokenStore(repository.NewRedisTokenStore(client), memory, logger)
}

func buildServices(
	cfg *config.Config,
	db *database.DB,
	store domain.TokenStore,
	cipher *security.TokenCipher,
	bus *events.EventBus,
	logger *zerolog.Logger,
) api.Services {
	access := service.NewAccess(permissions.NewChecker(nil))
	tg := telegram.NewClient(cfg.Telegram, nil, logger)
	jwt := security.NewTokenManager(cfg.Security.JWTSecret, cfg.App.Name, cfg.Security.JWTTTL)

	return api.Services{
		Auth: service.NewAuthService(db, security.NewPasswordHasher(passwordCost), jwt, store,
			service.NewLogNotifier(logger), cfg.Security, logger),
		Workspaces: service.NewWorkspaceService(db, access, bus, logger),
		Bots:       service.NewBotService(db, access, tg, cipher, bus, cfg.Telegram, logger),
		Webhooks:   service.NewWebhookService(db, logger),
		Chats:      service.NewChatService(db, access, tg, cipher, bus, logger),
		Broadcasts: service.NewBroadcastService(db, access, bus, logger),
		Audience:   service.NewAudienceService(db, access, bus, logger),
		Platform:   service.NewPlatformService(db, access, bus, logger),
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.Server, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Str("http_addr", httpServer.Addr()).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
