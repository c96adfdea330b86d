package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"botdesk/internal/config"
	"botdesk/internal/logging"
	"botdesk/internal/service"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodyBytes = 1 << 20

// Services are the use cases the HTTP layer dispatches to.
type Services struct {
	Auth       *service.AuthService
	Workspaces *service.WorkspaceService
	Bots       *service.BotService
	Webhooks   *service.WebhookService
	Chats      *service.ChatService
	Broadcasts *service.BroadcastService
	Audience   *service.AudienceService
	Platform   *service.PlatformService
}

// HealthCheck reports the state of one dependency.
type HealthCheck func(ctx context.Context) error

type Server struct {
	cfg      config.APIConfig
	telegram config.TelegramConfig
	svc      Services
	checks   map[string]HealthCheck
	limiter  *rateLimiter
	mux      *http.ServeMux
	server   *http.Server
	logger   zerolog.Logger
}

func NewServer(cfg config.APIConfig, tgCfg config.TelegramConfig, svc Services, checks map[string]HealthCheck, logger *zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		telegram: tgCfg,
		svc:      svc,
		checks:   checks,
		limiter:  newRateLimiter(cfg.RateLimit),
		mux:      http.NewServeMux(),
		logger:   logging.Component(logger, "http"),
	}
	s.routes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	auth := s.limited
	s.mux.HandleFunc("POST /auth/register", auth(s.handleRegister))
	s.mux.HandleFunc("POST /auth/login", auth(s.handleLogin))
	s.mux.HandleFunc("POST /auth/verify", auth(s.handleVerify))
	s.mux.HandleFunc("POST /auth/resend-verification", auth(s.handleResendVerification))
	s.mux.HandleFunc("POST /auth/password-reset", auth(s.handlePasswordReset))
	s.mux.HandleFunc("POST /auth/password-reset/confirm", auth(s.handlePasswordResetConfirm))
	s.mux.HandleFunc("GET /auth/me", s.authenticated(s.handleMe))

	s.mux.HandleFunc("POST /workspaces", s.authenticated(s.handleCreateWorkspace))
	s.mux.HandleFunc("GET /workspaces/bots", s.authenticated(s.handleListWorkspaceBots))
	s.mux.HandleFunc("GET /workspaces/members", s.authenticated(s.handleListWorkspaceMembers))

	s.mux.HandleFunc("POST /bots", s.authenticated(s.handleCreateBot))
	s.mux.HandleFunc("GET /bots/{bot_id}", s.authenticated(s.handleGetBot))
	s.mux.HandleFunc("DELETE /bots/{bot_id}", s.authenticated(s.handleDeleteBot))
	s.mux.HandleFunc("POST /bots/{bot_id}/roles", s.authenticated(s.handleAssignBotRole))
	s.mux.HandleFunc("POST /bots/{bot_id}/webhook", s.authenticated(s.handleRegisterWebhook))

	s.mux.HandleFunc("GET /bots/{bot_id}/chats", s.authenticated(s.handleListChats))
	s.mux.HandleFunc("GET /bots/{bot_id}/chats/{chat_id}/messages", s.authenticated(s.handleListMessages))
	s.mux.HandleFunc("POST /bots/{bot_id}/chats/{chat_id}/messages", s.authenticated(s.handleSendMessage))

	s.mux.HandleFunc("GET /bots/{bot_id}/broadcasts", s.authenticated(s.handleListBroadcasts))
	s.mux.HandleFunc("POST /bots/{bot_id}/broadcasts", s.authenticated(s.handleCreateBroadcast))
	s.mux.HandleFunc("POST /bots/{bot_id}/broadcasts/{broadcast_id}/cancel", s.authenticated(s.handleCancelBroadcast))

	s.mux.HandleFunc("GET /bots/{bot_id}/audience", s.authenticated(s.handleListAudience))
	s.mux.HandleFunc("GET /bots/{bot_id}/audience/export", s.authenticated(s.handleExportAudience))

	s.mux.HandleFunc("GET /admin/audit-logs", s.authenticated(s.handleListAuditLogs))
	s.mux.HandleFunc("GET /admin/workspaces", s.authenticated(s.handleListAllWorkspaces))
	s.mux.HandleFunc("POST /admin/users/{user_id}/block", s.authenticated(s.handleBlockUser))
	s.mux.HandleFunc("POST /admin/users/{user_id}/unblock", s.authenticated(s.handleUnblockUser))

	s.mux.HandleFunc("POST /webhook/{token_hash}", s.handleWebhook)
	s.mux.HandleFunc("POST /webhook/{token_hash}/bot-message", s.handleBotMessage)

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the full middleware chain around the router.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.observe(h)
	h = s.cors(h)
	h = s.recoverer(h)
	h = s.requestLogger(h)
	return otelhttp.NewHandler(h, "botdesk.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + s.route(r)
		}),
	)
}

func (s *Server) Addr() string {
	return s.server.Addr
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = err.Error()
			continue
		}
		report[name] = "ok"
	}
	writeJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": report})
}
