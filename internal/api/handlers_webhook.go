package api

import (
	"net/http"

	"botdesk/internal/domain"
	"botdesk/internal/service"
	"botdesk/internal/telegram"
)

// handleWebhook ingests a Telegram update. When a webhook secret is
// configured the request must carry it.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.telegram.WebhookSecret != "" && !secretMatches(s.telegram.WebhookSecret, r.Header.Get(telegramSecretHeader)) {
		writeError(w, r, domain.Unauthorized("invalid webhook secret"))
		return
	}
	var update telegram.Update
	if err := decodeWebhook(w, r, &update); err != nil {
		writeError(w, r, err)
		return
	}
	outcome, err := s.svc.Webhooks.HandleWebhook(r.Context(), r.PathValue("token_hash"), &update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "outcome": outcome})
}

// handleBotMessage logs a message the bot sent itself. Only trusted internal
// callers holding the internal key may use it.
func (s *Server) handleBotMessage(w http.ResponseWriter, r *http.Request) {
	if s.cfg.InternalKey == "" || !secretMatches(s.cfg.InternalKey, r.Header.Get(internalKeyHeader)) {
		writeError(w, r, domain.Unauthorized("invalid internal key"))
		return
	}
	var in service.BotMessageInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	outcome, err := s.svc.Webhooks.LogBotMessage(r.Context(), r.PathValue("token_hash"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if outcome != service.OutcomeStored {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{"ok": true, "outcome": outcome})
}
