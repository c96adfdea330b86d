package api

import (
	"context"
	"net/http"

	"botdesk/internal/models"
	"botdesk/internal/service"

	"github.com/google/uuid"
)

func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request, user *models.User) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter := service.AuditLogFilter{ActionType: r.URL.Query().Get("action_type")}
	if filter.AdminID, err = queryUUID(r, "admin_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.BotID, err = queryUUID(r, "bot_id"); err != nil {
		writeError(w, r, err)
		return
	}
	logs, err := s.svc.Platform.ListAuditLogs(r.Context(), user, filter, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleListAllWorkspaces(w http.ResponseWriter, r *http.Request, user *models.User) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	workspaces, err := s.svc.Platform.ListWorkspaces(r.Context(), user, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workspaces)
}

func (s *Server) handleBlockUser(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.setUserActive(w, r, user, s.svc.Platform.BlockUser)
}

func (s *Server) handleUnblockUser(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.setUserActive(w, r, user, s.svc.Platform.UnblockUser)
}

func (s *Server) setUserActive(
	w http.ResponseWriter,
	r *http.Request,
	user *models.User,
	apply func(ctx context.Context, actor *models.User, userID uuid.UUID) error,
) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := apply(r.Context(), user, userID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
