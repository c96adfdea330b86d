package api

import (
	"net/http"

	"botdesk/internal/models"
	"botdesk/internal/service"
)

type botView struct {
	*models.Bot
	Role models.BotRole `json:"role,omitempty"`
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request, user *models.User) {
	var in service.CreateWorkspaceInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	ws, err := s.svc.Workspaces.Create(r.Context(), user, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

func (s *Server) handleListWorkspaceBots(w http.ResponseWriter, r *http.Request, user *models.User) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bots, err := s.svc.Workspaces.ListBots(r.Context(), user, workspaceID(r), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bots)
}

func (s *Server) handleListWorkspaceMembers(w http.ResponseWriter, r *http.Request, user *models.User) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	members, err := s.svc.Workspaces.ListMembers(r.Context(), user, workspaceID(r), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleCreateBot(w http.ResponseWriter, r *http.Request, user *models.User) {
	var in service.CreateBotInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	bot, err := s.svc.Bots.Create(r.Context(), user, workspaceID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, botView{Bot: bot})
}

func (s *Server) handleGetBot(w http.ResponseWriter, r *http.Request, user *models.User) {
	botID, err := pathUUID(r, "bot_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	bot, role, err := s.svc.Bots.Get(r.Context(), user, botID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, botView{Bot: bot, Role: role})
}

func (s *Server) handleDeleteBot(w http.ResponseWriter, r *http.Request, user *models.User) {
	botID, err := pathUUID(r, "bot_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Bots.Delete(r.Context(), user, workspaceID(r), botID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAssignBotRole(w http.ResponseWriter, r *http.Request, user *models.User) {
	botID, err := pathUUID(r, "bot_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.AssignBotRoleInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	row, err := s.svc.Bots.AssignRole(r.Context(), user, botID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleRegisterWebhook(w http.ResponseWriter, r *http.Request, user *models.User) {
	botID, err := pathUUID(r, "bot_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.RegisterWebhookInput
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
	}
	url, err := s.svc.Bots.RegisterWebhook(r.Context(), user, botID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"webhook_url": url})
}
