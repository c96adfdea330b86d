package api

import (
	"fmt"
	"net/http"
	"strconv"

	"botdesk/internal/models"
	"botdesk/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request, user *models.User) {
	botID, err := pathUUID(r, "bot_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	chats, err := s.svc.Chats.ListChats(r.Context(), user, botID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request, user *models.User) {
	botID, err := pathUUID(r, "bot_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	chatID, err := pathUUID(r, "chat_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	messages, err := s.svc.Chats.ListMessages(r.Context(), user, botID, chatID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, user *models.User) {
	botID, err := pathUUID(r, "bot_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	chatID, err := pathUUID(r, "chat_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.SendMessageInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := s.svc.Chats.SendMessage(r.Context(), user, botID, chatID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleListBroadcasts(w http.ResponseWriter, r *http.Request, user *models.User) {
	botID, err := pathUUID(r, "bot_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	broadcasts, err := s.svc.Broadcasts.List(r.Context(), user, botID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, broadcasts)
}

func (s *Server) handleCreateBroadcast(w http.ResponseWriter, r *http.Request, user *models.User) {
	botID, err := pathUUID(r, "bot_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.CreateBroadcastInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	broadcast, err := s.svc.Broadcasts.Create(r.Context(), user, botID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, broadcast)
}

func (s *Server) handleCancelBroadcast(w http.ResponseWriter, r *http.Request, user *models.User) {
	botID, err := pathUUID(r, "bot_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	broadcastID, err := pathUUID(r, "broadcast_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	broadcast, err := s.svc.Broadcasts.Cancel(r.Context(), user, botID, broadcastID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, broadcast)
}

func (s *Server) handleListAudience(w http.ResponseWriter, r *http.Request, user *models.User) {
	botID, err := pathUUID(r, "bot_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	users, total, err := s.svc.Audience.List(r.Context(), user, botID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleExportAudience(w http.ResponseWriter, r *http.Request, user *models.User) {
	botID, err := pathUUID(r, "bot_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, fileName, err := s.svc.Audience.Export(r.Context(), user, botID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
