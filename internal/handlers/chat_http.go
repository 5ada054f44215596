package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/babelchat/backend/internal/models"
	"github.com/babelchat/backend/internal/services"
)

// ChatHandler exposes the message operations over HTTP. The live view of
// the same data is ChatWebSocket.
type ChatHandler struct {
	Chat *services.ChatService
}

// SendMessageRequest posts one participant message to a session.
type SendMessageRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Language  string `json:"language"`
}

type SendMessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
}

// HistoryResponse returns paginated messages, newest first.
type HistoryResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message,omitempty"`
	Messages []models.Message `json:"messages"`
}

type ResetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Removed int    `json:"removed"`
}

// SendMessage appends a message; translations arrive asynchronously.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, SendMessageResponse{Success: false, Message: "invalid request body"})
		return
	}
	if req.UserID == "" || req.SessionID == "" || req.Text == "" || req.Language == "" {
		writeJSON(w, http.StatusBadRequest, SendMessageResponse{Success: false, Message: "user_id, session_id, text and language are required"})
		return
	}

	path, err := h.Chat.SendMessage(r.Context(), req.UserID, req.SessionID, req.Sender, req.Text, req.Language)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, SendMessageResponse{Success: false, Message: "failed to send message"})
		return
	}
	writeJSON(w, http.StatusOK, SendMessageResponse{Success: true, Path: path})
}

// History loads messages for a session.
// Query params:
//
//	user    (required) owner uid
//	session (required) session id
//	before  (optional RFC3339 createdAt cursor for pagination)
//	limit   (optional, default 50, max 100)
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("user")
	sessionID := r.URL.Query().Get("session")
	if uid == "" || sessionID == "" {
		writeJSON(w, http.StatusBadRequest, HistoryResponse{Success: false, Message: "user and session are required"})
		return
	}

	limit := 50
	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if parsed, err := strconv.Atoi(lStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var before any
	if bStr := r.URL.Query().Get("before"); bStr != "" {
		if t, err := time.Parse(time.RFC3339, bStr); err == nil {
			before = t
		}
	}

	msgs, err := h.Chat.History(r.Context(), uid, sessionID, limit, before)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, HistoryResponse{Success: false, Message: "failed to load messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Success: true, Messages: msgs})
}

// Reset bulk-deletes every message currently in the session.
func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("user")
	sessionID := r.URL.Query().Get("session")
	if uid == "" || sessionID == "" {
		writeJSON(w, http.StatusBadRequest, ResetResponse{Success: false, Message: "user and session are required"})
		return
	}

	removed, err := h.Chat.ClearChat(r.Context(), uid, sessionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ResetResponse{Success: false, Message: "failed to reset chat", Removed: removed})
		return
	}
	writeJSON(w, http.StatusOK, ResetResponse{Success: true, Removed: removed})
}
