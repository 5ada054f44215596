package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/babelchat/backend/internal/models"
	"github.com/babelchat/backend/internal/services"
)

// SessionHandler exposes session creation and the participant registration
// flow.
type SessionHandler struct {
	Auth     *AuthHandler
	Sessions *services.SessionService
}

// CreateSessionRequest creates a conversation under the caller's namespace.
type CreateSessionRequest struct {
	Language string `json:"language"`
}

type CreateSessionResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// RegisterRequest registers a (possibly anonymous) participant into an
// existing session.
type RegisterRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Language  string `json:"language"`
}

type RegisterResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Session *models.Session `json:"session,omitempty"`
}

// CreateSession opens a new session owned by the authenticated user.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	user, ok := h.Auth.authenticate(w, r)
	if !ok {
		return
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, CreateSessionResponse{Success: false, Message: "invalid request body"})
		return
	}
	if req.Language == "" {
		req.Language = "en"
	}

	owner := models.User{UID: user.UID, DisplayName: user.DisplayName, Email: user.Email}
	id, err := h.Sessions.Create(r.Context(), user.UID, owner, req.Language)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, CreateSessionResponse{Success: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, CreateSessionResponse{Success: true, SessionID: id})
}

// Register adds a participant: the session grows their language if it is
// new, and a join notice lands in the message stream.
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, RegisterResponse{Success: false, Message: "invalid request body"})
		return
	}
	if req.UserID == "" || req.SessionID == "" || req.Name == "" || req.Language == "" {
		writeJSON(w, http.StatusBadRequest, RegisterResponse{Success: false, Message: "user_id, session_id, name and language are required"})
		return
	}

	if err := h.Sessions.RegisterParticipant(r.Context(), req.UserID, req.SessionID, req.Name, req.Language); err != nil {
		writeJSON(w, http.StatusBadRequest, RegisterResponse{Success: false, Message: err.Error()})
		return
	}

	sess, err := h.Sessions.Get(r.Context(), req.UserID, req.SessionID)
	if err != nil {
		writeJSON(w, http.StatusOK, RegisterResponse{Success: true})
		return
	}
	writeJSON(w, http.StatusOK, RegisterResponse{Success: true, Session: &sess})
}

// Leave posts the departure notice for a participant.
func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, RegisterResponse{Success: false, Message: "invalid request body"})
		return
	}
	if req.UserID == "" || req.SessionID == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, RegisterResponse{Success: false, Message: "user_id, session_id and name are required"})
		return
	}
	if err := h.Sessions.Leave(r.Context(), req.UserID, req.SessionID, req.Name); err != nil {
		writeJSON(w, http.StatusInternalServerError, RegisterResponse{Success: false, Message: "failed to post leave notice"})
		return
	}
	writeJSON(w, http.StatusOK, RegisterResponse{Success: true})
}
