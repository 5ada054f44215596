package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/babelchat/backend/internal/auth"
	"github.com/babelchat/backend/internal/services"
)

// AuthHandler bridges the external identity provider to the user service:
// every successful verification is an authentication event that merges the
// user record into the store (subject to the write throttle).
type AuthHandler struct {
	Verifier auth.Verifier
	Users    *services.UserService
}

// SignInResponse is returned after a successful authentication event.
type SignInResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	User    *auth.User `json:"user,omitempty"`
}

// SignIn verifies the bearer token and upserts the user record.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if _, err := h.Users.StoreUser(r.Context(), *user); err != nil {
		writeJSON(w, http.StatusInternalServerError, SignInResponse{
			Success: false,
			Message: "failed to store user",
		})
		return
	}

	writeJSON(w, http.StatusOK, SignInResponse{Success: true, User: user})
}

// authenticate resolves the request's bearer token, writing the error
// response itself when verification fails.
func (h *AuthHandler) authenticate(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, SignInResponse{Success: false, Message: "missing token"})
		return nil, false
	}
	user, err := h.Verifier.Verify(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, SignInResponse{Success: false, Message: "invalid token"})
		return nil, false
	}
	return user, true
}

func extractBearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
