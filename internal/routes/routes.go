package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/babelchat/backend/internal/handlers"
)

// Handlers collects the route targets; main wires them from explicit
// dependencies.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Sessions *handlers.SessionHandler
	Chat     *handlers.ChatHandler
	Stream   *handlers.ChatStreamHandler
}

func SetupRoutes(r *chi.Mux, h Handlers) {
	// Auth event: verifies the token and merges the user record
	r.Post("/api/auth/signin", h.Auth.SignIn)

	// Session lifecycle and participant registration
	r.Post("/api/sessions", h.Sessions.CreateSession)
	r.Post("/api/sessions/register", h.Sessions.Register)
	r.Post("/api/sessions/leave", h.Sessions.Leave)

	// Messages: send, paginated history, bulk reset
	r.Post("/api/messages", h.Chat.SendMessage)
	r.Get("/api/messages", h.Chat.History)
	r.Delete("/api/messages", h.Chat.Reset)

	// Live message snapshots over WebSocket
	r.Get("/ws/messages", h.Stream.Stream)
}
