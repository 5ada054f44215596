package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/babelchat/backend/internal/models"
	"github.com/babelchat/backend/internal/services"
	"github.com/babelchat/backend/internal/store"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// ChatStreamHandler streams live message snapshots over WebSocket: a
// client connects for one session and receives the full, newest-first
// message list every time anything in it changes. Snapshots replace each
// other wholesale; the client never patches.
type ChatStreamHandler struct {
	Subscriber *store.Subscriber
}

// MessagesEvent is one delivery to the client.
type MessagesEvent struct {
	Type     string           `json:"type"` // "snapshot" or "error"
	Messages []models.Message `json:"messages,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Stream handles GET /ws/messages?user=...&session=....
func (h *ChatStreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("user")
	sessionID := r.URL.Query().Get("session")
	if uid == "" || sessionID == "" {
		http.Error(w, "user and session are required", http.StatusBadRequest)
		return
	}

	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := h.Subscriber.Collection(r.Context(), services.MessagesQuery(uid, sessionID), true)
	defer sub.Unsubscribe()

	// Reader loop only notices the client going away; no inbound protocol.
	go func() {
		defer sub.Unsubscribe()
		conn.SetReadLimit(1024)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for snap := range sub.C {
		ev := MessagesEvent{Type: "snapshot"}
		if snap.Err != nil {
			ev = MessagesEvent{Type: "error", Error: "query failed"}
		} else {
			msgs := make([]models.Message, 0, len(snap.Docs))
			for i := range snap.Docs {
				msgs = append(msgs, models.MessageFromDocument(&snap.Docs[i]))
			}
			ev.Messages = msgs
		}
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}
