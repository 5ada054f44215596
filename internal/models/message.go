package models

import (
	"time"

	"github.com/babelchat/backend/internal/store"
)

// Message types. Admin notices are system-generated ("X joined the chat");
// user messages carry participant text.
const (
	MessageTypeUser  = "user"
	MessageTypeAdmin = "admin"
)

// Message is one entry in a session's message sequence. Translated is
// absent until the translation workflow completes; after that it maps each
// session language to the translated text. Only the workflow ever writes
// Translated.
type Message struct {
	ID         string            `json:"id"`
	Path       string            `json:"path"`
	Sender     string            `json:"sender,omitempty"`
	Type       string            `json:"type"`
	Text       string            `json:"text"`
	Language   string            `json:"language"`
	Translated map[string]string `json:"translated,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// MessageFromDocument decodes a stored message.
func MessageFromDocument(doc *store.Document) Message {
	if doc == nil {
		return Message{}
	}
	f := doc.Fields
	return Message{
		ID:         doc.ID,
		Path:       doc.Path,
		Sender:     store.StringField(f, "sender"),
		Type:       store.StringField(f, "type"),
		Text:       store.StringField(f, "text"),
		Language:   store.StringField(f, "language"),
		Translated: store.StringMapField(f, "translated"),
		CreatedAt:  store.TimeField(f, "createdAt"),
		UpdatedAt:  store.TimeField(f, "updatedAt"),
	}
}
