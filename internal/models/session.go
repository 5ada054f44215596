package models

import (
	"time"

	"github.com/babelchat/backend/internal/store"
)

// Session is a conversation container owned by one user. SessionLanguages
// is the ordered set of language codes currently represented among the
// participants; a new code is appended when a participant registers with a
// previously-unseen language.
type Session struct {
	ID               string    `json:"id"`
	Path             string    `json:"path"`
	DisplayName      string    `json:"displayName,omitempty"`
	Email            string    `json:"email,omitempty"`
	SessionLanguages []string  `json:"sessionLanguages"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// SessionFromDocument decodes a stored session.
func SessionFromDocument(doc *store.Document) Session {
	if doc == nil {
		return Session{}
	}
	f := doc.Fields
	return Session{
		ID:               doc.ID,
		Path:             doc.Path,
		DisplayName:      store.StringField(f, "displayName"),
		Email:            store.StringField(f, "email"),
		SessionLanguages: store.StringSliceField(f, "sessionLanguages"),
		CreatedAt:        store.TimeField(f, "createdAt"),
		UpdatedAt:        store.TimeField(f, "updatedAt"),
	}
}
