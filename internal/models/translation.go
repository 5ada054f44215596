package models

import (
	"github.com/babelchat/backend/internal/store"
)

// TranslationRequest is the ephemeral work ticket between message creation
// and translation completion. It is keyed {uid}_{sessionId}_{messageId} and
// deleted once its Translated mapping has been merged onto the message.
// It is a queue entry, not durable state.
type TranslationRequest struct {
	ID         string            `json:"id"`
	Input      string            `json:"input"`
	UID        string            `json:"uid"`
	SessionID  string            `json:"sessionId"`
	MessageID  string            `json:"messageId"`
	Languages  []string          `json:"languages"`
	Translated map[string]string `json:"translated,omitempty"`
}

// TranslationRequestFromFields decodes a request from raw fields, which may
// have round-tripped through the change bus.
func TranslationRequestFromFields(id string, f map[string]any) TranslationRequest {
	return TranslationRequest{
		ID:         id,
		Input:      store.StringField(f, "input"),
		UID:        store.StringField(f, "uid"),
		SessionID:  store.StringField(f, "sessionId"),
		MessageID:  store.StringField(f, "messageId"),
		Languages:  store.StringSliceField(f, "languages"),
		Translated: store.StringMapField(f, "translated"),
	}
}

// MessagePath returns the path of the message this request belongs to.
func (r TranslationRequest) MessagePath() string {
	return MessagePath(r.UID, r.SessionID, r.MessageID)
}
