package models

import "fmt"

// Trigger path patterns for the change-notification surface.
const (
	MessagePattern     = "users/{uid}/sessions/{sessionId}/messages/{messageId}"
	TranslationPattern = "translations/{translationId}"
)

// UserPath addresses a user's identity record.
func UserPath(uid string) string {
	return "users/" + uid
}

// SessionsPath addresses a user's session collection.
func SessionsPath(uid string) string {
	return UserPath(uid) + "/sessions"
}

// SessionPath addresses one conversation container.
func SessionPath(uid, sessionID string) string {
	return fmt.Sprintf("users/%s/sessions/%s", uid, sessionID)
}

// MessagesPath addresses a session's message collection.
func MessagesPath(uid, sessionID string) string {
	return SessionPath(uid, sessionID) + "/messages"
}

// MessagePath addresses one message.
func MessagePath(uid, sessionID, messageID string) string {
	return MessagesPath(uid, sessionID) + "/" + messageID
}

// TranslationKey is the deterministic id of a message's translation
// request. Redelivered creation events for the same message collapse onto
// the same record instead of duplicating it.
func TranslationKey(uid, sessionID, messageID string) string {
	return fmt.Sprintf("%s_%s_%s", uid, sessionID, messageID)
}

// TranslationPath addresses a translation request record.
func TranslationPath(key string) string {
	return "translations/" + key
}
