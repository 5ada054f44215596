package models

import (
	"time"

	"github.com/babelchat/backend/internal/store"
)

// User is the identity record merged into the store on every successful
// authentication event. It is never deleted by this subsystem.
type User struct {
	UID            string    `json:"uid"`
	DisplayName    string    `json:"displayName,omitempty"`
	Email          string    `json:"email,omitempty"`
	EmailLowercase string    `json:"emailLowercase,omitempty"`
	EmailDomain    string    `json:"emailDomain,omitempty"`
	PhotoURL       string    `json:"photoURL,omitempty"`
	PhoneNumber    string    `json:"phoneNumber,omitempty"`
	IsAnonymous    bool      `json:"isAnonymous"`
	CreationTime   time.Time `json:"creationTime,omitempty"`
	LastSignInTime time.Time `json:"lastSignInTime,omitempty"`
}

// UserFromDocument decodes a stored user record.
func UserFromDocument(doc *store.Document) User {
	if doc == nil {
		return User{}
	}
	f := doc.Fields
	return User{
		UID:            doc.ID,
		DisplayName:    store.StringField(f, "displayName"),
		Email:          store.StringField(f, "email"),
		EmailLowercase: store.StringField(f, "emailLowercase"),
		EmailDomain:    store.StringField(f, "emailDomain"),
		PhotoURL:       store.StringField(f, "photoURL"),
		PhoneNumber:    store.StringField(f, "phoneNumber"),
		IsAnonymous:    store.BoolField(f, "isAnonymous"),
		CreationTime:   store.TimeField(f, "creationTime"),
		LastSignInTime: store.TimeField(f, "lastSignInTime"),
	}
}
