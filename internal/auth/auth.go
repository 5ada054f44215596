// Package auth is the boundary to the external sign-in provider. The
// provider flows themselves (password, social) are out of scope; this
// package only defines the authenticated-user shape handed to the rest of
// the system and the token-verification capability the HTTP layer consumes.
package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// User is what a successful authentication event yields.
type User struct {
	UID            string    `json:"uid"`
	DisplayName    string    `json:"displayName,omitempty"`
	Email          string    `json:"email,omitempty"`
	PhotoURL       string    `json:"photoURL,omitempty"`
	PhoneNumber    string    `json:"phoneNumber,omitempty"`
	IsAnonymous    bool      `json:"isAnonymous"`
	CreationTime   time.Time `json:"creationTime"`
	LastSignInTime time.Time `json:"lastSignInTime"`
}

// Verifier resolves a bearer token to an authenticated user. The production
// implementation belongs to the identity provider; it is passed in as an
// explicit handle at process start.
type Verifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

// DevVerifier accepts tokens of the form "dev:<uid>[:<display name>]" and
// mints anonymous-ish users from them. Development only.
type DevVerifier struct {
	mu    sync.Mutex
	seen  map[string]time.Time // uid -> first-seen, stands in for creation time
	clock func() time.Time
}

func NewDevVerifier() *DevVerifier {
	return &DevVerifier{seen: map[string]time.Time{}, clock: time.Now}
}

func (v *DevVerifier) Verify(_ context.Context, token string) (*User, error) {
	parts := strings.SplitN(token, ":", 3)
	if len(parts) < 2 || parts[0] != "dev" || parts[1] == "" {
		return nil, fmt.Errorf("unrecognized token")
	}
	uid := parts[1]
	name := ""
	if len(parts) == 3 {
		name = parts[2]
	}

	now := v.clock().UTC()
	v.mu.Lock()
	created, ok := v.seen[uid]
	if !ok {
		created = now
		v.seen[uid] = created
	}
	v.mu.Unlock()

	return &User{
		UID:            uid,
		DisplayName:    name,
		IsAnonymous:    name == "",
		CreationTime:   created,
		LastSignInTime: now,
	}, nil
}
