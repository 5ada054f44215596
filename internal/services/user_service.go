package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/babelchat/backend/internal/auth"
	"github.com/babelchat/backend/internal/models"
	"github.com/babelchat/backend/internal/store"
)

// signInDrift is how far lastSignInTime may drift from the stored value
// before a sign-in alone is worth a write.
const signInDrift = time.Hour

// UserService maintains identity records in the store.
type UserService struct {
	store store.Backend
}

func NewUserService(b store.Backend) *UserService {
	return &UserService{store: b}
}

// StoreUser merges an authenticated user into the store. To bound write
// volume it skips the write when nothing observable changed: name, email
// and photo are identical and lastSignInTime drifted no more than an hour
// from the stored value. Returns the record as it was before the merge.
func (s *UserService) StoreUser(ctx context.Context, u auth.User) (models.User, error) {
	if u.UID == "" {
		return models.User{}, fmt.Errorf("store user: missing uid")
	}
	path := models.UserPath(u.UID)

	doc, err := s.store.Get(ctx, path)
	if err != nil {
		return models.User{}, fmt.Errorf("store user %s: %w", u.UID, err)
	}
	stored := models.UserFromDocument(doc)

	drift := stored.LastSignInTime.Sub(u.LastSignInTime)
	if drift < 0 {
		drift = -drift
	}
	unchanged := doc != nil &&
		u.DisplayName == stored.DisplayName &&
		u.Email == stored.Email &&
		u.PhotoURL == stored.PhotoURL &&
		drift <= signInDrift
	if unchanged {
		return stored, nil
	}

	fields := map[string]any{
		"uid":         u.UID,
		"isAnonymous": u.IsAnonymous,
	}
	if u.DisplayName != "" {
		fields["displayName"] = u.DisplayName
	}
	if u.Email != "" {
		fields["email"] = u.Email
		fields["emailLowercase"] = strings.ToLower(u.Email)
		if _, domain, found := strings.Cut(u.Email, "@"); found {
			fields["emailDomain"] = domain
		}
	}
	if u.PhotoURL != "" {
		fields["photoURL"] = u.PhotoURL
	}
	if u.PhoneNumber != "" {
		fields["phoneNumber"] = u.PhoneNumber
	}
	if !u.CreationTime.IsZero() {
		fields["creationTime"] = u.CreationTime.UTC()
	}
	if !u.LastSignInTime.IsZero() {
		fields["lastSignInTime"] = u.LastSignInTime.UTC()
	}

	if err := s.store.Set(ctx, path, fields, true); err != nil {
		return models.User{}, fmt.Errorf("store user %s: %w", u.UID, err)
	}
	return stored, nil
}
