package services

import (
	"context"
	"fmt"
	"log"

	"github.com/babelchat/backend/internal/binding"
	"github.com/babelchat/backend/internal/models"
	"github.com/babelchat/backend/internal/store"
	"github.com/babelchat/backend/pkg/langcode"
)

// SessionService owns conversation containers and the participant
// registration flow.
type SessionService struct {
	store store.Backend
	chat  *ChatService
}

func NewSessionService(b store.Backend, chat *ChatService) *SessionService {
	return &SessionService{store: b, chat: chat}
}

// Create opens a new session under the owner's namespace, seeded with the
// owner's language. Returns the new session id.
func (s *SessionService) Create(ctx context.Context, uid string, owner models.User, language string) (string, error) {
	lang, err := langcode.Normalize(language)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	col := binding.NewCollection(s.store, store.NewQuery(models.SessionsPath(uid)).WithLimit(0))
	path, err := col.Add(ctx, map[string]any{
		"displayName":      owner.DisplayName,
		"email":            owner.Email,
		"sessionLanguages": []string{lang},
	})
	if err != nil {
		return "", fmt.Errorf("create session for %s: %w", uid, err)
	}
	return store.DocID(path), nil
}

// Get loads a session.
func (s *SessionService) Get(ctx context.Context, uid, sessionID string) (models.Session, error) {
	doc, err := s.store.Get(ctx, models.SessionPath(uid, sessionID))
	if err != nil {
		return models.Session{}, fmt.Errorf("get session %s/%s: %w", uid, sessionID, err)
	}
	if doc == nil {
		return models.Session{}, fmt.Errorf("session %s/%s not found", uid, sessionID)
	}
	return models.SessionFromDocument(doc), nil
}

// RegisterParticipant records a participant joining: if their language is
// new to the session it is appended to sessionLanguages (the whole array is
// replaced, never merged, so two concurrent registrations converge on one
// of the two appends), and an admin notice is posted either way.
//
// Two participants registering the same previously-unseen language at the
// same time can both read the old list and both append; that is an accepted
// eventually-consistent corner, not something this flow serializes.
func (s *SessionService) RegisterParticipant(ctx context.Context, uid, sessionID, name, language string) error {
	if name == "" {
		return fmt.Errorf("register participant: empty name")
	}
	lang, err := langcode.Normalize(language)
	if err != nil {
		return fmt.Errorf("register participant: %w", err)
	}

	sess, err := s.Get(ctx, uid, sessionID)
	if err != nil {
		return fmt.Errorf("register participant: %w", err)
	}

	if !langcode.Contains(sess.SessionLanguages, lang) {
		doc := binding.NewDocument(s.store, sess.Path)
		langs := append(append([]string{}, sess.SessionLanguages...), lang)
		if err := doc.Update(ctx, map[string]any{"sessionLanguages": langs}); err != nil {
			return fmt.Errorf("register participant: %w", err)
		}
	}

	if _, err := s.chat.AdminMessage(ctx, uid, sessionID, name+" joined the chat"); err != nil {
		// The participant is registered either way; the missing notice is
		// only cosmetic.
		log.Printf("failed to post join notice for %s in %s/%s: %v", name, uid, sessionID, err)
	}
	return nil
}

// Leave posts the departure notice for a participant.
func (s *SessionService) Leave(ctx context.Context, uid, sessionID, name string) error {
	_, err := s.chat.AdminMessage(ctx, uid, sessionID, name+" left the chat")
	return err
}
