package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/babelchat/backend/internal/binding"
	"github.com/babelchat/backend/internal/models"
	"github.com/babelchat/backend/internal/store"
)

// ChatService implements the message operations a participant can take:
// send, post an admin notice, page through history, reset the chat.
type ChatService struct {
	store store.Backend
}

func NewChatService(b store.Backend) *ChatService {
	return &ChatService{store: b}
}

// MessagesQuery is the canonical message ordering: newest first by
// createdAt, the way the chat renders it.
func MessagesQuery(uid, sessionID string) store.Query {
	return store.NewQuery(models.MessagesPath(uid, sessionID)).OrderedBy("createdAt", true)
}

func (s *ChatService) collection(uid, sessionID string) *binding.Collection {
	// Limit 0: a pure write handle; sending never incurs a read.
	return binding.NewCollection(s.store, MessagesQuery(uid, sessionID).WithLimit(0))
}

// SendMessage appends a participant message. Translation happens
// asynchronously; the message becomes fully readable per language as the
// workflow attaches translations.
func (s *ChatService) SendMessage(ctx context.Context, uid, sessionID, sender, text, language string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("send message: empty text")
	}
	return s.collection(uid, sessionID).Add(ctx, map[string]any{
		"sender":   sender,
		"type":     models.MessageTypeUser,
		"text":     text,
		"language": language,
	})
}

// AdminMessage appends a system notice ("X joined the chat"). Notices are
// authored in English and translated like any other message.
func (s *ChatService) AdminMessage(ctx context.Context, uid, sessionID, text string) (string, error) {
	return s.collection(uid, sessionID).Add(ctx, map[string]any{
		"type":     models.MessageTypeAdmin,
		"text":     text,
		"language": "en",
	})
}

// History returns messages newest-first. A zero or negative limit means
// everything; before paginates with the createdAt of the last message seen
// (its value acts as the opaque start-after marker).
func (s *ChatService) History(ctx context.Context, uid, sessionID string, limit int, before any) ([]models.Message, error) {
	q := MessagesQuery(uid, sessionID)
	if limit > 0 {
		q = q.WithLimit(limit)
	}
	if before != nil {
		q = q.After(before)
	}
	docs, err := s.store.RunQuery(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load messages %s/%s: %w", uid, sessionID, err)
	}
	msgs := make([]models.Message, 0, len(docs))
	for i := range docs {
		msgs = append(msgs, models.MessageFromDocument(&docs[i]))
	}
	return msgs, nil
}

// ClearChat deletes every currently-loaded message, one by one. A
// translation landing mid-reset may find its message gone; that request
// stays stranded and surfaces in the workflow's logs and metrics.
func (s *ChatService) ClearChat(ctx context.Context, uid, sessionID string) (int, error) {
	docs, err := s.store.RunQuery(ctx, MessagesQuery(uid, sessionID))
	if err != nil {
		return 0, fmt.Errorf("clear chat %s/%s: %w", uid, sessionID, err)
	}
	col := s.collection(uid, sessionID)
	removed := 0
	for _, doc := range docs {
		if err := col.Remove(ctx, doc.Path); err != nil {
			return removed, fmt.Errorf("clear chat %s/%s: %w", uid, sessionID, err)
		}
		removed++
	}
	return removed, nil
}
