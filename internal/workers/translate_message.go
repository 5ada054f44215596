// Package workers holds the event-triggered translation workflow: stateless
// handlers invoked once per document-store event, idempotent against
// redelivery, never retried. A message's pipeline runs
//
//	message created -> translation request written -> request translated ->
//	translated mapping merged onto the message -> request deleted
//
// and any failure along the way is terminal for that one message, visible
// only through logs and metrics.
package workers

import (
	"context"
	"log"

	"github.com/babelchat/backend/internal/metrics"
	"github.com/babelchat/backend/internal/models"
	"github.com/babelchat/backend/internal/store"
)

// TranslateMessage reacts to message creation: it reads the owning
// session's language list and writes the translation request that the
// translation capability will fulfil.
type TranslateMessage struct {
	store store.Backend
}

func NewTranslateMessage(b store.Backend) *TranslateMessage {
	return &TranslateMessage{store: b}
}

// Register attaches the handler to the trigger surface.
func (w *TranslateMessage) Register(r *store.TriggerRunner) {
	r.OnCreate(models.MessagePattern, w.Handle)
}

// Handle processes one message-created event. Preconditions that fail
// (session unreadable, no language list) abort this message's pipeline with
// a log line and no request record: a silent partial failure whose only
// trace is translations never appearing. The request key is deterministic,
// so a redelivered event overwrites the same record instead of duplicating
// it.
func (w *TranslateMessage) Handle(ctx context.Context, ev store.TriggerEvent) {
	uid := ev.Params["uid"]
	sessionID := ev.Params["sessionId"]
	messageID := ev.Params["messageId"]
	text := store.StringField(ev.Fields, "text")

	sessDoc, err := w.store.Get(ctx, models.SessionPath(uid, sessionID))
	if err != nil {
		log.Printf("translate: cannot read session %s/%s for message %s: %v", uid, sessionID, messageID, err)
		metrics.WorkflowAborts.Inc()
		return
	}
	if sessDoc == nil {
		log.Printf("translate: session %s/%s missing for message %s", uid, sessionID, messageID)
		metrics.WorkflowAborts.Inc()
		return
	}
	languages := store.StringSliceField(sessDoc.Fields, "sessionLanguages")
	if len(languages) == 0 {
		log.Printf("translate: session %s/%s has no language list; dropping message %s", uid, sessionID, messageID)
		metrics.WorkflowAborts.Inc()
		return
	}

	key := models.TranslationKey(uid, sessionID, messageID)
	request := map[string]any{
		"input":     text,
		"uid":       uid,
		"sessionId": sessionID,
		"messageId": messageID,
		"languages": languages,
	}
	if err := w.store.Set(ctx, models.TranslationPath(key), request, false); err != nil {
		log.Printf("translate: failed to write request %s: %v", key, err)
		metrics.WorkflowAborts.Inc()
		return
	}
	metrics.TranslationsRequested.Inc()
}
