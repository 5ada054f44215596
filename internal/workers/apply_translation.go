package workers

import (
	"context"
	"log"

	"github.com/babelchat/backend/internal/metrics"
	"github.com/babelchat/backend/internal/models"
	"github.com/babelchat/backend/internal/store"
)

// ApplyTranslation reacts to a translation request gaining its translated
// mapping: it merges the mapping onto the original message and deletes the
// request.
type ApplyTranslation struct {
	store store.Backend
}

func NewApplyTranslation(b store.Backend) *ApplyTranslation {
	return &ApplyTranslation{store: b}
}

func (w *ApplyTranslation) Register(r *store.TriggerRunner) {
	r.OnUpdate(models.TranslationPattern, w.Handle)
}

// Handle processes one request-updated event. Updates without a translated
// mapping yet are ignored. The merge write touches only the translated
// field, so it cannot disturb the rest of the message, and merging the same
// mapping twice is a no-op, so redelivery is safe. If the message is gone
// (deleted by a reset mid-flight) the request is left behind: an accepted
// stranded-record leak, logged and counted, never auto-retried.
func (w *ApplyTranslation) Handle(ctx context.Context, ev store.TriggerEvent) {
	req := models.TranslationRequestFromFields(ev.Params["translationId"], ev.Fields)
	if len(req.Translated) == 0 {
		return
	}
	if req.UID == "" || req.SessionID == "" || req.MessageID == "" {
		log.Printf("apply translation: request %s is missing its message coordinates", req.ID)
		return
	}

	msgPath := req.MessagePath()
	msg, err := w.store.Get(ctx, msgPath)
	if err != nil {
		log.Printf("apply translation: cannot read message %s for request %s: %v", msgPath, req.ID, err)
		metrics.TranslationApplyFailures.Inc()
		return
	}
	if msg == nil {
		// A merge write would resurrect the deleted message as a
		// translations-only shell, so check first and strand the request.
		log.Printf("apply translation: message %s is gone; request %s left stranded", msgPath, req.ID)
		metrics.TranslationApplyFailures.Inc()
		return
	}

	translated := make(map[string]any, len(req.Translated))
	for lang, text := range req.Translated {
		translated[lang] = text
	}
	if err := w.store.Set(ctx, msgPath, map[string]any{"translated": translated}, true); err != nil {
		log.Printf("apply translation: merge onto %s failed for request %s: %v", msgPath, req.ID, err)
		metrics.TranslationApplyFailures.Inc()
		return
	}

	if err := w.store.Delete(ctx, models.TranslationPath(req.ID)); err != nil {
		// The message is translated; the leftover record is just noise and
		// the next identical merge (if the delete is retried by hand) is
		// harmless.
		log.Printf("apply translation: failed to delete request %s: %v", req.ID, err)
		return
	}
	metrics.TranslationsCompleted.Inc()
}
