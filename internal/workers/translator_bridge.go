package workers

import (
	"context"
	"log"

	"github.com/babelchat/backend/internal/models"
	"github.com/babelchat/backend/internal/store"
	"github.com/babelchat/backend/internal/translate"
)

// TranslatorBridge drives the opaque translation capability against newly
// created translation requests, standing in for an externally managed
// translation pipeline. It merges whatever mapping the translator returns
// onto the request; ApplyTranslation takes it from there.
type TranslatorBridge struct {
	store      store.Backend
	translator translate.Translator
}

func NewTranslatorBridge(b store.Backend, t translate.Translator) *TranslatorBridge {
	return &TranslatorBridge{store: b, translator: t}
}

func (w *TranslatorBridge) Register(r *store.TriggerRunner) {
	r.OnCreate(models.TranslationPattern, w.Handle)
}

// Handle translates one request. A request that already carries a mapping
// (redelivered event) is skipped. Translator failure leaves the request
// pending: observable, re-driveable by hand, never retried here. An empty
// result is not merged either; nothing would unlock for any reader and the
// request stays visibly pending instead.
func (w *TranslatorBridge) Handle(ctx context.Context, ev store.TriggerEvent) {
	req := models.TranslationRequestFromFields(ev.Params["translationId"], ev.Fields)
	if len(req.Translated) > 0 {
		return
	}
	if req.Input == "" || len(req.Languages) == 0 {
		log.Printf("translator: request %s has no input or languages; leaving it pending", req.ID)
		return
	}

	mapping, err := w.translator.Translate(ctx, req.Input, req.Languages)
	if err != nil {
		log.Printf("translator: request %s failed: %v", req.ID, err)
		return
	}
	if len(mapping) == 0 {
		log.Printf("translator: request %s produced no translations; leaving it pending", req.ID)
		return
	}

	translated := make(map[string]any, len(mapping))
	for lang, text := range mapping {
		translated[lang] = text
	}
	if err := w.store.Set(ctx, models.TranslationPath(req.ID), map[string]any{"translated": translated}, true); err != nil {
		log.Printf("translator: failed to attach mapping to request %s: %v", req.ID, err)
	}
}
