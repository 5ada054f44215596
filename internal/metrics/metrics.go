// Package metrics exposes the system's Prometheus collectors. Failures in
// the translation workflow are terminal and unretried, so these counters
// (plus logs) are the only place they become visible.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DocumentWrites counts adapter-level writes by collection key.
	DocumentWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docstore_writes_total",
		Help: "Document store writes, by collection.",
	}, []string{"collection"})

	// TriggerRuns counts trigger handler invocations by trigger name.
	TriggerRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_runs_total",
		Help: "Trigger handler invocations.",
	}, []string{"trigger"})

	// TranslationsRequested counts translation requests written.
	TranslationsRequested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translations_requested_total",
		Help: "Translation requests created by the message-created trigger.",
	})

	// TranslationsCompleted counts translated mappings merged back onto
	// messages.
	TranslationsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translations_completed_total",
		Help: "Translations merged onto their messages.",
	})

	// TranslationApplyFailures counts requests stranded because the target
	// message was unreachable (e.g. deleted by a reset mid-flight).
	TranslationApplyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translation_apply_failures_total",
		Help: "Translation requests left stranded because the message was gone.",
	})

	// WorkflowAborts counts message pipelines halted on a precondition
	// (session unreadable or missing its language list).
	WorkflowAborts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translation_workflow_aborts_total",
		Help: "Message pipelines aborted before a request was written.",
	})
)

// Handler serves the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
