package store

import (
	"context"
	"log"
	"runtime/debug"
	"sync"

	"github.com/babelchat/backend/internal/metrics"
)

// TriggerEvent is what a trigger handler receives: the path parameters
// captured by its pattern, plus the document state around the change.
// Fields is the state after the write; Before the state before it (nil on
// create). Values have round-tripped through the change bus, so timestamps
// arrive as RFC3339 strings rather than time.Time.
type TriggerEvent struct {
	Path   string
	Params map[string]string
	Fields map[string]any
	Before map[string]any
}

// TriggerHandler is one event handler. Handlers run statelessly, one
// goroutine per delivered event, with no ordering guarantee across
// unrelated events, and must be idempotent: the bus may drop or repeat
// deliveries. A handler never gets retried; any failure it logs is terminal
// for that one event.
type TriggerHandler func(ctx context.Context, ev TriggerEvent)

type registration struct {
	pattern string
	handler TriggerHandler
}

// TriggerRunner dispatches change-bus events to registered handlers, the
// way the document store's own change-notification system would.
type TriggerRunner struct {
	bus Bus

	mu       sync.Mutex
	onCreate []registration
	onUpdate []registration
}

// NewTriggerRunner creates a runner over the given change bus.
func NewTriggerRunner(bus Bus) *TriggerRunner {
	return &TriggerRunner{bus: bus}
}

// OnCreate registers a handler for document creations matching pattern,
// e.g. "users/{uid}/sessions/{sessionId}/messages/{messageId}".
func (r *TriggerRunner) OnCreate(pattern string, h TriggerHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCreate = append(r.onCreate, registration{pattern: pattern, handler: h})
}

// OnUpdate registers a handler for document updates matching pattern.
func (r *TriggerRunner) OnUpdate(pattern string, h TriggerHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onUpdate = append(r.onUpdate, registration{pattern: pattern, handler: h})
}

// Run listens for change events until ctx is cancelled. It blocks; run it
// on its own goroutine.
func (r *TriggerRunner) Run(ctx context.Context) {
	events, stop := r.bus.Listen(ctx, "*")
	defer stop()

	log.Println("trigger runner started")

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.dispatch(ctx, ev)
		}
	}
}

func (r *TriggerRunner) dispatch(ctx context.Context, ev ChangeEvent) {
	var regs []registration
	r.mu.Lock()
	switch ev.Type {
	case EventCreate:
		regs = append(regs, r.onCreate...)
	case EventUpdate:
		regs = append(regs, r.onUpdate...)
	}
	r.mu.Unlock()

	for _, reg := range regs {
		params, ok := MatchPath(reg.pattern, ev.Path)
		if !ok {
			continue
		}
		te := TriggerEvent{
			Path:   ev.Path,
			Params: params,
			Fields: ev.Fields,
			Before: ev.Before,
		}
		metrics.TriggerRuns.WithLabelValues(reg.pattern).Inc()
		h := reg.handler
		go func() {
			defer func() {
				// A panicking handler must never take down the runner; the
				// event is simply lost, like a crashed stateless invocation.
				if rec := recover(); rec != nil {
					log.Printf("trigger handler panic on %s: %v\n%s", te.Path, rec, debug.Stack())
				}
			}()
			h(ctx, te)
		}()
	}
}
