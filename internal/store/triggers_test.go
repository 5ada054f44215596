package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/babelchat/backend/internal/store"
	"github.com/babelchat/backend/internal/store/storetest"
)

const messagePattern = "users/{uid}/sessions/{sessionId}/messages/{messageId}"

func startRunner(t *testing.T, bus store.Bus) (*store.TriggerRunner, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	runner := store.NewTriggerRunner(bus)
	return runner, ctx
}

// settle gives the runner goroutine time to attach its bus listener before
// the test starts publishing.
func settle() { time.Sleep(20 * time.Millisecond) }

func TestTriggerOnCreateCapturesParams(t *testing.T) {
	bus := storetest.NewMemoryBus()
	backend := storetest.NewMemoryBackend(bus)
	runner, ctx := startRunner(t, bus)

	got := make(chan store.TriggerEvent, 1)
	runner.OnCreate(messagePattern, func(ctx context.Context, ev store.TriggerEvent) {
		got <- ev
	})
	go runner.Run(ctx)
	settle()

	err := backend.Set(ctx, "users/u1/sessions/s1/messages/m1", map[string]any{
		"input":    "hello",
		"language": "en",
	}, true)
	if err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-got:
		want := map[string]string{"uid": "u1", "sessionId": "s1", "messageId": "m1"}
		for k, v := range want {
			if ev.Params[k] != v {
				t.Errorf("param %s = %q, want %q", k, ev.Params[k], v)
			}
		}
		if ev.Fields["input"] != "hello" {
			t.Errorf("input = %v", ev.Fields["input"])
		}
		if ev.Before != nil {
			t.Errorf("before = %v, want nil on create", ev.Before)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}
}

func TestTriggerUpdateNotFiredOnCreate(t *testing.T) {
	bus := storetest.NewMemoryBus()
	backend := storetest.NewMemoryBackend(bus)
	runner, ctx := startRunner(t, bus)

	created := make(chan struct{}, 1)
	updated := make(chan store.TriggerEvent, 1)
	runner.OnCreate(messagePattern, func(ctx context.Context, ev store.TriggerEvent) {
		created <- struct{}{}
	})
	runner.OnUpdate(messagePattern, func(ctx context.Context, ev store.TriggerEvent) {
		updated <- ev
	})
	go runner.Run(ctx)
	settle()

	path := "users/u1/sessions/s1/messages/m1"
	if err := backend.Set(ctx, path, map[string]any{"input": "hi"}, true); err != nil {
		t.Fatal(err)
	}

	select {
	case <-created:
	case <-time.After(2 * time.Second):
		t.Fatal("create handler never ran")
	}
	select {
	case <-updated:
		t.Fatal("update handler fired for a create")
	case <-time.After(100 * time.Millisecond):
	}

	// Now a second write is an update and carries the before state.
	if err := backend.Set(ctx, path, map[string]any{"translated": map[string]any{"es": "hola"}}, true); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-updated:
		if ev.Before == nil {
			t.Error("update event missing before state")
		}
		if ev.Fields["input"] != "hi" {
			t.Errorf("after state = %v", ev.Fields)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("update handler never ran")
	}
}

func TestTriggerPatternMismatchSkipped(t *testing.T) {
	bus := storetest.NewMemoryBus()
	backend := storetest.NewMemoryBackend(bus)
	runner, ctx := startRunner(t, bus)

	fired := make(chan struct{}, 1)
	runner.OnCreate(messagePattern, func(ctx context.Context, ev store.TriggerEvent) {
		fired <- struct{}{}
	})
	go runner.Run(ctx)
	settle()

	if err := backend.Set(ctx, "translations/t1", map[string]any{"input": "x"}, true); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
		t.Fatal("handler fired for non-matching path")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTriggerPanicDoesNotStopRunner(t *testing.T) {
	bus := storetest.NewMemoryBus()
	backend := storetest.NewMemoryBackend(bus)
	runner, ctx := startRunner(t, bus)

	survived := make(chan struct{}, 1)
	runner.OnCreate(messagePattern, func(ctx context.Context, ev store.TriggerEvent) {
		if ev.Params["messageId"] == "boom" {
			panic("handler exploded")
		}
		survived <- struct{}{}
	})
	go runner.Run(ctx)
	settle()

	if err := backend.Set(ctx, "users/u1/sessions/s1/messages/boom", map[string]any{"input": "x"}, true); err != nil {
		t.Fatal(err)
	}
	if err := backend.Set(ctx, "users/u1/sessions/s1/messages/ok", map[string]any{"input": "y"}, true); err != nil {
		t.Fatal(err)
	}

	select {
	case <-survived:
	case <-time.After(2 * time.Second):
		t.Fatal("runner stopped dispatching after handler panic")
	}
}

func TestTriggerEventValuesAreWireShaped(t *testing.T) {
	bus := storetest.NewMemoryBus()
	backend := storetest.NewMemoryBackend(bus)
	runner, ctx := startRunner(t, bus)

	got := make(chan store.TriggerEvent, 1)
	runner.OnCreate("users/{uid}/sessions/{sessionId}", func(ctx context.Context, ev store.TriggerEvent) {
		got <- ev
	})
	go runner.Run(ctx)
	settle()

	err := backend.Set(ctx, "users/u1/sessions/s1", map[string]any{
		"sessionLanguages": []string{"en", "es"},
		"createdAt":        store.ServerTimestamp,
	}, true)
	if err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-got:
		// The bus JSON round-trips values, so slices arrive as []any and
		// timestamps as strings. The tolerant accessors must cope.
		langs := store.StringSliceField(ev.Fields, "sessionLanguages")
		if len(langs) != 2 || langs[0] != "en" || langs[1] != "es" {
			t.Errorf("sessionLanguages = %v", langs)
		}
		if store.TimeField(ev.Fields, "createdAt").IsZero() {
			t.Errorf("createdAt not decodable: %v", ev.Fields["createdAt"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}
}
