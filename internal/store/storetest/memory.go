// Package storetest provides in-memory implementations of the store
// capability surfaces for tests and local development. They mirror the
// MongoDB adapter's semantics: field-level merge with array replacement,
// delete-field sentinels, server timestamps, parent-scoped queries and
// change events on every write.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/babelchat/backend/internal/store"
)

// MemoryBus is an in-process change bus. Events round-trip through JSON so
// consumers see exactly the value shapes the Redis bus would deliver
// (timestamps as strings, string slices as []any).
type MemoryBus struct {
	mu   sync.Mutex
	subs []*memorySub
}

type memorySub struct {
	pattern string
	ch      chan store.ChangeEvent
	done    chan struct{}
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

func (b *MemoryBus) Publish(ctx context.Context, ev store.ChangeEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	var wire store.ChangeEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	b.mu.Lock()
	subs := append([]*memorySub(nil), b.subs...)
	b.mu.Unlock()

	for _, s := range subs {
		if s.pattern != "*" && s.pattern != ev.Collection {
			continue
		}
		select {
		case s.ch <- wire:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *MemoryBus) Listen(ctx context.Context, pattern string) (<-chan store.ChangeEvent, func()) {
	sub := &memorySub{
		pattern: pattern,
		ch:      make(chan store.ChangeEvent, 64),
		done:    make(chan struct{}),
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			b.mu.Lock()
			for i, s := range b.subs {
				if s == sub {
					b.subs = append(b.subs[:i], b.subs[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
			close(sub.done)
			close(sub.ch)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-sub.done:
		}
	}()

	return sub.ch, stop
}

// MemoryBackend is an in-memory store.Backend. Safe for concurrent use.
type MemoryBackend struct {
	// Now is the write clock; override it to pin server timestamps.
	Now func() time.Time

	mu   sync.Mutex
	bus  store.Bus
	cols map[string]map[string]map[string]any // collection key -> path -> fields
}

var _ store.Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty backend. bus may be nil when change
// events are not under test.
func NewMemoryBackend(bus store.Bus) *MemoryBackend {
	return &MemoryBackend{
		Now:  time.Now,
		bus:  bus,
		cols: map[string]map[string]map[string]any{},
	}
}

func (m *MemoryBackend) NewID() string {
	return uuid.NewString()
}

func (m *MemoryBackend) Get(ctx context.Context, path string) (*store.Document, error) {
	if !store.IsDocPath(path) {
		return nil, fmt.Errorf("get: not a document path: %q", path)
	}
	path = canonical(path)
	key, err := store.CollectionKey(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	fields, ok := m.cols[key][path]
	if !ok {
		return nil, nil
	}
	return &store.Document{ID: store.DocID(path), Path: path, Fields: clone(fields)}, nil
}

func (m *MemoryBackend) Set(ctx context.Context, path string, fields map[string]any, merge bool) error {
	if !store.IsDocPath(path) {
		return fmt.Errorf("set: not a document path: %q", path)
	}
	path = canonical(path)
	key, err := store.CollectionKey(path)
	if err != nil {
		return err
	}

	stamped := resolveTimestamps(fields, m.Now().UTC())

	m.mu.Lock()
	if m.cols[key] == nil {
		m.cols[key] = map[string]map[string]any{}
	}
	prev, existed := m.cols[key][path]

	var next map[string]any
	if merge && existed {
		next = clone(prev)
	} else {
		next = map[string]any{}
	}
	applyPatch(next, stamped)
	m.cols[key][path] = next

	var before map[string]any
	if existed {
		before = clone(prev)
	}
	after := clone(next)
	m.mu.Unlock()

	evType := store.EventUpdate
	if !existed {
		evType = store.EventCreate
	}
	m.publish(ctx, store.ChangeEvent{
		Type: evType, Path: path, Collection: key,
		Fields: after, Before: before,
	})
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, path string) error {
	if !store.IsDocPath(path) {
		return fmt.Errorf("delete: not a document path: %q", path)
	}
	path = canonical(path)
	key, err := store.CollectionKey(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	prev, existed := m.cols[key][path]
	if existed {
		delete(m.cols[key], path)
	}
	var before map[string]any
	if existed {
		before = clone(prev)
	}
	m.mu.Unlock()

	if existed {
		m.publish(ctx, store.ChangeEvent{
			Type: store.EventDelete, Path: path, Collection: key, Before: before,
		})
	}
	return nil
}

func (m *MemoryBackend) RunQuery(ctx context.Context, q store.Query) ([]store.Document, error) {
	if q.Limit == 0 {
		return nil, nil
	}
	key, err := store.CollectionKey(q.Path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	var docs []store.Document
	for path, fields := range m.cols[key] {
		if !q.Group {
			parent, err := store.ParentPath(path)
			if err != nil || parent != canonical(q.Path) {
				continue
			}
		}
		if !matchesFilters(fields, q.Filters) {
			continue
		}
		docs = append(docs, store.Document{ID: store.DocID(path), Path: path, Fields: clone(fields)})
	}
	m.mu.Unlock()

	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			less := compare(docs[i].Fields[q.OrderBy], docs[j].Fields[q.OrderBy]) < 0
			if q.Desc {
				return !less
			}
			return less
		})
		if q.StartAfter != nil {
			cut := 0
			for cut < len(docs) {
				c := compare(docs[cut].Fields[q.OrderBy], q.StartAfter)
				if (q.Desc && c < 0) || (!q.Desc && c > 0) {
					break
				}
				cut++
			}
			docs = docs[cut:]
		}
	}

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (m *MemoryBackend) publish(ctx context.Context, ev store.ChangeEvent) {
	if m.bus == nil {
		return
	}
	ev.At = m.Now().UTC()
	_ = m.bus.Publish(ctx, ev)
}

func canonical(path string) string {
	return store.JoinPath(store.SplitPath(path)...)
}

func resolveTimestamps(fields map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch t := v.(type) {
		case map[string]any:
			out[k] = resolveTimestamps(t, now)
		default:
			if v == store.ServerTimestamp {
				out[k] = now
			} else {
				out[k] = v
			}
		}
	}
	return out
}

// applyPatch merges patch into doc with the adapter's merge semantics:
// nested maps merge, arrays replace, DeleteField removes.
func applyPatch(doc map[string]any, patch map[string]any) {
	for k, v := range patch {
		if v == store.DeleteField {
			delete(doc, k)
			continue
		}
		if pm, ok := v.(map[string]any); ok {
			if dm, ok := doc[k].(map[string]any); ok {
				applyPatch(dm, pm)
				continue
			}
			fresh := map[string]any{}
			applyPatch(fresh, pm)
			doc[k] = fresh
			continue
		}
		doc[k] = v
	}
}

func matchesFilters(fields map[string]any, filters []store.Where) bool {
	for _, w := range filters {
		v := fields[w.Field]
		switch w.Op {
		case "==":
			if compare(v, w.Value) != 0 {
				return false
			}
		case "!=":
			if compare(v, w.Value) == 0 {
				return false
			}
		case "<":
			if compare(v, w.Value) >= 0 {
				return false
			}
		case "<=":
			if compare(v, w.Value) > 0 {
				return false
			}
		case ">":
			if compare(v, w.Value) <= 0 {
				return false
			}
		case ">=":
			if compare(v, w.Value) < 0 {
				return false
			}
		case "in":
			if !containsValue(w.Value, v) {
				return false
			}
		case "array-contains":
			if !containsValue(v, w.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func containsValue(list any, v any) bool {
	switch t := list.(type) {
	case []any:
		for _, e := range t {
			if compare(e, v) == 0 {
				return true
			}
		}
	case []string:
		for _, e := range t {
			if compare(e, v) == 0 {
				return true
			}
		}
	}
	return false
}

// compare orders the value types that appear in query fields: numbers,
// strings, times, bools. Mixed or unknown types compare as equal-ish by
// string form, which is all the tests need.
func compare(a, b any) int {
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			default:
				return 0
			}
		}
	}
	if na, ok := toFloat(a); ok {
		if nb, ok := toFloat(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case map[string]any:
			out[k] = clone(t)
		case []any:
			cp := make([]any, len(t))
			copy(cp, t)
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}
