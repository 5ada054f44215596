// Package binding is the application-facing data layer: collections and
// documents bound to the store with create/patch/delete semantics, server
// timestamp stamping and debounced, optimistically merged writes. It is the
// piece UI actions talk to; they never touch the adapter directly.
package binding

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/babelchat/backend/internal/store"
)

// DebounceWindow is how long a burst of debounced updates to one document
// coalesces before the single remote write goes out.
const DebounceWindow = time.Second

// Document binds one document path to read, patch and debounced-patch
// capabilities. The local snapshot is updated synchronously on every
// debounced call so the caller always renders its own writes immediately,
// while the remote write is coalesced.
type Document struct {
	backend store.Backend
	path    string
	window  time.Duration

	mu      sync.Mutex
	data    map[string]any
	known   bool
	pending map[string]any
	timer   *time.Timer
}

// NewDocument binds a document path.
func NewDocument(b store.Backend, path string) *Document {
	return &Document{backend: b, path: store.JoinPath(store.SplitPath(path)...), window: DebounceWindow}
}

// Path returns the bound document path.
func (d *Document) Path() string { return d.path }

// Refresh fetches the remote document and replaces the local snapshot.
// A missing document yields a nil snapshot without error.
func (d *Document) Refresh(ctx context.Context) (map[string]any, error) {
	doc, err := d.backend.Get(ctx, d.path)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if doc == nil {
		d.data = nil
		d.known = true
		return nil, nil
	}
	d.data = cloneFields(doc.Fields)
	d.known = true
	return cloneFields(d.data), nil
}

// Data returns a copy of the local snapshot.
func (d *Document) Data() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneFields(d.data)
}

// Apply applies a snapshot delivered by a live subscription, replacing
// local state wholesale.
func (d *Document) Apply(fields map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = cloneFields(fields)
	d.known = true
}

// Update merge-patches the document immediately. Fields set to
// store.DeleteField become explicit removals; a merge write never drops a
// field by omission, so the sentinel is the only deletion path. The "id"
// and "path" pseudo-fields are stripped, and updatedAt is restamped.
func (d *Document) Update(ctx context.Context, fields map[string]any) error {
	patch := patchFields(fields)
	if err := d.backend.Set(ctx, d.path, patch, true); err != nil {
		return err
	}
	d.mu.Lock()
	d.data = applyLocal(d.data, patch)
	d.mu.Unlock()
	return nil
}

// DebouncedUpdate merges fields into the local snapshot synchronously and
// schedules a coalesced remote write. Bursts within the window collapse
// into one write per document; writes to different documents are
// independent. Call Flush before debounce-updating a different key of the
// same nested structure, otherwise the two remote writes can race.
func (d *Document) DebouncedUpdate(fields map[string]any) {
	patch := patchFields(fields)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.data = applyLocal(d.data, patch)
	d.pending = mergeFields(d.pending, patch)

	if d.timer == nil {
		d.timer = time.AfterFunc(d.window, d.fire)
		return
	}
	d.timer.Reset(d.window)
}

// Flush forces any pending debounced write to execute now, synchronously.
func (d *Document) Flush(ctx context.Context) error {
	d.mu.Lock()
	patch := d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if len(patch) == 0 {
		return nil
	}
	return d.backend.Set(ctx, d.path, patch, true)
}

// fire runs on the debounce timer. In-flight writes are not cancellable;
// a failure here is logged and the local snapshot keeps its optimistic
// state, which the next remote snapshot will correct.
func (d *Document) fire() {
	d.mu.Lock()
	patch := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	if len(patch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.backend.Set(ctx, d.path, patch, true); err != nil {
		log.Printf("debounced write to %s failed: %v", d.path, err)
	}
}

// Remove deletes the document outright.
func (d *Document) Remove(ctx context.Context) error {
	if err := d.backend.Delete(ctx, d.path); err != nil {
		return err
	}
	d.mu.Lock()
	d.data = nil
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	return nil
}

// patchFields prepares a user patch for a merge write: strips the id/path
// pseudo-fields and restamps updatedAt. Values are otherwise untouched, so
// store.DeleteField sentinels pass through to the adapter.
func patchFields(fields map[string]any) map[string]any {
	patch := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		if k == "id" || k == "path" {
			continue
		}
		patch[k] = v
	}
	patch["updatedAt"] = store.ServerTimestamp
	return patch
}

// applyLocal applies a patch to the local snapshot with the same semantics
// the adapter will apply remotely: deep merge, arrays replaced, timestamp
// sentinels resolved against the local clock, delete sentinels removing the
// key outright.
func applyLocal(data, patch map[string]any) map[string]any {
	out := cloneFields(data)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range patch {
		if v == store.DeleteField {
			delete(out, k)
			continue
		}
		if v == store.ServerTimestamp {
			out[k] = time.Now().UTC()
			continue
		}
		if pm, ok := v.(map[string]any); ok {
			if dm, ok := out[k].(map[string]any); ok {
				out[k] = applyLocal(dm, pm)
			} else {
				out[k] = applyLocal(nil, pm)
			}
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}
