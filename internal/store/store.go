// Package store is the coordination layer over the document database: slash
// paths onto MongoDB collections, field-level merge writes with server
// timestamps, change events on every write, composed queries and live
// subscriptions on top of them.
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babelchat/backend/internal/metrics"
)

// Backend is the adapter capability surface consumed by bindings,
// subscriptions, services and workers. *Store is the MongoDB implementation;
// tests substitute an in-memory one.
type Backend interface {
	Get(ctx context.Context, path string) (*Document, error)
	Set(ctx context.Context, path string, fields map[string]any, merge bool) error
	Delete(ctx context.Context, path string) error
	NewID() string
	RunQuery(ctx context.Context, q Query) ([]Document, error)
}

// reserved keys in the backing collections. Everything else in a stored
// record is an application field.
const (
	keyID     = "_id"     // full document path
	keyParent = "_parent" // parent collection path, for scoped queries
)

// Store binds a Mongo database to a change bus. Every write publishes a
// ChangeEvent carrying the document state before and after, which is what
// feeds live subscriptions and triggers.
type Store struct {
	db  *mongo.Database
	bus Bus
	now func() time.Time
}

var _ Backend = (*Store)(nil)

// New creates a Store from explicit handles. Handles are created once at
// process start and passed by reference; the store never reaches for
// globals.
func New(db *mongo.Database, bus Bus) *Store {
	return &Store{db: db, bus: bus, now: time.Now}
}

// NewID allocates a fresh document id.
func (s *Store) NewID() string {
	return uuid.NewString()
}

func (s *Store) collection(path string) (*mongo.Collection, error) {
	key, err := CollectionKey(path)
	if err != nil {
		return nil, err
	}
	return s.db.Collection(key), nil
}

// Get fetches a single document. A missing document is (nil, nil), not an
// error.
func (s *Store) Get(ctx context.Context, path string) (*Document, error) {
	if !IsDocPath(path) {
		return nil, fmt.Errorf("get: not a document path: %q", path)
	}
	col, err := s.collection(path)
	if err != nil {
		return nil, err
	}

	var raw bson.M
	err = col.FindOne(ctx, bson.M{keyID: JoinPath(SplitPath(path)...)}).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return docFromRaw(raw), nil
}

// Set writes a document. With merge=true it is a field-level merge: nested
// maps merge leaf by leaf, array values are replaced wholesale, and
// DeleteField sentinels become explicit unsets. With merge=false the
// document is replaced outright. Either way the document is created if
// absent and a change event is published.
func (s *Store) Set(ctx context.Context, path string, fields map[string]any, merge bool) error {
	if !IsDocPath(path) {
		return fmt.Errorf("set: not a document path: %q", path)
	}
	path = JoinPath(SplitPath(path)...)
	col, err := s.collection(path)
	if err != nil {
		return err
	}
	parent, err := ParentPath(path)
	if err != nil {
		return err
	}

	prev, err := s.Get(ctx, path)
	if err != nil {
		return err
	}

	stamped := resolveTimestamps(fields, s.now().UTC())

	if merge {
		set, unset := flattenMerge(stamped)
		set[keyParent] = parent
		update := bson.M{"$set": set}
		if len(unset) > 0 {
			update["$unset"] = unset
		}
		opts := options.Update().SetUpsert(true)
		if _, err := col.UpdateByID(ctx, path, update, opts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	} else {
		doc := bson.M{keyID: path, keyParent: parent}
		for k, v := range stamped {
			if _, isDelete := v.(deleteField); isDelete {
				continue
			}
			doc[k] = v
		}
		opts := options.Replace().SetUpsert(true)
		if _, err := col.ReplaceOne(ctx, bson.M{keyID: path}, doc, opts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}

	evType := EventUpdate
	var before map[string]any
	if prev == nil {
		evType = EventCreate
	} else {
		before = prev.Fields
	}

	// Re-read so the event carries the merged state, not just the patch.
	after, err := s.Get(ctx, path)
	var afterFields map[string]any
	if err == nil && after != nil {
		afterFields = after.Fields
	}
	s.publish(ctx, ChangeEvent{Type: evType, Path: path, Fields: afterFields, Before: before})
	return nil
}

// Delete removes a document. Deleting a missing document is a no-op and
// publishes nothing.
func (s *Store) Delete(ctx context.Context, path string) error {
	if !IsDocPath(path) {
		return fmt.Errorf("delete: not a document path: %q", path)
	}
	path = JoinPath(SplitPath(path)...)
	col, err := s.collection(path)
	if err != nil {
		return err
	}

	prev, err := s.Get(ctx, path)
	if err != nil {
		return err
	}
	if _, err := col.DeleteOne(ctx, bson.M{keyID: path}); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	if prev != nil {
		s.publish(ctx, ChangeEvent{Type: EventDelete, Path: path, Before: prev.Fields})
	}
	return nil
}

func (s *Store) publish(ctx context.Context, ev ChangeEvent) {
	key, err := CollectionKey(ev.Path)
	if err != nil {
		return
	}
	ev.Collection = key
	ev.At = s.now().UTC()
	metrics.DocumentWrites.WithLabelValues(key).Inc()
	if err := s.bus.Publish(ctx, ev); err != nil {
		// A lost event degrades liveness (a subscriber misses one refresh),
		// never correctness; the write itself already succeeded.
		log.Printf("store: failed to publish change event for %s: %v", ev.Path, err)
	}
}

func docFromRaw(raw bson.M) *Document {
	path, _ := raw[keyID].(string)
	delete(raw, keyID)
	delete(raw, keyParent)
	return &Document{
		ID:     DocID(path),
		Path:   path,
		Fields: normalizeFields(map[string]any(raw)),
	}
}

// resolveTimestamps returns a copy of fields with every ServerTimestamp
// sentinel replaced by now, recursing into nested maps.
func resolveTimestamps(fields map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch t := v.(type) {
		case serverTimestamp:
			out[k] = now
		case map[string]any:
			out[k] = resolveTimestamps(t, now)
		default:
			out[k] = v
		}
	}
	return out
}

// flattenMerge turns a nested patch into dotted-leaf $set paths so that a
// merge only touches the fields it names. Arrays are set wholesale, never
// merged element-wise. DeleteField sentinels come back in the unset map.
func flattenMerge(fields map[string]any) (set bson.M, unset bson.M) {
	set = bson.M{}
	unset = bson.M{}
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			switch t := v.(type) {
			case deleteField:
				unset[key] = ""
			case map[string]any:
				if len(t) == 0 {
					set[key] = bson.M{}
					continue
				}
				walk(key, t)
			default:
				set[key] = v
			}
		}
	}
	walk("", fields)
	return set, unset
}

// EnsureIndexes creates the indexes the query layer leans on: parent scoping
// plus createdAt ordering for every message-bearing collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, key := range []string{"users_sessions_messages", "translations"} {
		col := s.db.Collection(key)
		model := mongo.IndexModel{
			Keys: bson.D{
				{Key: keyParent, Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_parent_createdAt"),
		}
		if _, err := col.Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("ensure index on %s: %w", key, err)
		}
	}
	return nil
}
