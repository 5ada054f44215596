package store

import (
	"context"
	"log"
	"sync"
)

// Subscriber turns queries and document paths into continuously updated
// in-process snapshots. A snapshot is always a complete replacement of
// consumer-visible state, never a partial patch; consumers render from the
// latest one delivered.
type Subscriber struct {
	backend Backend
	bus     Bus
}

// NewSubscriber binds a backend to its change bus.
func NewSubscriber(b Backend, bus Bus) *Subscriber {
	return &Subscriber{backend: b, bus: bus}
}

// CollectionSnapshot is one delivery: either a full result set or an error.
// Errors never terminate the subscription; data is nil alongside them and
// the caller decides whether to keep waiting or degrade.
type CollectionSnapshot struct {
	Docs []Document
	Err  error
}

// DocSnapshot is one single-document delivery. Doc is nil when the document
// is absent or on error.
type DocSnapshot struct {
	Doc *Document
	Err error
}

// CollectionSub is a live (or one-shot) collection subscription. Receive
// snapshots from C; a slow consumer only ever sees the latest one, stale
// intermediates are dropped.
type CollectionSub struct {
	C    <-chan CollectionSnapshot
	stop func()
	once sync.Once
}

// Unsubscribe stops delivery and closes C. Safe to call repeatedly.
func (s *CollectionSub) Unsubscribe() {
	s.once.Do(s.stop)
}

// DocSub is a live (or one-shot) single-document subscription.
type DocSub struct {
	C    <-chan DocSnapshot
	stop func()
	once sync.Once
}

func (s *DocSub) Unsubscribe() {
	s.once.Do(s.stop)
}

// Collection subscribes to a query. live=false delivers exactly one
// snapshot and closes the channel. The zero-limit sentinel delivers nothing
// at all and never touches the backend.
func (s *Subscriber) Collection(ctx context.Context, q Query, live bool) *CollectionSub {
	ch := make(chan CollectionSnapshot, 1)

	if q.Limit == 0 {
		close(ch)
		return &CollectionSub{C: ch, stop: func() {}}
	}

	ctx, cancel := context.WithCancel(ctx)

	fetch := func() CollectionSnapshot {
		docs, err := s.backend.RunQuery(ctx, q)
		if err != nil {
			log.Printf("subscription query failed (path=%s group=%v orderBy=%s limit=%d): %v",
				q.Path, q.Group, q.OrderBy, q.Limit, err)
			return CollectionSnapshot{Err: err}
		}
		return CollectionSnapshot{Docs: docs}
	}

	if !live {
		go func() {
			defer close(ch)
			snap := fetch()
			select {
			case ch <- snap:
			case <-ctx.Done():
			}
		}()
		return &CollectionSub{C: ch, stop: cancel}
	}

	key, err := CollectionKey(q.Path)
	if err != nil {
		ch <- CollectionSnapshot{Err: err}
		close(ch)
		return &CollectionSub{C: ch, stop: cancel}
	}

	events, stopListen := s.bus.Listen(ctx, key)

	go func() {
		defer close(ch)
		defer stopListen()

		deliver(ctx, ch, fetch())

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if !q.covers(ev.Path) {
					continue
				}
				deliver(ctx, ch, fetch())
			}
		}
	}()

	return &CollectionSub{C: ch, stop: cancel}
}

// Doc subscribes to a single document path.
func (s *Subscriber) Doc(ctx context.Context, path string, live bool) *DocSub {
	ch := make(chan DocSnapshot, 1)
	ctx, cancel := context.WithCancel(ctx)
	path = JoinPath(SplitPath(path)...)

	fetch := func() DocSnapshot {
		doc, err := s.backend.Get(ctx, path)
		if err != nil {
			log.Printf("document subscription failed (path=%s live=%v): %v", path, live, err)
			return DocSnapshot{Err: err}
		}
		return DocSnapshot{Doc: doc}
	}

	if !live {
		go func() {
			defer close(ch)
			snap := fetch()
			select {
			case ch <- snap:
			case <-ctx.Done():
			}
		}()
		return &DocSub{C: ch, stop: cancel}
	}

	key, err := CollectionKey(path)
	if err != nil {
		ch <- DocSnapshot{Err: err}
		close(ch)
		return &DocSub{C: ch, stop: cancel}
	}

	events, stopListen := s.bus.Listen(ctx, key)

	go func() {
		defer close(ch)
		defer stopListen()

		deliverDoc(ctx, ch, fetch())

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Path != path {
					continue
				}
				deliverDoc(ctx, ch, fetch())
			}
		}
	}()

	return &DocSub{C: ch, stop: cancel}
}

// covers reports whether a change at path affects this query's result set.
func (q Query) covers(path string) bool {
	if q.Group {
		key, err := CollectionKey(path)
		if err != nil {
			return false
		}
		qKey, err := CollectionKey(q.Path)
		return err == nil && key == qKey
	}
	parent, err := ParentPath(path)
	return err == nil && parent == q.Path
}

// deliver pushes a snapshot, displacing an unconsumed stale one so the
// channel always holds the latest state.
func deliver(ctx context.Context, ch chan CollectionSnapshot, snap CollectionSnapshot) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	case <-ctx.Done():
	}
}

func deliverDoc(ctx context.Context, ch chan DocSnapshot, snap DocSnapshot) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	case <-ctx.Done():
	}
}
