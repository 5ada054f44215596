package store

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventType classifies a document change.
type EventType string

const (
	EventCreate EventType = "create"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// ChannelPrefix is the Redis channel namespace for document change events.
// Each collection lineage gets its own channel, e.g.
// "docstore:changes:users_sessions_messages".
const ChannelPrefix = "docstore:changes:"

// ChangeEvent is the payload published after every successful write. Fields
// carries the document state after the write (nil for deletes), Before the
// state before it (nil for creates).
type ChangeEvent struct {
	Type       EventType      `json:"type"`
	Path       string         `json:"path"`
	Collection string         `json:"collection"` // collection key, not full path
	Fields     map[string]any `json:"fields,omitempty"`
	Before     map[string]any `json:"before,omitempty"`
	At         time.Time      `json:"at"`
}

// Bus is the change-notification capability: publish on write, listen by
// channel pattern. The production implementation is Redis pub/sub.
type Bus interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	// Listen delivers events for channels matching pattern ("*" wildcards
	// allowed). The returned stop function ends delivery and closes the
	// channel; it is safe to call more than once.
	Listen(ctx context.Context, pattern string) (<-chan ChangeEvent, func())
}

// RedisBus implements Bus on Redis pub/sub. Delivery is fire-and-forget:
// consumers that need stronger guarantees must be idempotent against both
// missed and repeated events, which every trigger handler in this system is.
type RedisBus struct {
	rdb *redis.Client
}

// NewRedisBus wraps an already-connected Redis client.
func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

func (b *RedisBus) Publish(ctx context.Context, ev ChangeEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, ChannelPrefix+ev.Collection, data).Err()
}

func (b *RedisBus) Listen(ctx context.Context, pattern string) (<-chan ChangeEvent, func()) {
	out := make(chan ChangeEvent, 16)
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(out)
		backoff := time.Second

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			func() {
				pubsub := b.rdb.PSubscribe(ctx, ChannelPrefix+pattern)
				defer pubsub.Close()

				for {
					msg, err := pubsub.ReceiveMessage(ctx)
					if err != nil {
						if ctx.Err() != nil {
							return
						}
						log.Printf("change bus subscriber error (pattern %s): %v", pattern, err)
						time.Sleep(backoff)
						backoff *= 2
						if backoff > 30*time.Second {
							backoff = 30 * time.Second
						}
						return
					}
					backoff = time.Second

					var ev ChangeEvent
					if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
						log.Printf("failed to unmarshal change event: %v", err)
						continue
					}

					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}()
		}
	}()

	return out, cancel
}
