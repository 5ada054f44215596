package services

import (
	"context"
	"testing"
	"time"

	"github.com/babelchat/backend/internal/models"
	"github.com/babelchat/backend/internal/store"
	"github.com/babelchat/backend/internal/store/storetest"
)

// testClock returns a monotonically advancing clock so createdAt ordering
// is deterministic without sleeping.
func testClock(start time.Time, step time.Duration) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	backend := storetest.NewMemoryBackend(nil)
	svc := NewChatService(backend)

	path, err := svc.SendMessage(ctx, "u1", "s1", "Ada", "  hello there  ", "en")
	if err != nil {
		t.Fatal(err)
	}

	doc, err := backend.Get(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	msg := models.MessageFromDocument(doc)
	if msg.Text != "hello there" {
		t.Errorf("text = %q, want trimmed", msg.Text)
	}
	if msg.Type != models.MessageTypeUser {
		t.Errorf("type = %q", msg.Type)
	}
	if msg.Sender != "Ada" || msg.Language != "en" {
		t.Errorf("sender/language = %q/%q", msg.Sender, msg.Language)
	}
	if msg.CreatedAt.IsZero() {
		t.Error("createdAt not stamped")
	}
}

func TestSendMessageEmptyText(t *testing.T) {
	svc := NewChatService(storetest.NewMemoryBackend(nil))
	if _, err := svc.SendMessage(context.Background(), "u1", "s1", "Ada", "   ", "en"); err == nil {
		t.Error("expected error for blank text")
	}
}

func TestAdminMessageIsEnglishNotice(t *testing.T) {
	ctx := context.Background()
	backend := storetest.NewMemoryBackend(nil)
	svc := NewChatService(backend)

	path, err := svc.AdminMessage(ctx, "u1", "s1", "Ada joined the chat")
	if err != nil {
		t.Fatal(err)
	}
	doc, err := backend.Get(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	msg := models.MessageFromDocument(doc)
	if msg.Type != models.MessageTypeAdmin {
		t.Errorf("type = %q", msg.Type)
	}
	if msg.Language != "en" {
		t.Errorf("language = %q", msg.Language)
	}
	if msg.Sender != "" {
		t.Errorf("sender = %q, want none for notices", msg.Sender)
	}
}

func TestHistoryNewestFirstWithPaging(t *testing.T) {
	ctx := context.Background()
	backend := storetest.NewMemoryBackend(nil)
	backend.Now = testClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), time.Second)
	svc := NewChatService(backend)

	for _, text := range []string{"one", "two", "three", "four"} {
		if _, err := svc.SendMessage(ctx, "u1", "s1", "Ada", text, "en"); err != nil {
			t.Fatal(err)
		}
	}

	page, err := svc.History(ctx, "u1", "s1", 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].Text != "four" || page[1].Text != "three" {
		t.Fatalf("first page = %v", texts(page))
	}

	next, err := svc.History(ctx, "u1", "s1", 2, page[1].CreatedAt)
	if err != nil {
		t.Fatal(err)
	}
	if len(next) != 2 || next[0].Text != "two" || next[1].Text != "one" {
		t.Fatalf("second page = %v", texts(next))
	}

	all, err := svc.History(ctx, "u1", "s1", 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatalf("unlimited history = %v", texts(all))
	}
}

func TestClearChat(t *testing.T) {
	ctx := context.Background()
	backend := storetest.NewMemoryBackend(nil)
	svc := NewChatService(backend)

	for _, text := range []string{"one", "two", "three"} {
		if _, err := svc.SendMessage(ctx, "u1", "s1", "Ada", text, "en"); err != nil {
			t.Fatal(err)
		}
	}
	// A different session must be untouched by the reset.
	otherPath, err := svc.SendMessage(ctx, "u1", "s2", "Ada", "keep", "en")
	if err != nil {
		t.Fatal(err)
	}

	removed, err := svc.ClearChat(ctx, "u1", "s1")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	left, err := svc.History(ctx, "u1", "s1", 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("messages left after reset: %v", texts(left))
	}

	kept, err := backend.Get(ctx, otherPath)
	if err != nil {
		t.Fatal(err)
	}
	if kept == nil {
		t.Error("reset leaked into another session")
	}
}

func texts(msgs []models.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func TestMessagesQueryShape(t *testing.T) {
	q := MessagesQuery("u1", "s1")
	if q.Path != models.MessagesPath("u1", "s1") {
		t.Errorf("path = %q", q.Path)
	}
	if q.OrderBy != "createdAt" || !q.Desc {
		t.Errorf("ordering = %q desc=%v", q.OrderBy, q.Desc)
	}
	if q.Limit != store.NoLimit {
		t.Errorf("limit = %d", q.Limit)
	}
}
