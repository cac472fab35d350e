//go:build unit

package notify

import (
	"context"
	"errors"
	"go-comments-app/internal/config"
	"go-comments-app/internal/data"
	"go-comments-app/internal/logger"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// mockHandler fails the first failures calls and records every call.
type mockHandler struct {
	mu       sync.Mutex
	calls    int
	failures int
	done     chan struct{}
	finalAt  int
}

func (m *mockHandler) Handle(ctx context.Context, task ReplyTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls == m.finalAt && m.done != nil {
		close(m.done)
	}
	if m.calls <= m.failures {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (m *mockHandler) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func waitFor(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the handler")
	}
}

func TestPool_RetriesUntilSuccess(t *testing.T) {
	handler := &mockHandler{failures: 2, finalAt: 3, done: make(chan struct{})}
	pool := NewPool(config.NotifyConfig{Workers: 2, QueueSize: 4, Attempts: 5, RetryDelay: time.Millisecond}, handler, logger.Nop())
	pool.Start(context.Background())

	if !pool.Enqueue(ReplyTask{ReplyToID: uuid.New()}) {
		t.Fatal("expected task to be accepted")
	}
	waitFor(t, handler.done)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := pool.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if got := handler.callCount(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestPool_GivesUpAfterAttempts(t *testing.T) {
	handler := &mockHandler{failures: 100, finalAt: 5, done: make(chan struct{})}
	pool := NewPool(config.NotifyConfig{Workers: 1, QueueSize: 1, Attempts: 5, RetryDelay: time.Millisecond}, handler, logger.Nop())
	pool.Start(context.Background())

	pool.Enqueue(ReplyTask{ReplyToID: uuid.New()})
	waitFor(t, handler.done)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := pool.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if got := handler.callCount(); got != 5 {
		t.Errorf("expected 5 attempts, got %d", got)
	}
}

func TestPool_EnqueueDoesNotBlock(t *testing.T) {
	pool := NewPool(config.NotifyConfig{Workers: 1, QueueSize: 1, Attempts: 1}, &mockHandler{}, logger.Nop())
	// Not started, so nothing drains the queue.
	if !pool.Enqueue(ReplyTask{}) {
		t.Fatal("expected first task to fit in the queue")
	}
	if pool.Enqueue(ReplyTask{}) {
		t.Error("expected a full queue to reject the task")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := pool.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if pool.Enqueue(ReplyTask{}) {
		t.Error("expected a closed pool to reject the task")
	}
}

type mockFinder struct {
	comments map[uuid.UUID]*data.Comment
	page     *data.Page
	err      error
}

func (m *mockFinder) FindByID(ctx context.Context, id uuid.UUID) ([]*data.Comment, error) {
	if m.err != nil {
		return nil, m.err
	}
	if c, ok := m.comments[id]; ok {
		return []*data.Comment{c}, nil
	}
	return []*data.Comment{}, nil
}

func (m *mockFinder) GetPageByID(ctx context.Context, id uuid.UUID) (*data.Page, error) {
	if m.page != nil && m.page.ID == id {
		return m.page, nil
	}
	return nil, nil
}

type mockSender struct {
	sent []Message
}

func (m *mockSender) Send(ctx context.Context, msg Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func strptr(s string) *string { return &s }

func TestReplyNotifier_Handle(t *testing.T) {
	page := &data.Page{ID: uuid.New(), Title: "Post", PageURL: "https://blog.example.com/post"}
	target := &data.Comment{ID: uuid.New(), PageID: page.ID, MailAddr: strptr("alice@example.com")}
	silent := &data.Comment{ID: uuid.New(), PageID: page.ID}
	finder := &mockFinder{
		comments: map[uuid.UUID]*data.Comment{target.ID: target, silent.ID: silent},
		page:     page,
	}

	t.Run("sends mail to the replied-to author", func(t *testing.T) {
		sender := &mockSender{}
		n := NewReplyNotifier(finder, finder, sender, NewRenderer(), "Blog")
		reply := data.Comment{ID: uuid.New(), PageID: page.ID, DisplayName: "bob", Content: "**nice** <script>alert(1)</script>"}

		if err := n.Handle(context.Background(), ReplyTask{ReplyToID: target.ID, Comment: reply}); err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
		if len(sender.sent) != 1 {
			t.Fatalf("expected 1 mail, got %d", len(sender.sent))
		}
		msg := sender.sent[0]
		if msg.To != "alice@example.com" {
			t.Errorf("unexpected recipient %q", msg.To)
		}
		if msg.Subject != "Blog: Your comment got a reply" {
			t.Errorf("unexpected subject %q", msg.Subject)
		}
		if !strings.Contains(msg.Text, page.PageURL) {
			t.Errorf("text body should link the page: %q", msg.Text)
		}
		if !strings.Contains(msg.HTML, "<strong>nice</strong>") {
			t.Errorf("expected rendered markdown, got %q", msg.HTML)
		}
		if strings.Contains(msg.HTML, "<script>") {
			t.Errorf("expected sanitized html, got %q", msg.HTML)
		}
	})

	t.Run("skips comments without mail address", func(t *testing.T) {
		sender := &mockSender{}
		n := NewReplyNotifier(finder, finder, sender, NewRenderer(), "Blog")
		err := n.Handle(context.Background(), ReplyTask{ReplyToID: silent.ID, Comment: data.Comment{PageID: page.ID}})
		if err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
		if len(sender.sent) != 0 {
			t.Errorf("expected no mail, got %d", len(sender.sent))
		}
	})

	t.Run("skips replies to oneself", func(t *testing.T) {
		sender := &mockSender{}
		n := NewReplyNotifier(finder, finder, sender, NewRenderer(), "Blog")
		reply := data.Comment{PageID: page.ID, MailAddr: strptr("Alice@Example.com")}
		if err := n.Handle(context.Background(), ReplyTask{ReplyToID: target.ID, Comment: reply}); err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
		if len(sender.sent) != 0 {
			t.Errorf("expected no mail, got %d", len(sender.sent))
		}
	})

	t.Run("skips deleted targets", func(t *testing.T) {
		sender := &mockSender{}
		n := NewReplyNotifier(finder, finder, sender, NewRenderer(), "Blog")
		if err := n.Handle(context.Background(), ReplyTask{ReplyToID: uuid.New()}); err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
		if len(sender.sent) != 0 {
			t.Errorf("expected no mail, got %d", len(sender.sent))
		}
	})

	t.Run("store errors are retried", func(t *testing.T) {
		n := NewReplyNotifier(&mockFinder{err: errors.New("db down")}, finder, &mockSender{}, NewRenderer(), "Blog")
		if err := n.Handle(context.Background(), ReplyTask{ReplyToID: target.ID}); err == nil {
			t.Error("expected the store error to be returned")
		}
	})
}

func TestBuildMessage(t *testing.T) {
	cfg := config.MailConfig{SiteName: "Blog", From: "noreply@example.com"}
	body, err := buildMessage(cfg, Message{To: "alice@example.com", Subject: "Blog: Your comment got a reply", Text: "line1\nline2", HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("buildMessage failed: %v", err)
	}
	out := string(body)
	for _, want := range []string{
		"To: <alice@example.com>\r\n",
		"From: \"Blog\" <noreply@example.com>\r\n",
		"Subject: Blog: Your comment got a reply\r\n",
		"Content-Type: multipart/alternative;",
		"line1\r\nline2\r\n",
		"<p>hi</p>\r\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected message to contain %q\n%s", want, out)
		}
	}

	if _, err := buildMessage(cfg, Message{To: "not an address"}); err == nil {
		t.Error("expected an error for an invalid recipient")
	}
}
