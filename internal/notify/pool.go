// Package notify delivers "your comment got a reply" messages in the background.
package notify

import (
	"context"
	"fmt"
	"go-comments-app/internal/config"
	"go-comments-app/internal/data"
	"go-comments-app/internal/logger"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ReplyTask describes one reply: the comment that was replied to and the new comment.
type ReplyTask struct {
	ReplyToID uuid.UUID
	Comment   data.Comment
}

// Handler processes one task. A returned error causes another attempt.
type Handler interface {
	Handle(ctx context.Context, task ReplyTask) error
}

// Pool runs reply tasks on a fixed number of workers with bounded retries.
type Pool struct {
	handler    Handler
	log        logger.Logger
	tasks      chan ReplyTask
	workers    int
	attempts   int
	retryDelay time.Duration

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	started bool
}

// NewPool creates a Pool. Call Start before enqueueing work.
func NewPool(cfg config.NotifyConfig, handler Handler, log logger.Logger) *Pool {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 0 {
		queueSize = 0
	}
	return &Pool{
		handler:    handler,
		log:        log,
		tasks:      make(chan ReplyTask, queueSize),
		workers:    workers,
		attempts:   attempts,
		retryDelay: cfg.RetryDelay,
	}
}

// Start launches the workers. They stop when ctx is cancelled or the pool is shut down.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(ctx)
	}
}

// Enqueue hands a task to the pool without blocking. It returns false when the
// queue is full or the pool has been shut down.
func (p *Pool) Enqueue(task ReplyTask) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish or ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notification pool shutdown: %w", ctx.Err())
	}
}

func (p *Pool) work(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.run(ctx, task)
		}
	}
}

func (p *Pool) run(ctx context.Context, task ReplyTask) {
	log := p.log.With(map[string]interface{}{
		"reply_to":   task.ReplyToID.String(),
		"comment_id": task.Comment.ID.String(),
	})
	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err = p.handler.Handle(ctx, task); err == nil {
			return
		}
		log.Error(err, fmt.Sprintf("Reply notification attempt %d/%d failed", attempt, p.attempts))
		if attempt == p.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.retryDelay):
		}
	}
	log.Warn("Giving up on reply notification")
}
