// Package outbox implements a durable retry queue for auxiliary writes.
// Primary operations stay the sole transactional boundary; everything
// best-effort is enqueued here and retried with backoff instead of being
// silently dropped.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andres/talent-tracker/internal/db"
)

// Handler executes one task kind. A nil return marks the task done; an
// error reschedules it until the attempt budget runs out.
type Handler func(ctx context.Context, payload []byte) error

// Store is the persistence surface the queue needs.
type Store interface {
	EnqueueOutbox(ctx context.Context, kind string, payload []byte) (uuid.UUID, error)
	DueOutboxTasks(ctx context.Context, now time.Time, limit int) ([]db.OutboxTask, error)
	MarkOutboxDone(ctx context.Context, id uuid.UUID, when time.Time) error
	RescheduleOutbox(ctx context.Context, id uuid.UUID, attempts int, next time.Time, lastError string) error
	MarkOutboxFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

const (
	defaultMaxAttempts = 8
	baseBackoff        = 30 * time.Second
	maxBackoff         = 6 * time.Hour
	claimBatch         = 50
)

// Queue enqueues tasks and dispatches due ones from a background loop.
type Queue struct {
	store       Store
	logger      *zap.Logger
	poll        time.Duration
	maxAttempts int

	mu       sync.RWMutex
	handlers map[string]Handler
}

// New creates a queue polling at the given interval.
func New(store Store, logger *zap.Logger, poll time.Duration, maxAttempts int) *Queue {
	if poll <= 0 {
		poll = 15 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Queue{
		store:       store,
		logger:      logger,
		poll:        poll,
		maxAttempts: maxAttempts,
		handlers:    make(map[string]Handler),
	}
}

// Register binds a handler to a task kind.
func (q *Queue) Register(kind string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[kind] = h
}

// Enqueue marshals the payload and stores a task for dispatch.
func (q *Queue) Enqueue(ctx context.Context, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}
	id, err := q.store.EnqueueOutbox(ctx, kind, data)
	if err != nil {
		return err
	}
	q.logger.Debug("outbox task enqueued",
		zap.String("task_id", id.String()),
		zap.String("kind", kind))
	return nil
}

// Start runs the dispatch loop until the context is cancelled.
func (q *Queue) Start(ctx context.Context) {
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	q.logger.Info("outbox dispatcher started", zap.Duration("poll", q.poll))
	for {
		select {
		case <-ctx.Done():
			q.logger.Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
			q.DispatchDue(ctx, time.Now())
		}
	}
}

// DispatchDue processes every task whose next attempt is due.
func (q *Queue) DispatchDue(ctx context.Context, now time.Time) {
	tasks, err := q.store.DueOutboxTasks(ctx, now, claimBatch)
	if err != nil {
		q.logger.Warn("failed to fetch due outbox tasks", zap.Error(err))
		return
	}

	for _, task := range tasks {
		q.dispatch(ctx, task, now)
	}
}

func (q *Queue) dispatch(ctx context.Context, task db.OutboxTask, now time.Time) {
	q.mu.RLock()
	h, ok := q.handlers[task.Kind]
	q.mu.RUnlock()

	if !ok {
		q.logger.Error("no handler for outbox kind, abandoning task",
			zap.String("task_id", task.ID.String()),
			zap.String("kind", task.Kind))
		if err := q.store.MarkOutboxFailed(ctx, task.ID, "no handler registered"); err != nil {
			q.logger.Warn("failed to mark outbox task failed", zap.Error(err))
		}
		return
	}

	if err := h(ctx, task.Payload); err != nil {
		attempts := task.Attempts + 1
		if attempts >= q.maxAttempts {
			q.logger.Error("outbox task exhausted attempts",
				zap.String("task_id", task.ID.String()),
				zap.String("kind", task.Kind),
				zap.Int("attempts", attempts),
				zap.Error(err))
			if mErr := q.store.MarkOutboxFailed(ctx, task.ID, err.Error()); mErr != nil {
				q.logger.Warn("failed to mark outbox task failed", zap.Error(mErr))
			}
			return
		}

		next := now.Add(Backoff(attempts))
		q.logger.Warn("outbox task failed, rescheduling",
			zap.String("task_id", task.ID.String()),
			zap.String("kind", task.Kind),
			zap.Int("attempts", attempts),
			zap.Time("next_attempt", next),
			zap.Error(err))
		if rErr := q.store.RescheduleOutbox(ctx, task.ID, attempts, next, err.Error()); rErr != nil {
			q.logger.Warn("failed to reschedule outbox task", zap.Error(rErr))
		}
		return
	}

	if err := q.store.MarkOutboxDone(ctx, task.ID, now); err != nil {
		q.logger.Warn("failed to mark outbox task done", zap.Error(err))
	}
}

// Backoff returns the exponential delay before the given attempt number.
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := baseBackoff << (attempts - 1)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}
