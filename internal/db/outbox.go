package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnqueueOutbox stores a durable auxiliary-write task for later dispatch.
func (db *DB) EnqueueOutbox(ctx context.Context, kind string, payload []byte) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO outbox_tasks (kind, payload, next_attempt_at)
		 VALUES ($1, $2, NOW())
		 RETURNING id`,
		kind, payload,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to enqueue outbox task: %w", err)
	}
	return id, nil
}

// DueOutboxTasks retrieves pending tasks whose next attempt is due.
func (db *DB) DueOutboxTasks(ctx context.Context, now time.Time, limit int) ([]OutboxTask, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, kind, payload, attempts, next_attempt_at, last_error, done_at, created_at
		 FROM outbox_tasks
		 WHERE done_at IS NULL AND next_attempt_at <= $1
		 ORDER BY next_attempt_at ASC LIMIT $2`,
		now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due outbox tasks: %w", err)
	}
	defer rows.Close()

	var out []OutboxTask
	for rows.Next() {
		var t OutboxTask
		if err := rows.Scan(&t.ID, &t.Kind, &t.Payload, &t.Attempts, &t.NextAttemptAt,
			&t.LastError, &t.DoneAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox task: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// MarkOutboxDone records a successful dispatch.
func (db *DB) MarkOutboxDone(ctx context.Context, id uuid.UUID, when time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE outbox_tasks SET done_at = $1, last_error = NULL WHERE id = $2`, when, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox task done: %w", err)
	}
	return nil
}

// RescheduleOutbox records a failed attempt and pushes the task into the
// future for retry.
func (db *DB) RescheduleOutbox(ctx context.Context, id uuid.UUID, attempts int, next time.Time, lastError string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE outbox_tasks SET attempts = $1, next_attempt_at = $2, last_error = $3 WHERE id = $4`,
		attempts, next, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to reschedule outbox task: %w", err)
	}
	return nil
}

// MarkOutboxFailed abandons a task after the attempt budget is exhausted.
// The row stays for operator inspection; done_at is set so it is no longer
// picked up.
func (db *DB) MarkOutboxFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE outbox_tasks SET done_at = NOW(), last_error = $1 WHERE id = $2`,
		lastError, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox task failed: %w", err)
	}
	return nil
}
