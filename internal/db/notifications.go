package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CreateNotification inserts a notification addressed to a user-type +
// user-id pair and returns its ID.
func (db *DB) CreateNotification(ctx context.Context, n *Notification) (uuid.UUID, error) {
	var metadataJSON []byte
	if n.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(n.Metadata)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to marshal notification metadata: %w", err)
		}
	}

	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO notifications (user_type, user_id, message, link_url, metadata)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		n.UserType, n.UserID, n.Message, n.LinkURL, metadataJSON,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return id, nil
}

// MarkNotificationRead flips the read flag.
func (db *DB) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found: %s", id)
	}
	return nil
}

// ListNotifications retrieves notifications for a recipient, newest first.
// Pass unreadOnly to restrict to unread ones.
func (db *DB) ListNotifications(ctx context.Context, userType string, userID uuid.UUID, unreadOnly bool) ([]Notification, error) {
	query := `SELECT id, user_type, user_id, message, read, link_url, metadata, created_at
		 FROM notifications WHERE user_type = $1 AND user_id = $2`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT 100`

	rows, err := db.pool.Query(ctx, query, userType, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		var metadataJSON []byte
		if err := rows.Scan(&n.ID, &n.UserType, &n.UserID, &n.Message, &n.Read,
			&n.LinkURL, &metadataJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if metadataJSON != nil {
			_ = json.Unmarshal(metadataJSON, &n.Metadata)
		}
		out = append(out, n)
	}
	return out, nil
}
