package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const trackingColumns = `id, application_id, token, email, expires_at, views_count,
	        last_viewed_at, created_at`

func scanTrackingLink(row pgx.Row) (*TrackingLink, error) {
	var l TrackingLink
	err := row.Scan(&l.ID, &l.ApplicationID, &l.Token, &l.Email, &l.ExpiresAt,
		&l.Views, &l.LastViewedAt, &l.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan tracking link: %w", err)
	}
	return &l, nil
}

// CreateTrackingLink persists a new tracking link and returns its ID.
func (db *DB) CreateTrackingLink(ctx context.Context, l *TrackingLink) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO tracking_links (application_id, token, email, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		l.ApplicationID, l.Token, l.Email, l.ExpiresAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create tracking link: %w", err)
	}
	return id, nil
}

// GetTrackingLinkByApplication retrieves the link owned by an application,
// expired or not. Returns nil when absent.
func (db *DB) GetTrackingLinkByApplication(ctx context.Context, applicationID uuid.UUID) (*TrackingLink, error) {
	return scanTrackingLink(db.pool.QueryRow(ctx,
		`SELECT `+trackingColumns+` FROM tracking_links WHERE application_id = $1`,
		applicationID))
}

// GetActiveTrackingLink resolves a token only while the link is unexpired.
func (db *DB) GetActiveTrackingLink(ctx context.Context, token string) (*TrackingLink, error) {
	return scanTrackingLink(db.pool.QueryRow(ctx,
		`SELECT `+trackingColumns+` FROM tracking_links
		 WHERE token = $1 AND expires_at > NOW()`,
		token))
}

// RecordLinkView increments the view counter and stamps the view time,
// returning the new count.
func (db *DB) RecordLinkView(ctx context.Context, id uuid.UUID, when time.Time) (int, error) {
	var views int
	err := db.pool.QueryRow(ctx,
		`UPDATE tracking_links
		 SET views_count = views_count + 1, last_viewed_at = $1
		 WHERE id = $2
		 RETURNING views_count`,
		when, id,
	).Scan(&views)
	if err != nil {
		return 0, fmt.Errorf("failed to record link view: %w", err)
	}
	return views, nil
}
