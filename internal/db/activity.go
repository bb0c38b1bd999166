package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// InsertActivity appends one activity log entry. Entries are never mutated
// except by cascading candidate deletion.
func (db *DB) InsertActivity(ctx context.Context, e *ActivityEntry) (uuid.UUID, error) {
	var metadataJSON []byte
	if e.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(e.Metadata)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to marshal activity metadata: %w", err)
		}
	}

	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO activity_log (candidate_id, activity_type, description, related_id, metadata)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		e.CandidateID, e.Type, e.Description, e.RelatedID, metadataJSON,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert activity: %w", err)
	}
	return id, nil
}

// ListActivity retrieves the most recent activity for a candidate.
func (db *DB) ListActivity(ctx context.Context, candidateID uuid.UUID, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, candidate_id, activity_type, description, related_id, metadata, created_at
		 FROM activity_log WHERE candidate_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		candidateID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var out []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		var metadataJSON []byte
		if err := rows.Scan(&e.ID, &e.CandidateID, &e.Type, &e.Description,
			&e.RelatedID, &metadataJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		if metadataJSON != nil {
			_ = json.Unmarshal(metadataJSON, &e.Metadata)
		}
		out = append(out, e)
	}
	return out, nil
}
