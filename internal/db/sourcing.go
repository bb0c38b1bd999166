package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const campaignColumns = `id, vacancy_id, name, sources, filters, schedule, auto_run,
	        status, candidates_found, last_run_at, next_run_at, created_at, updated_at`

func scanCampaign(row pgx.Row) (*SourcingCampaign, error) {
	var c SourcingCampaign
	var filtersJSON []byte
	err := row.Scan(&c.ID, &c.VacancyID, &c.Name, &c.Sources, &filtersJSON, &c.Schedule,
		&c.AutoRun, &c.Status, &c.CandidatesFound, &c.LastRunAt, &c.NextRunAt,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan campaign: %w", err)
	}
	if filtersJSON != nil {
		_ = json.Unmarshal(filtersJSON, &c.Filters)
	}
	return &c, nil
}

// CreateCampaign inserts a campaign row and returns its ID.
func (db *DB) CreateCampaign(ctx context.Context, c *SourcingCampaign) (uuid.UUID, error) {
	var filtersJSON []byte
	if c.Filters != nil {
		var err error
		filtersJSON, err = json.Marshal(c.Filters)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to marshal campaign filters: %w", err)
		}
	}
	status := c.Status
	if status == "" {
		status = CampaignActive
	}

	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO sourcing_campaigns (vacancy_id, name, sources, filters, schedule,
		                                 auto_run, status, next_run_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		c.VacancyID, c.Name, c.Sources, filtersJSON, c.Schedule, c.AutoRun, status, c.NextRunAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return id, nil
}

// GetCampaign retrieves a campaign by ID. Returns nil when absent.
func (db *DB) GetCampaign(ctx context.Context, id uuid.UUID) (*SourcingCampaign, error) {
	return scanCampaign(db.pool.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM sourcing_campaigns WHERE id = $1`, id))
}

// SetCampaignStatus flips the persisted state and reschedules (or clears)
// the next run.
func (db *DB) SetCampaignStatus(ctx context.Context, id uuid.UUID, status string, nextRun *time.Time) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE sourcing_campaigns SET status = $1, next_run_at = $2, updated_at = NOW()
		 WHERE id = $3`,
		status, nextRun, id)
	if err != nil {
		return fmt.Errorf("failed to set campaign status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("campaign not found: %s", id)
	}
	return nil
}

// ClaimDueCampaigns atomically claims active campaigns whose next run is
// due, pushing next_run_at forward so a concurrent poller (or a restarted
// process) cannot claim the same run twice.
func (db *DB) ClaimDueCampaigns(ctx context.Context, now time.Time, advance time.Duration, limit int) ([]SourcingCampaign, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.pool.Query(ctx,
		`UPDATE sourcing_campaigns
		 SET next_run_at = $1, updated_at = NOW()
		 WHERE id IN (
		     SELECT id FROM sourcing_campaigns
		     WHERE status = $2 AND next_run_at IS NOT NULL AND next_run_at <= $3
		     ORDER BY next_run_at ASC
		     LIMIT $4
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+campaignColumns,
		now.Add(advance), CampaignActive, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due campaigns: %w", err)
	}
	defer rows.Close()

	var out []SourcingCampaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// InsertSourcedCandidate stores an externally discovered profile. Existing
// rows for the same (campaign, email) are skipped, not updated; the bool
// reports whether a row was actually inserted.
func (db *DB) InsertSourcedCandidate(ctx context.Context, sc *SourcedCandidate) (bool, error) {
	var profileJSON []byte
	if sc.Profile != nil {
		var err error
		profileJSON, err = json.Marshal(sc.Profile)
		if err != nil {
			return false, fmt.Errorf("failed to marshal sourced profile: %w", err)
		}
	}

	result, err := db.pool.Exec(ctx,
		`INSERT INTO sourced_candidates (campaign_id, name, email, title, source, score, analysis, profile)
		 VALUES ($1, $2, LOWER($3), $4, $5, $6, $7, $8)
		 ON CONFLICT (campaign_id, email) DO NOTHING`,
		sc.CampaignID, sc.Name, sc.Email, sc.Title, sc.Source, sc.Score, sc.Analysis, profileJSON)
	if err != nil {
		return false, fmt.Errorf("failed to insert sourced candidate: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// FinishCampaignRun bumps the found-count and stamps the run times after a
// campaign execution.
func (db *DB) FinishCampaignRun(ctx context.Context, id uuid.UUID, stored int, ranAt time.Time, nextRun *time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE sourcing_campaigns
		 SET candidates_found = candidates_found + $1,
		     last_run_at = $2,
		     next_run_at = COALESCE($3, next_run_at),
		     updated_at = NOW()
		 WHERE id = $4`,
		stored, ranAt, nextRun, id)
	if err != nil {
		return fmt.Errorf("failed to finish campaign run: %w", err)
	}
	return nil
}

// RecordCampaignRun writes one execution-log row with aggregate stats.
func (db *DB) RecordCampaignRun(ctx context.Context, r *CampaignRun) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO campaign_runs (campaign_id, found, qualified, stored, duration_ms, error, ran_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.CampaignID, r.Found, r.Qualified, r.Stored, r.DurationMS, r.Error, r.RanAt)
	if err != nil {
		return fmt.Errorf("failed to record campaign run: %w", err)
	}
	return nil
}

// ListSourcedCandidates retrieves the stored profiles for a campaign,
// highest score first.
func (db *DB) ListSourcedCandidates(ctx context.Context, campaignID uuid.UUID, limit int) ([]SourcedCandidate, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, campaign_id, name, email, title, source, score, analysis, profile, created_at
		 FROM sourced_candidates WHERE campaign_id = $1
		 ORDER BY score DESC LIMIT $2`,
		campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sourced candidates: %w", err)
	}
	defer rows.Close()

	var out []SourcedCandidate
	for rows.Next() {
		var sc SourcedCandidate
		var profileJSON []byte
		if err := rows.Scan(&sc.ID, &sc.CampaignID, &sc.Name, &sc.Email, &sc.Title,
			&sc.Source, &sc.Score, &sc.Analysis, &profileJSON, &sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sourced candidate: %w", err)
		}
		if profileJSON != nil {
			_ = json.Unmarshal(profileJSON, &sc.Profile)
		}
		out = append(out, sc)
	}
	return out, nil
}
