package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const candidateColumns = `id, name, email, phone, expected_salary, stage, source,
	        technical_rating, outcome, created_at, updated_at`

func scanCandidate(row pgx.Row) (*Candidate, error) {
	var c Candidate
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.ExpectedSalary, &c.Stage,
		&c.Source, &c.TechnicalRating, &c.Outcome, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan candidate: %w", err)
	}
	return &c, nil
}

// GetCandidate retrieves a candidate by ID. Returns nil when absent.
func (db *DB) GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	return scanCandidate(db.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id))
}

// GetCandidateByEmail retrieves a candidate by email (case-insensitive).
func (db *DB) GetCandidateByEmail(ctx context.Context, email string) (*Candidate, error) {
	return scanCandidate(db.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE LOWER(email) = LOWER($1)`,
		strings.TrimSpace(email)))
}

// CreateCandidate inserts a new candidate and returns its ID. Stage and
// source fall back to the pipeline defaults when empty.
func (db *DB) CreateCandidate(ctx context.Context, c *Candidate) (uuid.UUID, error) {
	stage := c.Stage
	if stage == "" {
		stage = DefaultStage
	}
	source := c.Source
	if source == "" {
		source = DefaultSource
	}
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO candidates (name, email, phone, expected_salary, stage, source, technical_rating)
		 VALUES ($1, LOWER($2), $3, $4, $5, $6, $7)
		 RETURNING id`,
		c.Name, strings.TrimSpace(c.Email), c.Phone, c.ExpectedSalary, stage, source, c.TechnicalRating,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create candidate: %w", err)
	}
	return id, nil
}

// UpdateCandidateExpectedSalary records the salary the candidate requested
// with their most recent application.
func (db *DB) UpdateCandidateExpectedSalary(ctx context.Context, id uuid.UUID, salary int64) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE candidates SET expected_salary = $1, updated_at = NOW() WHERE id = $2`,
		salary, id)
	if err != nil {
		return fmt.Errorf("failed to update expected salary: %w", err)
	}
	return nil
}

// UpsertCandidateVacancy associates a candidate with a vacancy. A candidate
// tracks one vacancy at a time; re-association moves them.
func (db *DB) UpsertCandidateVacancy(ctx context.Context, candidateID, vacancyID uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO candidate_vacancies (candidate_id, vacancy_id)
		 VALUES ($1, $2)
		 ON CONFLICT (candidate_id) DO UPDATE SET vacancy_id = $2, updated_at = NOW()`,
		candidateID, vacancyID)
	if err != nil {
		return fmt.Errorf("failed to upsert candidate-vacancy link: %w", err)
	}
	return nil
}

// SetCandidateStage moves a candidate to a new pipeline stage. The open
// stage-history interval is closed and a new one opened; setting the stage
// the candidate is already in is a no-op, so at most one interval per
// candidate stays open.
func (db *DB) SetCandidateStage(ctx context.Context, candidateID, vacancyID uuid.UUID, stage string) error {
	var current *string
	err := db.pool.QueryRow(ctx,
		`SELECT stage FROM stage_history WHERE candidate_id = $1 AND ended_at IS NULL`,
		candidateID,
	).Scan(&current)
	if err != nil && err != pgx.ErrNoRows {
		return fmt.Errorf("failed to read open stage interval: %w", err)
	}
	if current != nil && *current == stage {
		return nil
	}

	if _, err := db.pool.Exec(ctx,
		`UPDATE stage_history SET ended_at = NOW() WHERE candidate_id = $1 AND ended_at IS NULL`,
		candidateID); err != nil {
		return fmt.Errorf("failed to close stage interval: %w", err)
	}

	if _, err := db.pool.Exec(ctx,
		`INSERT INTO stage_history (candidate_id, vacancy_id, stage, started_at)
		 VALUES ($1, $2, $3, NOW())`,
		candidateID, vacancyID, stage); err != nil {
		return fmt.Errorf("failed to open stage interval: %w", err)
	}

	if _, err := db.pool.Exec(ctx,
		`UPDATE candidates SET stage = $1, updated_at = NOW() WHERE id = $2`,
		stage, candidateID); err != nil {
		return fmt.Errorf("failed to update candidate stage: %w", err)
	}
	return nil
}

// ListStageHistory returns the full stage history for a candidate, newest
// first.
func (db *DB) ListStageHistory(ctx context.Context, candidateID uuid.UUID) ([]StageInterval, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, candidate_id, vacancy_id, stage, started_at, ended_at
		 FROM stage_history WHERE candidate_id = $1 ORDER BY started_at DESC`,
		candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage history: %w", err)
	}
	defer rows.Close()

	var out []StageInterval
	for rows.Next() {
		var si StageInterval
		if err := rows.Scan(&si.ID, &si.CandidateID, &si.VacancyID, &si.Stage,
			&si.StartedAt, &si.EndedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stage interval: %w", err)
		}
		out = append(out, si)
	}
	return out, nil
}
