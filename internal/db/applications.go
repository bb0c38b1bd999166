package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const applicationColumns = `id, vacancy_id, candidate_id, account_id, name, email, phone,
	        match_score, status, notes, rating, feedback, link_sent, viewed_by_recruiter,
	        candidate_viewed_at, submitted_at, updated_at`

func scanApplication(row pgx.Row) (*Application, error) {
	var a Application
	err := row.Scan(&a.ID, &a.VacancyID, &a.CandidateID, &a.AccountID, &a.Name, &a.Email,
		&a.Phone, &a.MatchScore, &a.Status, &a.Notes, &a.Rating, &a.Feedback,
		&a.LinkSent, &a.ViewedByRecruiter, &a.CandidateViewedAt, &a.SubmittedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan application: %w", err)
	}
	return &a, nil
}

// CreateApplication inserts a new application and returns its ID. Status
// defaults to Nueva.
func (db *DB) CreateApplication(ctx context.Context, a *Application) (uuid.UUID, error) {
	status := a.Status
	if status == "" {
		status = StatusNueva
	}
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO applications (vacancy_id, candidate_id, account_id, name, email, phone,
		                           match_score, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		a.VacancyID, a.CandidateID, a.AccountID, a.Name, a.Email, a.Phone,
		a.MatchScore, status,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create application: %w", err)
	}
	return id, nil
}

// GetApplication retrieves an application by ID. Returns nil when absent.
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*Application, error) {
	return scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id))
}

// GetAdvancedApplication finds an application in an advanced status
// (Preseleccionado, Entrevista, Oferta) for the candidate, if any.
func (db *DB) GetAdvancedApplication(ctx context.Context, candidateID uuid.UUID) (*Application, error) {
	return scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications
		 WHERE candidate_id = $1 AND status = ANY($2)
		 ORDER BY updated_at DESC LIMIT 1`,
		candidateID, []string{StatusPreseleccionado, StatusEntrevista, StatusOferta}))
}

// SetApplicationStatus updates the recruiter-set status and optional note.
// Last write wins; transition legality is enforced by the service layer.
func (db *DB) SetApplicationStatus(ctx context.Context, id uuid.UUID, status string, note *string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE applications
		 SET status = $1, notes = COALESCE($2, notes), updated_at = NOW()
		 WHERE id = $3`,
		status, note, id)
	if err != nil {
		return fmt.Errorf("failed to set application status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %s", id)
	}
	return nil
}

// MarkApplicationLinkSent flags that a tracking link was issued.
func (db *DB) MarkApplicationLinkSent(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE applications SET link_sent = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark link sent: %w", err)
	}
	return nil
}

// MarkApplicationViewed stamps the moment the candidate last opened their
// tracking page.
func (db *DB) MarkApplicationViewed(ctx context.Context, id uuid.UUID, when time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE applications SET candidate_viewed_at = $1, updated_at = NOW() WHERE id = $2`,
		when, id)
	if err != nil {
		return fmt.Errorf("failed to mark application viewed: %w", err)
	}
	return nil
}

// UpdateApplicationFeedback applies whichever of the optional candidate
// feedback fields are present.
func (db *DB) UpdateApplicationFeedback(ctx context.Context, id uuid.UUID, notes *string, rating *int, feedback *string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE applications
		 SET notes = COALESCE($1, notes),
		     rating = COALESCE($2, rating),
		     feedback = COALESCE($3, feedback),
		     updated_at = NOW()
		 WHERE id = $4`,
		notes, rating, feedback, id)
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %s", id)
	}
	return nil
}

// ListApplicationsByVacancy retrieves applications for one vacancy, newest
// first.
func (db *DB) ListApplicationsByVacancy(ctx context.Context, vacancyID uuid.UUID, limit int) ([]Application, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+applicationColumns+` FROM applications
		 WHERE vacancy_id = $1 ORDER BY submitted_at DESC LIMIT $2`,
		vacancyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}
