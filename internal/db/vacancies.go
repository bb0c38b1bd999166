package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const vacancyColumns = `id, title, recruiter_id, required_years, salary_min, salary_max,
	        status, applications, opened_at, estimated_close_at, closed_at, created_at, updated_at`

func scanVacancy(row pgx.Row) (*Vacancy, error) {
	var v Vacancy
	err := row.Scan(&v.ID, &v.Title, &v.RecruiterID, &v.RequiredYears, &v.SalaryMin,
		&v.SalaryMax, &v.Status, &v.Applications, &v.OpenedAt, &v.EstimatedCloseAt,
		&v.ClosedAt, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan vacancy: %w", err)
	}
	return &v, nil
}

// CreateVacancy inserts a new vacancy in Open status and returns its ID.
func (db *DB) CreateVacancy(ctx context.Context, v *Vacancy) (uuid.UUID, error) {
	status := v.Status
	if status == "" {
		status = VacancyOpen
	}
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO vacancies (title, recruiter_id, required_years, salary_min, salary_max,
		                        status, opened_at, estimated_close_at)
		 VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()), $8)
		 RETURNING id`,
		v.Title, v.RecruiterID, v.RequiredYears, v.SalaryMin, v.SalaryMax,
		status, nullTime(v.OpenedAt), v.EstimatedCloseAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create vacancy: %w", err)
	}
	return id, nil
}

// GetVacancy retrieves a vacancy by ID. Returns nil when absent.
func (db *DB) GetVacancy(ctx context.Context, id uuid.UUID) (*Vacancy, error) {
	return scanVacancy(db.pool.QueryRow(ctx,
		`SELECT `+vacancyColumns+` FROM vacancies WHERE id = $1`, id))
}

// ListVacancies retrieves vacancies, optionally filtered by status.
func (db *DB) ListVacancies(ctx context.Context, status string, limit int) ([]Vacancy, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + vacancyColumns + ` FROM vacancies`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY opened_at DESC LIMIT %d`, limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list vacancies: %w", err)
	}
	defer rows.Close()

	var out []Vacancy
	for rows.Next() {
		v, err := scanVacancy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// UpdateVacancy updates the mutable fields of a vacancy.
func (db *DB) UpdateVacancy(ctx context.Context, v *Vacancy) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE vacancies
		 SET title = $1, recruiter_id = $2, required_years = $3, salary_min = $4,
		     salary_max = $5, status = $6, estimated_close_at = $7, updated_at = NOW()
		 WHERE id = $8`,
		v.Title, v.RecruiterID, v.RequiredYears, v.SalaryMin, v.SalaryMax,
		v.Status, v.EstimatedCloseAt, v.ID)
	if err != nil {
		return fmt.Errorf("failed to update vacancy: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("vacancy not found: %s", v.ID)
	}
	return nil
}

// CloseVacancy marks a vacancy Closed, stamping the actual close date and
// removing it from the public listing.
func (db *DB) CloseVacancy(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE vacancies SET status = $1, closed_at = NOW(), updated_at = NOW() WHERE id = $2`,
		VacancyClosed, id)
	if err != nil {
		return fmt.Errorf("failed to close vacancy: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("vacancy not found: %s", id)
	}
	return nil
}

// IncrementVacancyApplications bumps the public-posting application counter.
func (db *DB) IncrementVacancyApplications(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE vacancies SET applications = applications + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment application counter: %w", err)
	}
	return nil
}
