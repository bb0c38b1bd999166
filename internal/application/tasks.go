package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/andres/talent-tracker/internal/db"
	"github.com/andres/talent-tracker/internal/outbox"
)

// Outbox task kinds produced by the application pipeline.
const (
	TaskCandidateSalary  = "candidate.salary"
	TaskCandidateVacancy = "candidate.vacancy_link"
	TaskVacancyCounter   = "vacancy.counter"
	TaskTrackingLink     = "tracking.link"
)

// CandidateSalaryTask retries the expected-salary update.
type CandidateSalaryTask struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Salary      int64     `json:"salary"`
}

// CandidateVacancyTask retries the candidate-vacancy association and the
// stage-history open.
type CandidateVacancyTask struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	VacancyID   uuid.UUID `json:"vacancy_id"`
}

// VacancyCounterTask retries the public-posting counter increment.
type VacancyCounterTask struct {
	VacancyID uuid.UUID `json:"vacancy_id"`
}

// TrackingLinkTask retries tracking-link creation. CreateLink is
// idempotent, so replays are safe.
type TrackingLinkTask struct {
	ApplicationID uuid.UUID `json:"application_id"`
	Email         string    `json:"email"`
}

// RegisterOutboxHandlers binds the application pipeline's retryable writes
// to the outbox queue.
func RegisterOutboxHandlers(q *outbox.Queue, store Store, links Links) {
	q.Register(TaskCandidateSalary, func(ctx context.Context, payload []byte) error {
		var t CandidateSalaryTask
		if err := json.Unmarshal(payload, &t); err != nil {
			return fmt.Errorf("bad payload: %w", err)
		}
		return store.UpdateCandidateExpectedSalary(ctx, t.CandidateID, t.Salary)
	})

	q.Register(TaskCandidateVacancy, func(ctx context.Context, payload []byte) error {
		var t CandidateVacancyTask
		if err := json.Unmarshal(payload, &t); err != nil {
			return fmt.Errorf("bad payload: %w", err)
		}
		if err := store.UpsertCandidateVacancy(ctx, t.CandidateID, t.VacancyID); err != nil {
			return err
		}
		return store.SetCandidateStage(ctx, t.CandidateID, t.VacancyID, db.DefaultStage)
	})

	q.Register(TaskVacancyCounter, func(ctx context.Context, payload []byte) error {
		var t VacancyCounterTask
		if err := json.Unmarshal(payload, &t); err != nil {
			return fmt.Errorf("bad payload: %w", err)
		}
		return store.IncrementVacancyApplications(ctx, t.VacancyID)
	})

	q.Register(TaskTrackingLink, func(ctx context.Context, payload []byte) error {
		var t TrackingLinkTask
		if err := json.Unmarshal(payload, &t); err != nil {
			return fmt.Errorf("bad payload: %w", err)
		}
		_, err := links.CreateLink(ctx, t.ApplicationID, t.Email)
		return err
	})
}
