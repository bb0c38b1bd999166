// Package application orchestrates application submission and recruiter
// status management.
package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andres/talent-tracker/internal/db"
	"github.com/andres/talent-tracker/internal/matching"
	"github.com/andres/talent-tracker/internal/tracking"
)

// Sentinel errors surfaced to handlers.
var (
	ErrVacancyNotFound     = errors.New("vacancy not found")
	ErrApplicationNotFound = errors.New("application not found")
)

// TrackingURLPending is returned in place of a tracking URL when link
// creation failed; the outbox will retry the creation.
const TrackingURLPending = "pendiente"

// Store is the persistence surface the service needs.
type Store interface {
	GetVacancy(ctx context.Context, id uuid.UUID) (*db.Vacancy, error)
	GetCandidateByEmail(ctx context.Context, email string) (*db.Candidate, error)
	CreateCandidate(ctx context.Context, c *db.Candidate) (uuid.UUID, error)
	CreateApplication(ctx context.Context, a *db.Application) (uuid.UUID, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*db.Application, error)
	SetApplicationStatus(ctx context.Context, id uuid.UUID, status string, note *string) error
	UpdateCandidateExpectedSalary(ctx context.Context, id uuid.UUID, salary int64) error
	UpsertCandidateVacancy(ctx context.Context, candidateID, vacancyID uuid.UUID) error
	IncrementVacancyApplications(ctx context.Context, id uuid.UUID) error
	SetCandidateStage(ctx context.Context, candidateID, vacancyID uuid.UUID, stage string) error
}

// Links issues tracking links; implemented by tracking.Service.
type Links interface {
	CreateLink(ctx context.Context, applicationID uuid.UUID, email string) (*tracking.CreatedLink, error)
	SendNotification(ctx context.Context, n *db.Notification) tracking.SendResult
}

// Tasks enqueues durable retries for failed auxiliary writes; implemented
// by outbox.Queue.
type Tasks interface {
	Enqueue(ctx context.Context, kind string, payload any) error
}

// Service implements the application pipeline.
type Service struct {
	store  Store
	links  Links
	tasks  Tasks
	logger *zap.Logger
}

// New creates an application service.
func New(store Store, links Links, tasks Tasks, logger *zap.Logger) *Service {
	return &Service{store: store, links: links, tasks: tasks, logger: logger}
}

// ApplyInput is the candidate-submitted application data.
type ApplyInput struct {
	Name           string
	Email          string
	Phone          *string
	Title          string
	Years          int
	Availability   string
	ExpectedSalary int64
	AccountID      *uuid.UUID
}

// ApplyResult is returned to the public portal.
type ApplyResult struct {
	ApplicationID uuid.UUID `json:"application_id"`
	CandidateID   uuid.UUID `json:"candidate_id"`
	MatchScore    int       `json:"match_score"`
	TrackingURL   string    `json:"tracking_url"`
	Message       string    `json:"message"`
}

// Apply submits an application against a vacancy. Only the vacancy lookup
// and the application insert are hard failures; every auxiliary write
// degrades gracefully and is retried through the outbox. The
// applicant-facing guarantee depends only on the Application row existing.
func (s *Service) Apply(ctx context.Context, vacancyID uuid.UUID, input ApplyInput) (*ApplyResult, error) {
	vacancy, err := s.store.GetVacancy(ctx, vacancyID)
	if err != nil {
		return nil, err
	}
	if vacancy == nil {
		return nil, ErrVacancyNotFound
	}

	candidateID, err := s.resolveCandidate(ctx, input)
	if err != nil {
		return nil, err
	}

	score := matching.Score(
		matching.Job{
			Title:         vacancy.Title,
			RequiredYears: vacancy.RequiredYears,
			SalaryMin:     salaryOrZero(vacancy.SalaryMin),
		},
		matching.Candidate{
			Title:          input.Title,
			Years:          input.Years,
			Availability:   input.Availability,
			ExpectedSalary: input.ExpectedSalary,
		},
	)

	applicationID, err := s.store.CreateApplication(ctx, &db.Application{
		VacancyID:   vacancyID,
		CandidateID: &candidateID,
		AccountID:   input.AccountID,
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		MatchScore:  score,
		Status:      db.StatusNueva,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist application: %w", err)
	}

	s.logger.Info("application created",
		zap.String("application_id", applicationID.String()),
		zap.String("vacancy_id", vacancyID.String()),
		zap.Int("match_score", score))

	if input.ExpectedSalary > 0 {
		s.auxiliary(ctx, TaskCandidateSalary, CandidateSalaryTask{CandidateID: candidateID, Salary: input.ExpectedSalary},
			func() error { return s.store.UpdateCandidateExpectedSalary(ctx, candidateID, input.ExpectedSalary) })
	}
	s.auxiliary(ctx, TaskCandidateVacancy, CandidateVacancyTask{CandidateID: candidateID, VacancyID: vacancyID},
		func() error {
			if err := s.store.UpsertCandidateVacancy(ctx, candidateID, vacancyID); err != nil {
				return err
			}
			return s.store.SetCandidateStage(ctx, candidateID, vacancyID, db.DefaultStage)
		})
	s.auxiliary(ctx, TaskVacancyCounter, VacancyCounterTask{VacancyID: vacancyID},
		func() error { return s.store.IncrementVacancyApplications(ctx, vacancyID) })

	trackingURL := TrackingURLPending
	link, err := s.links.CreateLink(ctx, applicationID, input.Email)
	if err != nil {
		s.logger.Warn("tracking link creation failed, queued for retry",
			zap.String("application_id", applicationID.String()),
			zap.Error(err))
		s.enqueue(ctx, TaskTrackingLink, TrackingLinkTask{ApplicationID: applicationID, Email: input.Email})
	} else {
		trackingURL = link.URL
	}

	s.links.SendNotification(ctx, &db.Notification{
		UserType: db.UserTypeCandidate,
		UserID:   candidateID,
		Message:  db.StatusMessages[db.StatusNueva],
		Metadata: map[string]any{"application_id": applicationID.String()},
	})

	return &ApplyResult{
		ApplicationID: applicationID,
		CandidateID:   candidateID,
		MatchScore:    score,
		TrackingURL:   trackingURL,
		Message:       "Postulación recibida",
	}, nil
}

// UpdateStatus applies a recruiter-driven status transition. Setting the
// current status again is a no-op: no history interval is touched and no
// notification goes out.
func (s *Service) UpdateStatus(ctx context.Context, applicationID uuid.UUID, newStatus string, note *string) error {
	if !ValidStatus(newStatus) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, newStatus)
	}

	app, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	if app == nil {
		return ErrApplicationNotFound
	}

	if app.Status == newStatus {
		return nil
	}
	if !CanTransition(app.Status, newStatus) {
		return transitionError(app.Status, newStatus)
	}

	if err := s.store.SetApplicationStatus(ctx, applicationID, newStatus, note); err != nil {
		return err
	}

	if app.CandidateID != nil {
		if err := s.store.SetCandidateStage(ctx, *app.CandidateID, app.VacancyID, newStatus); err != nil {
			s.logger.Warn("failed to record stage transition",
				zap.String("candidate_id", app.CandidateID.String()),
				zap.Error(err))
		}

		s.links.SendNotification(ctx, &db.Notification{
			UserType: db.UserTypeCandidate,
			UserID:   *app.CandidateID,
			Message:  db.StatusMessages[newStatus],
			Metadata: map[string]any{"application_id": applicationID.String(), "status": newStatus},
		})
	}

	s.logger.Info("application status updated",
		zap.String("application_id", applicationID.String()),
		zap.String("from", app.Status),
		zap.String("to", newStatus))
	return nil
}

// resolveCandidate looks the candidate up by email and creates the internal
// record when absent.
func (s *Service) resolveCandidate(ctx context.Context, input ApplyInput) (uuid.UUID, error) {
	existing, err := s.store.GetCandidateByEmail(ctx, input.Email)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	var salary *int64
	if input.ExpectedSalary > 0 {
		salary = &input.ExpectedSalary
	}
	id, err := s.store.CreateCandidate(ctx, &db.Candidate{
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		ExpectedSalary: salary,
		Stage:          db.DefaultStage,
		Source:         db.DefaultSource,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create candidate: %w", err)
	}
	return id, nil
}

// auxiliary runs a best-effort write inline; on failure it logs and hands
// the task to the outbox so the write is retried rather than dropped.
func (s *Service) auxiliary(ctx context.Context, kind string, payload any, fn func() error) {
	if err := fn(); err != nil {
		s.logger.Warn("auxiliary write failed, queued for retry",
			zap.String("kind", kind),
			zap.Error(err))
		s.enqueue(ctx, kind, payload)
	}
}

func (s *Service) enqueue(ctx context.Context, kind string, payload any) {
	if s.tasks == nil {
		return
	}
	if err := s.tasks.Enqueue(ctx, kind, payload); err != nil {
		s.logger.Error("failed to enqueue outbox task",
			zap.String("kind", kind),
			zap.Error(err))
	}
}

func salaryOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
