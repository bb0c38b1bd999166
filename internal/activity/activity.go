// Package activity appends candidate activity entries and raises
// hot-lead alerts for recruiters.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andres/talent-tracker/internal/db"
)

// highIntent lists the activity types that suggest a candidate is
// actively re-engaging with the portal.
var highIntent = map[string]bool{
	db.ActivityLogin:            true,
	db.ActivityViewJob:          true,
	db.ActivityStartApplication: true,
	db.ActivityApply:            true,
}

// Store is the persistence surface the logger needs.
type Store interface {
	InsertActivity(ctx context.Context, e *db.ActivityEntry) (uuid.UUID, error)
	ListActivity(ctx context.Context, candidateID uuid.UUID, limit int) ([]db.ActivityEntry, error)
	GetAdvancedApplication(ctx context.Context, candidateID uuid.UUID) (*db.Application, error)
	GetVacancy(ctx context.Context, id uuid.UUID) (*db.Vacancy, error)
	GetCandidate(ctx context.Context, id uuid.UUID) (*db.Candidate, error)
	CreateNotification(ctx context.Context, n *db.Notification) (uuid.UUID, error)
}

// Logger appends activity entries. High-intent entries additionally
// trigger a background hot-lead check.
type Logger struct {
	store  Store
	logger *zap.Logger

	// leadTimeout bounds the background hot-lead evaluation, which runs
	// detached from the request context.
	leadTimeout time.Duration
}

func New(store Store, logger *zap.Logger) *Logger {
	return &Logger{store: store, logger: logger, leadTimeout: 10 * time.Second}
}

// Log appends one entry. The hot-lead evaluation is fire-and-forget: its
// outcome never affects the caller.
func (l *Logger) Log(ctx context.Context, e *db.ActivityEntry) (uuid.UUID, error) {
	id, err := l.store.InsertActivity(ctx, e)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to log activity: %w", err)
	}

	if highIntent[e.Type] {
		go func(candidateID uuid.UUID, activityType string) {
			ctx, cancel := context.WithTimeout(context.Background(), l.leadTimeout)
			defer cancel()
			l.evaluateHotLead(ctx, candidateID, activityType)
		}(e.CandidateID, e.Type)
	}
	return id, nil
}

// Recent lists the latest entries for a candidate.
func (l *Logger) Recent(ctx context.Context, candidateID uuid.UUID, limit int) ([]db.ActivityEntry, error) {
	return l.store.ListActivity(ctx, candidateID, limit)
}

// evaluateHotLead notifies the recruiter who owns the vacancy when a
// candidate with an advanced-stage application shows renewed activity.
// Best-effort throughout: any missing link in the chain is a silent
// no-op.
func (l *Logger) evaluateHotLead(ctx context.Context, candidateID uuid.UUID, activityType string) {
	app, err := l.store.GetAdvancedApplication(ctx, candidateID)
	if err != nil {
		l.logger.Warn("hot-lead application lookup failed",
			zap.String("candidate_id", candidateID.String()),
			zap.Error(err))
		return
	}
	if app == nil {
		return
	}

	vacancy, err := l.store.GetVacancy(ctx, app.VacancyID)
	if err != nil || vacancy == nil || vacancy.RecruiterID == nil {
		return
	}

	name := "Un candidato"
	if candidate, err := l.store.GetCandidate(ctx, candidateID); err == nil && candidate != nil {
		name = candidate.Name
	}

	_, err = l.store.CreateNotification(ctx, &db.Notification{
		UserID:   *vacancy.RecruiterID,
		UserType: db.UserTypeRecruiter,
		Message:  fmt.Sprintf("%s (%s) mostró actividad reciente en el portal: %s", name, app.Status, activityType),
		Metadata: map[string]any{
			"type":           "hot_lead",
			"candidate_id":   candidateID.String(),
			"application_id": app.ID.String(),
			"vacancy_id":     vacancy.ID.String(),
			"activity_type":  activityType,
		},
	})
	if err != nil {
		l.logger.Warn("hot-lead notification failed",
			zap.String("candidate_id", candidateID.String()),
			zap.Error(err))
		return
	}

	l.logger.Info("hot lead detected",
		zap.String("candidate_id", candidateID.String()),
		zap.String("vacancy_id", vacancy.ID.String()),
		zap.String("activity_type", activityType))
}
